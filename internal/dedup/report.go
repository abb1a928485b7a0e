package dedup

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lupppig/dedupcalc/internal/chunker"
	"github.com/lupppig/dedupcalc/internal/compress"
	"github.com/taigrr/colorhash"
)

const (
	mib = 1024 * 1024

	labelWidth = 34
	valueWidth = 6
)

// Report is the summary of one run. Sizes are in MiB and kept unrounded;
// rounding happens when the report is rendered.
type Report struct {
	RunID           string
	Algorithm       chunker.Algorithm
	BlockSize       int64
	Files           int
	TotalBlocks     int64
	UniqueBlocks    int64
	DuplicateBlocks int64
	TotalSize       float64
	UniqueSize      float64
	DedupSize       float64
	// Ratio is TotalBlocks/UniqueBlocks, +Inf when nothing was read.
	Ratio float64

	Compression      compress.Algorithm
	CompressedSize   float64
	CompressionRatio float64

	entries []Entry
}

type ReportOptions struct {
	RunID       string
	BlockSize   int64
	Files       int
	Algorithm   chunker.Algorithm
	Compression compress.Algorithm
}

func NewReport(t *Table, opts ReportOptions) *Report {
	unique := t.Unique()
	total := t.Total()
	bs := float64(opts.BlockSize)

	r := &Report{
		RunID:           opts.RunID,
		Algorithm:       opts.Algorithm,
		BlockSize:       opts.BlockSize,
		Files:           opts.Files,
		TotalBlocks:     total,
		UniqueBlocks:    unique,
		DuplicateBlocks: total - unique,
		TotalSize:       float64(total) * bs / mib,
		UniqueSize:      float64(unique) * bs / mib,
		DedupSize:       float64(total-unique) * bs / mib,
		Ratio:           math.Inf(1),
		Compression:     opts.Compression,
		entries:         t.Entries(),
	}
	if unique > 0 {
		r.Ratio = float64(total) / float64(unique)
	}

	if r.compressed() {
		stored := t.StoredBytes()
		r.CompressedSize = float64(stored) / mib
		r.CompressionRatio = math.Inf(1)
		if stored > 0 {
			r.CompressionRatio = float64(t.UniqueBytes()) / float64(stored)
		}
	}

	return r
}

func (r *Report) compressed() bool {
	return r.Compression != "" && r.Compression != compress.None
}

// Entries returns the frequency table rows in first-seen order.
func (r *Report) Entries() []Entry {
	return r.entries
}

// WriteText writes the fixed-format summary.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	line := func(label, value, suffix string) {
		fmt.Fprintf(&b, "%-*s %*s%s\n", labelWidth, label, valueWidth, value, suffix)
	}
	count := func(n int64) string { return strconv.FormatInt(n, 10) }

	line("Block size", formatFloat(float64(r.BlockSize)/mib), " MB")
	line("Files processed", count(int64(r.Files)), "")
	line("Total blocks", count(r.TotalBlocks), "")
	line("Total size", formatFloat(Round2(r.TotalSize)), " MB")
	line("Unique blocks", count(r.UniqueBlocks), "")
	line("Duplicated blocks", count(r.DuplicateBlocks), "")
	line("Unique size", formatFloat(Round2(r.UniqueSize)), " MB")
	line("Deduplicated size", formatFloat(Round2(r.DedupSize)), " MB")
	line("Deduplication ratio", formatFloat(Round2(r.Ratio)), " :1")

	if r.compressed() {
		line("Compressed unique size ("+string(r.Compression)+")", formatFloat(Round2(r.CompressedSize)), " MB")
		line("Compression ratio", formatFloat(Round2(r.CompressionRatio)), " :1")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

const paletteSize = 6

var palette = [paletteSize]string{
	"\033[31m", "\033[32m", "\033[33m", "\033[34m", "\033[35m", "\033[36m",
}

// WriteTable writes the digest/hit table followed by a blank line. With
// color set, each digest is tinted by its hash so repeated prefixes stand
// out; padding is computed on the bare digest.
func (r *Report) WriteTable(w io.Writer, color bool) error {
	width := r.Algorithm.HexWidth() + 2

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s %*s\n", width, "Block hash", valueWidth, "Hits")
	for _, e := range r.entries {
		digest := e.Digest
		pad := strings.Repeat(" ", max(width-len(digest), 0))
		if color {
			idx := colorhash.HashString(digest) % paletteSize
			if idx < 0 {
				idx = -idx
			}
			digest = palette[idx] + digest + "\033[0m"
		}
		fmt.Fprintf(&b, "%s%s %*d\n", digest, pad, valueWidth, e.Count)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Float is a float64 that encodes infinity as the string "inf".
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
		return json.Marshal(formatFloat(float64(f)))
	}
	return json.Marshal(float64(f))
}

type jsonBlock struct {
	Digest string `json:"digest"`
	Hits   int64  `json:"hits"`
}

type jsonReport struct {
	RunID            string      `json:"run_id,omitempty"`
	Algorithm        string      `json:"algorithm"`
	BlockSize        int64       `json:"block_size"`
	Files            int         `json:"files"`
	TotalBlocks      int64       `json:"total_blocks"`
	UniqueBlocks     int64       `json:"unique_blocks"`
	DuplicateBlocks  int64       `json:"duplicate_blocks"`
	TotalSizeMB      Float       `json:"total_size_mb"`
	UniqueSizeMB     Float       `json:"unique_size_mb"`
	DedupSizeMB      Float       `json:"dedup_size_mb"`
	DedupRatio       Float       `json:"dedup_ratio"`
	Compression      string      `json:"compression,omitempty"`
	CompressedSizeMB *Float      `json:"compressed_size_mb,omitempty"`
	CompressionRatio *Float      `json:"compression_ratio,omitempty"`
	Blocks           []jsonBlock `json:"blocks,omitempty"`
}

// WriteJSON writes the report as indented JSON. With blocks set the
// frequency table is included.
func (r *Report) WriteJSON(w io.Writer, blocks bool) error {
	out := jsonReport{
		RunID:           r.RunID,
		Algorithm:       string(r.Algorithm),
		BlockSize:       r.BlockSize,
		Files:           r.Files,
		TotalBlocks:     r.TotalBlocks,
		UniqueBlocks:    r.UniqueBlocks,
		DuplicateBlocks: r.DuplicateBlocks,
		TotalSizeMB:     Float(r.TotalSize),
		UniqueSizeMB:    Float(r.UniqueSize),
		DedupSizeMB:     Float(r.DedupSize),
		DedupRatio:      Float(r.Ratio),
	}
	if r.compressed() {
		size, ratio := Float(r.CompressedSize), Float(r.CompressionRatio)
		out.Compression = string(r.Compression)
		out.CompressedSizeMB = &size
		out.CompressionRatio = &ratio
	}
	if blocks {
		out.Blocks = make([]jsonBlock, 0, len(r.entries))
		for _, e := range r.entries {
			out.Blocks = append(out.Blocks, jsonBlock{Digest: e.Digest, Hits: e.Count})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Round2 rounds to two decimals from the exact binary value of x, ties to
// even.
func Round2(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// formatFloat prints the shortest representation that round-trips, always
// with a fractional part ("1.0", "0.125") and "inf" for infinity.
func formatFloat(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	case math.IsNaN(x):
		return "nan"
	}

	if ax := math.Abs(x); ax != 0 && (ax < 1e-4 || ax >= 1e16) {
		return strconv.FormatFloat(x, 'e', -1, 64)
	}

	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
