package compress

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Algorithm string

const (
	Gzip Algorithm = "gzip"
	Lz4  Algorithm = "lz4"
	Zstd Algorithm = "zstd"
	None Algorithm = "none"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch algo := Algorithm(strings.ToLower(strings.TrimSpace(s))); algo {
	case "":
		return None, nil
	case Gzip, Lz4, Zstd, None:
		return algo, nil
	default:
		return "", ErrUnsupportedAlgo(s)
	}
}

// resetWriter is satisfied by the gzip, lz4 and zstd stream writers.
type resetWriter interface {
	io.WriteCloser
	Reset(io.Writer)
}

// Estimator compresses blocks one at a time and reports the compressed size
// of each. It holds a single encoder and is not safe for concurrent use;
// create one per worker.
type Estimator struct {
	algo    Algorithm
	enc     resetWriter
	counter ByteCounter
}

func NewEstimator(algo Algorithm) (*Estimator, error) {
	if algo == "" {
		algo = None
	}

	e := &Estimator{algo: algo}

	switch algo {
	case None:
	case Gzip:
		e.enc = gzip.NewWriter(&e.counter)
	case Lz4:
		e.enc = lz4.NewWriter(&e.counter)
	case Zstd:
		z, err := zstd.NewWriter(&e.counter, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		e.enc = z
	default:
		return nil, ErrUnsupportedAlgo(algo)
	}

	return e, nil
}

func (e *Estimator) Algorithm() Algorithm {
	return e.algo
}

// Enabled reports whether the estimator does any work.
func (e *Estimator) Enabled() bool {
	return e != nil && e.algo != None
}

// Size returns the number of bytes block occupies once compressed on its
// own. With None it returns len(block).
func (e *Estimator) Size(block []byte) (int64, error) {
	if !e.Enabled() {
		return int64(len(block)), nil
	}

	e.counter.Count = 0
	e.enc.Reset(&e.counter)

	if _, err := e.enc.Write(block); err != nil {
		return 0, fmt.Errorf("%s: %w", e.algo, err)
	}
	if err := e.enc.Close(); err != nil {
		return 0, fmt.Errorf("%s: %w", e.algo, err)
	}

	return e.counter.Count, nil
}

// ByteCounter counts bytes written to it and discards them.
type ByteCounter struct {
	Count int64
}

func (bc *ByteCounter) Write(p []byte) (int, error) {
	n := len(p)
	bc.Count += int64(n)
	return n, nil
}

type ErrUnsupportedAlgo Algorithm

func (e ErrUnsupportedAlgo) Error() string {
	return fmt.Sprintf("unsupported compression algorithm: %q (choose from none, gzip, zstd, lz4)", string(e))
}
