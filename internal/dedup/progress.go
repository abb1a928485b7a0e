package dedup

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressReader tracks bytes read and updates an mpb.Bar. A nil bar is
// allowed.
type ProgressReader struct {
	r   io.Reader
	bar *mpb.Bar
}

func NewProgressReader(r io.Reader, bar *mpb.Bar) *ProgressReader {
	return &ProgressReader{r: r, bar: bar}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 && pr.bar != nil {
		pr.bar.IncrBy(n)
	}
	return n, err
}

func NewProgressContainer(w io.Writer) *mpb.Progress {
	return mpb.New(mpb.WithOutput(w), mpb.WithWidth(64))
}

func AddHashBar(p *mpb.Progress, total int64) *mpb.Bar {
	if p == nil {
		return nil
	}
	name := "hashing"
	return p.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(), "DONE"),
		),
	)
}

// FinishBar completes bar on success and aborts it otherwise, so that
// Progress.Wait always returns.
func FinishBar(bar *mpb.Bar, err error) {
	if bar == nil {
		return
	}
	if err == nil {
		bar.SetTotal(-1, true)
		if bar.Completed() {
			return
		}
	}
	bar.Abort(false)
}
