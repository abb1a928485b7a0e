package dedup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lupppig/dedupcalc/internal/chunker"
	"github.com/lupppig/dedupcalc/internal/compress"
	apperrors "github.com/lupppig/dedupcalc/internal/errors"
	"github.com/lupppig/dedupcalc/internal/logger"
	"github.com/vbauerster/mpb/v8"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	BlockSize   int64
	Algorithm   chunker.Algorithm
	Compression compress.Algorithm
	// Jobs is the number of files hashed at once. Values below 2 hash
	// sequentially into a single table.
	Jobs     int
	Progress *mpb.Bar
	Logger   *logger.Logger
}

type Analyzer struct {
	opts Options
	log  *logger.Logger
}

func NewAnalyzer(opts Options) (*Analyzer, error) {
	if opts.BlockSize <= 0 {
		return nil, apperrors.New(apperrors.TypeConfig, fmt.Sprintf("block size must be positive, got %d", opts.BlockSize))
	}
	if opts.Algorithm == "" {
		opts.Algorithm = chunker.MD5
	}
	if opts.Compression == "" {
		opts.Compression = compress.None
	}
	l := opts.Logger
	if l == nil {
		l = logger.Discard()
	}
	return &Analyzer{opts: opts, log: l}, nil
}

// Run streams every file block by block and returns the accumulated table.
// Any failure aborts the whole run; no partial table is returned.
func (a *Analyzer) Run(ctx context.Context, files []string) (*Table, error) {
	start := time.Now()

	var (
		table *Table
		err   error
	)
	if a.opts.Jobs > 1 && len(files) > 1 {
		table, err = a.runParallel(ctx, files)
	} else {
		table, err = a.runSequential(ctx, files)
	}
	if err != nil {
		return nil, err
	}

	a.log.Debug("Hashing finished",
		"files", len(files),
		"blocks", table.Total(),
		"unique", table.Unique(),
		"duration", time.Since(start).String(),
	)
	return table, nil
}

func (a *Analyzer) runSequential(ctx context.Context, files []string) (*Table, error) {
	table := NewTable()
	w, err := a.newWorker()
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		if err := w.hashFile(ctx, path, table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func (a *Analyzer) runParallel(ctx context.Context, files []string) (*Table, error) {
	tables := make([]*Table, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Jobs)

	for i, path := range files {
		g.Go(func() error {
			w, err := a.newWorker()
			if err != nil {
				return err
			}
			t := NewTable()
			if err := w.hashFile(gctx, path, t); err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := NewTable()
	for _, t := range tables {
		table.Merge(t)
	}
	return table, nil
}

type worker struct {
	a      *Analyzer
	hasher *chunker.Hasher
	est    *compress.Estimator
}

func (a *Analyzer) newWorker() (*worker, error) {
	est, err := compress.NewEstimator(a.opts.Compression)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TypeConfig, "compression estimate")
	}
	return &worker{
		a:      a,
		hasher: chunker.NewHasher(a.opts.Algorithm),
		est:    est,
	}, nil
}

func (w *worker) hashFile(ctx context.Context, path string, t *Table) error {
	l := w.a.log.With("file", path)

	f, err := os.Open(path)
	if err != nil {
		return readError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return readError(path, err)
	}

	var r io.Reader = f
	if w.a.opts.Progress != nil {
		r = NewProgressReader(f, w.a.opts.Progress)
	}

	c, err := chunker.NewChunker(r, w.a.opts.BlockSize, info.Size())
	if err != nil {
		return apperrors.Wrap(err, apperrors.TypeConfig, "argument -b/--block_size")
	}
	var blocks, bytesRead int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		block, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return readError(path, err)
		}

		blocks++
		bytesRead += int64(len(block))

		digest := w.hasher.Sum(block)
		if t.Add(digest, len(block)) && w.est.Enabled() {
			n, err := w.est.Size(block)
			if err != nil {
				return apperrors.Wrap(err, apperrors.TypeInternal, fmt.Sprintf("error compressing block of '%s'", path))
			}
			t.SetStored(digest, n)
		}
	}

	l.Debug("File hashed", "blocks", blocks, "size", humanize.IBytes(uint64(bytesRead)))
	return nil
}

func readError(path string, err error) error {
	return apperrors.Wrap(err, apperrors.TypeIO, fmt.Sprintf("error reading file '%s'", path))
}
