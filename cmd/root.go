package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/lupppig/dedupcalc/internal/chunker"
	"github.com/lupppig/dedupcalc/internal/compress"
	"github.com/lupppig/dedupcalc/internal/config"
	"github.com/lupppig/dedupcalc/internal/dedup"
	"github.com/lupppig/dedupcalc/internal/logger"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
)

const Name = "dedupcalc"

func newRootCmd() *cobra.Command {
	algorithm := chunker.MD5

	rootCmd := &cobra.Command{
		Use:   Name + " [flags] FILE...",
		Short: "Calculate deduplication statistics for provided files.",
		Long: `dedupcalc estimates how much space fixed-size block deduplication would save
across a set of files. Every file is split into blocks of --block_size bytes,
each block is hashed, and identical digests are counted as duplicates no
matter which file they came from. Nothing is written or stored; the result is
a report of unique vs duplicated blocks, their sizes and the deduplication
ratio.

Flags can also be set through DEDUPCALC_* environment variables
(e.g. DEDUPCALC_BLOCK_SIZE=256k); command-line flags take precedence.`,
		Example:       "  dedupcalc file1.txt file2.txt -b 256K -v -a sha256",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAnalyze,
	}

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(versionTemplate())

	flags := rootCmd.Flags()
	flags.StringP("block_size", "b", config.DefaultBlockSize, "block size. Acceptable units: B (bytes), K (kilobytes), M (megabytes), G (gigabytes)")
	flags.VarP(&algorithm, "algorithm", "a", "hashing algorithm (md5 or sha256)")
	flags.BoolP("verbose", "v", false, "display the block hash table before the summary")
	flags.StringP("compress", "c", string(compress.None), "also estimate compression of unique blocks (none, gzip, zstd, lz4)")
	flags.IntP("jobs", "j", 1, "number of files hashed concurrently")
	flags.Bool("json", false, "print the report as JSON")
	flags.Bool("progress", false, "show a progress bar on stderr")
	flags.Bool("debug", false, "enable debug logging on stderr")
	flags.Bool("log-json", false, "emit logs as JSON")
	flags.Bool("no-color", false, "disable colored output")

	return rootCmd
}

var rootCmd = newRootCmd()

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return err
	}

	cfg, err := config.Load(v, args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}

	runID := uuid.NewString()
	l := logger.New(logger.Config{
		Writer:  cmd.ErrOrStderr(),
		JSON:    cfg.LogJSON,
		NoColor: cfg.NoColor || !isTerminal(cmd.ErrOrStderr()),
		Level:   level,
	}).With("run_id", runID)
	ctx := logger.WithContext(cmd.Context(), l)

	l.Debug("Analysis started",
		"files", len(cfg.Files),
		"input", humanize.IBytes(uint64(cfg.TotalBytes)),
		"block_size", humanize.IBytes(uint64(cfg.BlockSize)),
		"algorithm", cfg.Algorithm,
		"compress", cfg.Compression,
		"jobs", cfg.Jobs,
	)

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)
	if cfg.Progress && isTerminal(cmd.ErrOrStderr()) {
		progress = dedup.NewProgressContainer(cmd.ErrOrStderr())
		bar = dedup.AddHashBar(progress, cfg.TotalBytes)
	}

	analyzer, err := dedup.NewAnalyzer(dedup.Options{
		BlockSize:   cfg.BlockSize,
		Algorithm:   cfg.Algorithm,
		Compression: cfg.Compression,
		Jobs:        cfg.Jobs,
		Progress:    bar,
		Logger:      l,
	})
	if err != nil {
		return err
	}

	table, err := analyzer.Run(ctx, cfg.Files)
	dedup.FinishBar(bar, err)
	if progress != nil {
		progress.Wait()
	}
	if err != nil {
		l.Debug("Analysis failed", "error", err)
		return err
	}

	report := dedup.NewReport(table, dedup.ReportOptions{
		RunID:       runID,
		BlockSize:   cfg.BlockSize,
		Files:       len(cfg.Files),
		Algorithm:   cfg.Algorithm,
		Compression: cfg.Compression,
	})

	out := cmd.OutOrStdout()
	if cfg.JSON {
		return report.WriteJSON(out, cfg.Verbose)
	}
	if cfg.Verbose {
		if err := report.WriteTable(out, !cfg.NoColor && isTerminal(out)); err != nil {
			return err
		}
	}
	return report.WriteText(out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
