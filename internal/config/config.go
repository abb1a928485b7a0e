package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lupppig/dedupcalc/internal/chunker"
	"github.com/lupppig/dedupcalc/internal/compress"
	apperrors "github.com/lupppig/dedupcalc/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix        = "DEDUPCALC"
	DefaultBlockSize = "128k"
)

// Config is the resolved, immutable input of one run.
type Config struct {
	Files       []string
	BlockSize   int64
	Algorithm   chunker.Algorithm
	Compression compress.Algorithm
	Verbose     bool
	JSON        bool
	Progress    bool
	Jobs        int
	Debug       bool
	LogJSON     bool
	NoColor     bool

	// TotalBytes is the combined size of Files at validation time.
	TotalBytes int64
}

// NewViper binds flags and DEDUPCALC_* environment variables. An explicitly
// set flag wins over the environment, which wins over the flag default.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("block_size", DefaultBlockSize)
	v.SetDefault("algorithm", string(chunker.MD5))
	v.SetDefault("compress", string(compress.None))
	v.SetDefault("jobs", 1)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	return v, nil
}

// Load resolves the run configuration. Every check happens here, before a
// single block is read: block size, algorithm, compression, jobs and finally
// the input files.
func Load(v *viper.Viper, files []string) (*Config, error) {
	blockSize, err := ParseBlockSize(v.GetString("block_size"))
	if err != nil {
		return nil, err
	}

	algo, err := chunker.ParseAlgorithm(v.GetString("algorithm"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TypeConfig, "argument -a/--algorithm")
	}

	comp, err := compress.ParseAlgorithm(v.GetString("compress"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.TypeConfig, "argument -c/--compress")
	}

	jobs := v.GetInt("jobs")
	if jobs < 1 {
		return nil, apperrors.New(apperrors.TypeConfig, fmt.Sprintf("argument -j/--jobs: must be at least 1, got %d", jobs))
	}

	if len(files) == 0 {
		return nil, apperrors.New(apperrors.TypeConfig, "at least one file is required")
	}

	total, err := ValidateFiles(files)
	if err != nil {
		return nil, err
	}

	return &Config{
		Files:       append([]string(nil), files...),
		BlockSize:   blockSize,
		Algorithm:   algo,
		Compression: comp,
		Verbose:     v.GetBool("verbose"),
		JSON:        v.GetBool("json"),
		Progress:    v.GetBool("progress"),
		Jobs:        jobs,
		Debug:       v.GetBool("debug"),
		LogJSON:     v.GetBool("log-json"),
		NoColor:     v.GetBool("no-color"),
		TotalBytes:  total,
	}, nil
}

var ErrInvalidBlockSize = errors.New("invalid block size unit")

var units = map[byte]int64{
	'b': 1,
	'k': 1024,
	'm': 1024 * 1024,
	'g': 1024 * 1024 * 1024,
}

// ParseBlockSize parses "<positive integer><unit>" where unit is one of
// B, K, M, G in any case.
func ParseBlockSize(s string) (int64, error) {
	if len(s) < 2 {
		return 0, invalidBlockSize(s)
	}

	mult, ok := units[lower(s[len(s)-1])]
	if !ok {
		return 0, invalidBlockSize(s)
	}

	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || n <= 0 || n > math.MaxInt64/mult {
		return 0, invalidBlockSize(s)
	}

	size := n * mult
	if int64(int(size)) != size {
		return 0, invalidBlockSize(s)
	}
	return size, nil
}

func invalidBlockSize(s string) error {
	return apperrors.Wrap(fmt.Errorf("%w: %q", ErrInvalidBlockSize, s), apperrors.TypeConfig, "argument -b/--block_size")
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// ValidateFiles checks that every path is an existing, readable regular
// file and returns their combined size. It stops at the first failure.
func ValidateFiles(paths []string) (int64, error) {
	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return 0, inputError(path, err)
		}
		if !info.Mode().IsRegular() {
			return 0, apperrors.New(apperrors.TypeInput, fmt.Sprintf("cannot access '%s': not a regular file", path))
		}

		f, err := os.Open(path)
		if err != nil {
			return 0, inputError(path, err)
		}
		f.Close()

		total += info.Size()
	}
	return total, nil
}

func inputError(path string, err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return apperrors.Wrap(err, apperrors.TypeInput, fmt.Sprintf("cannot access '%s'", path))
}
