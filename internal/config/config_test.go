package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/lupppig/dedupcalc/internal/chunker"
	"github.com/lupppig/dedupcalc/internal/compress"
	apperrors "github.com/lupppig/dedupcalc/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"128k", 128 * 1024, false},
		{"128K", 128 * 1024, false},
		{"512b", 512, false},
		{"1B", 1, false},
		{"4m", 4 * 1024 * 1024, false},
		{"1G", 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"k", 0, true},
		{"128", 0, true},
		{"10X", 0, true},
		{"abck", 0, true},
		{"0k", 0, true},
		{"-4k", 0, true},
		{"1.5m", 0, true},
		{"99999999999999999g", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			size, err := ParseBlockSize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))
				assert.ErrorIs(t, err, ErrInvalidBlockSize)
				assert.Contains(t, err.Error(), "invalid block size unit: "+strconv.Quote(tt.input))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, size)
		})
	}
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestValidateFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", 100)
	b := writeFile(t, dir, "b.bin", 0)

	total, err := ValidateFiles([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, int64(100), total)
}

func TestValidateFiles_Missing(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", 10)
	missing := filepath.Join(dir, "missing.bin")

	_, err := ValidateFiles([]string{a, missing})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeInput))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "cannot access '"+missing+"'")
}

func TestValidateFiles_Directory(t *testing.T) {
	dir := t.TempDir()

	_, err := ValidateFiles([]string{dir})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeInput))
	assert.Contains(t, err.Error(), "not a regular file")
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("block_size", "b", DefaultBlockSize, "")
	flags.StringP("algorithm", "a", "md5", "")
	flags.StringP("compress", "c", "none", "")
	flags.IntP("jobs", "j", 1, "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.bin", 10)

	v, err := NewViper(newFlags())
	require.NoError(t, err)

	cfg, err := Load(v, []string{path})
	require.NoError(t, err)
	assert.Equal(t, int64(128*1024), cfg.BlockSize)
	assert.Equal(t, chunker.MD5, cfg.Algorithm)
	assert.Equal(t, compress.None, cfg.Compression)
	assert.Equal(t, 1, cfg.Jobs)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, []string{path}, cfg.Files)
	assert.Equal(t, int64(10), cfg.TotalBytes)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.bin", 10)
	t.Setenv("DEDUPCALC_BLOCK_SIZE", "4k")
	t.Setenv("DEDUPCALC_ALGORITHM", "sha256")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"-b", "1m", "-v"}))

	v, err := NewViper(flags)
	require.NoError(t, err)

	cfg, err := Load(v, []string{path})
	require.NoError(t, err)
	assert.Equal(t, int64(1024*1024), cfg.BlockSize, "flag wins over env")
	assert.Equal(t, chunker.SHA256, cfg.Algorithm, "env wins over default")
	assert.True(t, cfg.Verbose)
}

func TestLoad_BadBlockSizeBeforeFiles(t *testing.T) {
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"-b", "10X"}))
	v, err := NewViper(flags)
	require.NoError(t, err)

	_, err = Load(v, []string{"/does/not/exist"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))
	assert.Equal(t, `argument -b/--block_size: invalid block size unit: "10X"`, err.Error())
}

func TestLoad_InvalidEnvAlgorithm(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.bin", 10)
	t.Setenv("DEDUPCALC_ALGORITHM", "crc32")

	v, err := NewViper(newFlags())
	require.NoError(t, err)

	_, err = Load(v, []string{path})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))
}

func TestLoad_InvalidJobs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.bin", 10)
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"-j", "0"}))
	v, err := NewViper(flags)
	require.NoError(t, err)

	_, err = Load(v, []string{path})
	assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))
}
