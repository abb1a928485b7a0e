package compress

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input    string
		expected Algorithm
		wantErr  bool
	}{
		{"", None, false},
		{"none", None, false},
		{"gzip", Gzip, false},
		{"LZ4", Lz4, false},
		{"zstd", Zstd, false},
		{"brotli", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			algo, err := ParseAlgorithm(tt.input)
			if tt.wantErr {
				var unsupported ErrUnsupportedAlgo
				assert.ErrorAs(t, err, &unsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, algo)
		})
	}
}

func TestEstimator_None(t *testing.T) {
	e, err := NewEstimator(None)
	require.NoError(t, err)
	assert.False(t, e.Enabled())

	n, err := e.Size(make([]byte, 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)
}

func TestEstimator_CompressibleBlocks(t *testing.T) {
	zeros := make([]byte, 128*1024)

	for _, algo := range []Algorithm{Gzip, Lz4, Zstd} {
		t.Run(string(algo), func(t *testing.T) {
			e, err := NewEstimator(algo)
			require.NoError(t, err)
			assert.True(t, e.Enabled())

			first, err := e.Size(zeros)
			require.NoError(t, err)
			assert.Greater(t, first, int64(0))
			assert.Less(t, first, int64(len(zeros)/10))

			// Encoder state is reset between blocks.
			second, err := e.Size(zeros)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestEstimator_RandomBlocksDoNotShrink(t *testing.T) {
	block := make([]byte, 64*1024)
	_, err := rand.Read(block)
	require.NoError(t, err)

	for _, algo := range []Algorithm{Gzip, Lz4, Zstd} {
		e, err := NewEstimator(algo)
		require.NoError(t, err)

		n, err := e.Size(block)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(len(block))*9/10, string(algo))
	}
}

func TestEstimator_Unsupported(t *testing.T) {
	_, err := NewEstimator("brotli")
	assert.Error(t, err)
}

func TestByteCounter(t *testing.T) {
	var bc ByteCounter
	n, err := bc.Write(bytes.Repeat([]byte("x"), 42))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, int64(42), bc.Count)
}
