package chunker

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// minBuffer is the smallest read buffer a Chunker starts with.
const minBuffer = 64 * 1024

// Chunker splits a stream into fixed-size blocks. Every block is exactly
// size bytes except the last one, which may be shorter.
//
// The read buffer starts at the expected stream length and only grows up to
// size when the stream turns out longer, so a block size far above the input
// size costs no more memory than the input itself.
type Chunker struct {
	r    io.Reader
	size int64
	buf  []byte
	done bool
}

// NewChunker returns a Chunker producing blocks of size bytes. sizeHint is
// the expected stream length, negative when unknown.
func NewChunker(r io.Reader, size, sizeHint int64) (*Chunker, error) {
	if size <= 0 || size > math.MaxInt {
		return nil, fmt.Errorf("chunker: invalid block size %d", size)
	}

	initial := size
	if sizeHint >= 0 {
		initial = min(size, max(sizeHint, minBuffer))
	}

	return &Chunker{r: r, size: size, buf: make([]byte, initial)}, nil
}

// Next returns the next block, or io.EOF once the stream is exhausted.
// The returned slice is reused by the following call.
func (c *Chunker) Next() ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}

	n := 0
	for {
		m, err := io.ReadFull(c.r, c.buf[n:])
		n += m

		switch {
		case err == nil:
			if int64(len(c.buf)) == c.size {
				return c.buf, nil
			}
			c.grow()
		case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
			c.done = true
			if n == 0 {
				return nil, io.EOF
			}
			return c.buf[:n], nil
		default:
			return nil, err
		}
	}
}

// grow doubles the buffer, capped at the block size, keeping its contents.
func (c *Chunker) grow() {
	next := min(c.size, int64(len(c.buf))*2)
	buf := make([]byte, next)
	copy(buf, c.buf)
	c.buf = buf
}

// Count returns how many blocks a stream of n bytes splits into.
func Count(n, size int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
