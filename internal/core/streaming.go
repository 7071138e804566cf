package core

// streaming.go holds the io.Reader wrappers that prepare uploaded CSV bytes
// for encoding/csv:
//
//   - bomReader drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Excel
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - countingReader records how many bytes the parser consumed
//
// sanitizeInput applies them in that order.

import (
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader skips a UTF-8 BOM at the start of the stream.
type bomReader struct {
	r       io.Reader
	checked bool
	head    []byte
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		buf := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(b.r, buf)
		switch {
		case err == io.ErrUnexpectedEOF || err == io.EOF:
			// Short stream: nothing to skip, replay what was read.
		case err != nil:
			return 0, err
		}
		if n == len(utf8BOM) && bytes.Equal(buf, utf8BOM) {
			b.head = nil
		} else {
			b.head = buf[:n]
		}
	}

	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces bytes that are not valid UTF-8 with '?'.
// Multi-byte sequences split across reads are carried to the next call.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	off := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[off:])
	n += off
	if n == 0 {
		return 0, err
	}

	data := p[:n]
	atEOF := err == io.EOF

	// Fast path: everything ASCII or already valid with no split tail.
	if utf8.Valid(data) {
		return n, err
	}

	w := 0
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			data[w] = data[i]
			w++
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(data[i:]) {
				// Possibly the start of a rune cut off by the read boundary.
				s.pending = append(s.pending, data[i:]...)
				break
			}
			data[w] = '?'
			w++
			i++
			continue
		}
		copy(data[w:], data[i:i+size])
		w += size
		i += size
	}

	if w == 0 && err == nil {
		// Everything went to pending; ask again rather than return (0, nil).
		return s.Read(p)
	}
	return w, err
}

// countingReader tracks bytes read for logging.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// sanitizeInput wraps raw upload bytes. BOM removal must come before
// sanitizing, and counting wraps the result.
func sanitizeInput(data []byte) *countingReader {
	return &countingReader{r: newUTF8Sanitizer(newBOMReader(bytes.NewReader(data)))}
}
