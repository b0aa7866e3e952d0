package console

import (
	"bytes"
	"io"
	"sync"
)

// CRLFWriter writes to w with every bare LF turned into CRLF. Text sharing
// a terminal in raw mode with the engine goes through it.
type CRLFWriter struct {
	mu     sync.Mutex
	w      io.Writer
	lastCR bool
	buf    []byte
}

func NewCRLFWriter(w io.Writer) *CRLFWriter { return &CRLFWriter{w: w} }

// Write reports len(p) when the translated bytes were all written.
func (c *CRLFWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bytes.IndexByte(p, '\n') < 0 {
		n, err := c.w.Write(p)
		if n > 0 {
			c.lastCR = p[n-1] == '\r'
		}
		return n, err
	}
	c.buf = c.buf[:0]
	prevCR := c.lastCR
	for _, b := range p {
		if b == '\n' && !prevCR {
			c.buf = append(c.buf, '\r')
		}
		c.buf = append(c.buf, b)
		prevCR = b == '\r'
	}
	if _, err := c.w.Write(c.buf); err != nil {
		return 0, err
	}
	c.lastCR = prevCR
	return len(p), nil
}
