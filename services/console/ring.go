package console

import (
	"io"

	"biasboard-go/x/shmring"
)

// RingStream reads operator input from a shmring.Ring fed by another party
// (a script, a test, a UART callback) and writes output to out.
type RingStream struct {
	in  *shmring.Ring
	out io.Writer
}

func NewRingStream(in *shmring.Ring, out io.Writer) *RingStream {
	return &RingStream{in: in, out: out}
}

func (r *RingStream) Available() bool { return r.in.Available() > 0 }

// ReadByte blocks until a byte is buffered. It returns io.EOF once the ring
// is closed and drained.
func (r *RingStream) ReadByte() (byte, error) {
	for {
		if b, ok := r.in.Get(); ok {
			return b, nil
		}
		select {
		case <-r.in.Readable():
		case <-r.in.Done():
			if b, ok := r.in.Get(); ok {
				return b, nil
			}
			return 0, io.EOF
		}
	}
}

func (r *RingStream) Write(p []byte) (int, error) { return r.out.Write(p) }
