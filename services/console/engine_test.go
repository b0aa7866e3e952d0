package console

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"biasboard-go/x/shmring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted is an in-memory Stream.
type scripted struct {
	in  []byte
	out bytes.Buffer
}

func newScripted(in string) *scripted { return &scripted{in: []byte(in)} }

func (s *scripted) Available() bool { return len(s.in) > 0 }
func (s *scripted) ReadByte() (byte, error) {
	if len(s.in) == 0 {
		return 0, io.EOF
	}
	b := s.in[0]
	s.in = s.in[1:]
	return b, nil
}
func (s *scripted) Write(p []byte) (int, error) { return s.out.Write(p) }

func TestCharsetMembership(t *testing.T) {
	accepted := map[Charset]string{
		Alpha:          " abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
		AlphaNumeric:   " abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.-:",
		NumericInteger: "0123456789-",
		NumericDecimal: "0123456789-.",
	}
	for cs, set := range accepted {
		for b := 0; b < 256; b++ {
			want := strings.IndexByte(set, byte(b)) >= 0
			assert.Equal(t, want, cs.Accepts(byte(b)), "%s accepts 0x%02x", cs, b)
		}
	}
}

func TestReadLineDropsBytesOutsideCharset(t *testing.T) {
	for _, cs := range []Charset{Alpha, AlphaNumeric, NumericInteger, NumericDecimal} {
		var rejected []byte
		for b := 0; b < 256; b++ {
			switch byte(b) {
			case keyCR, keyLF, keyBackspace, keyDelete:
				continue
			}
			if !cs.Accepts(byte(b)) {
				rejected = append(rejected, byte(b))
			}
		}
		s := newScripted(string(rejected) + "\r")
		got, err := New(s).ReadLine(cs)
		require.NoError(t, err)
		assert.Empty(t, got, cs.String())
		assert.Equal(t, Newline, s.out.String(), "only the line end is echoed for %s", cs)
	}
}

func TestReadLineEcho(t *testing.T) {
	s := newScripted("a!b\r")
	got, err := New(s).ReadLine(Alpha)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
	assert.Equal(t, "ab\r\n", s.out.String())
}

func TestBackspaceAndDelete(t *testing.T) {
	s := newScripted("\b\x7fab\bc\x7f\x7fd\n")
	got, err := New(s).ReadLine(Alpha)
	require.NoError(t, err)
	assert.Equal(t, "d", got)
	assert.Equal(t, "ab\b \bc\b \b\b \bd\r\n", s.out.String())
}

func TestBackspaceOnEmptyLineIsNoop(t *testing.T) {
	s := newScripted("\b\b\x7f\r")
	got, err := New(s).ReadLine(AlphaNumeric)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, Newline, s.out.String())
}

func TestEitherTerminatorEndsLine(t *testing.T) {
	for _, in := range []string{"abc\r", "abc\n"} {
		got, err := New(newScripted(in)).ReadLine(Alpha)
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
	}
}

func TestLFAfterCRBelongsToTerminator(t *testing.T) {
	e := New(newScripted("12\r\n34\r\n\n"))
	a, _ := e.ReadInt()
	b, _ := e.ReadInt()
	c, err := e.ReadLine(AlphaNumeric)
	require.NoError(t, err)
	assert.Equal(t, 12, a)
	assert.Equal(t, 34, b)
	assert.Empty(t, c, "a bare LF after a CRLF line is an empty line")
}

func TestPendingIgnoresLFOfCRLF(t *testing.T) {
	s := newScripted("go\r\n")
	e := New(s)
	got, err := e.ReadAlpha()
	require.NoError(t, err)
	assert.Equal(t, "go", got)

	assert.False(t, e.Pending(), "the LF of the terminator is not input")
	assert.False(t, s.Available())
}

func TestPendingKeepsReadAheadByte(t *testing.T) {
	e := New(newScripted("go\rxy\r"))
	_, err := e.ReadAlpha()
	require.NoError(t, err)

	assert.True(t, e.Pending())
	assert.True(t, e.Pending(), "polling twice does not lose the byte")
	got, err := e.ReadAlpha()
	require.NoError(t, err)
	assert.Equal(t, "xy", got)
}

func TestPendingSeesInputAfterCRLF(t *testing.T) {
	e := New(newScripted("go\r\nq"))
	_, err := e.ReadAlpha()
	require.NoError(t, err)
	assert.True(t, e.Pending())

	e.Discard()
	assert.False(t, e.Pending())
}

func TestTypedAccessorsNeverFailOnMalformedInput(t *testing.T) {
	e := New(newScripted("\r-\r-12\r3.25\r.\rx9\r"))
	for _, want := range []int{0, 0, -12} {
		got, err := e.ReadInt()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, want := range []float64{3.25, 0, 9} {
		got, err := e.ReadDouble()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEchoOffProducesNoOutput(t *testing.T) {
	s := newScripted("ab\bc\r")
	e := New(s)
	e.SetEcho(false)
	got, err := e.ReadAlphaNumeric()
	require.NoError(t, err)
	assert.Equal(t, "ac", got)
	assert.Zero(t, s.out.Len())
}

func TestReadLineReturnsPartialOnEOF(t *testing.T) {
	got, err := New(newScripted("conn")).ReadAlpha()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "conn", got)
}

func TestDiscardDropsPendingInput(t *testing.T) {
	s := newScripted("xyz\r")
	e := New(s)
	assert.True(t, e.Pending())
	e.Discard()
	assert.False(t, e.Pending())
}

func TestRingStreamBlocksUntilFed(t *testing.T) {
	ring := shmring.New(64)
	var out bytes.Buffer
	e := New(NewRingStream(ring, &out))
	e.SetEcho(false)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = ring.Write([]byte("set-pin 3 1\r"))
		ring.Close()
	}()

	got, err := e.ReadAlphaNumeric()
	require.NoError(t, err)
	assert.Equal(t, "set-pin 3 1", got)

	_, err = e.ReadAlphaNumeric()
	assert.ErrorIs(t, err, io.EOF)
}
