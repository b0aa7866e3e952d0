package console

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRLFWriter(t *testing.T) {
	var out bytes.Buffer
	w := NewCRLFWriter(&out)

	n, err := w.Write([]byte("one\ntwo\r\nthree"))
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	_, _ = w.Write([]byte("\r"))
	_, _ = w.Write([]byte("\n\n"))

	assert.Equal(t, "one\r\ntwo\r\nthree\r\n\r\n", out.String())
}

func TestCRLFWriterUnderSlog(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(NewCRLFWriter(&out), nil))
	log.Info("first")
	log.Info("second")

	lines := bytes.Split(out.Bytes(), []byte("\r\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "msg=first")
	assert.Contains(t, string(lines[1]), "msg=second")
	assert.Empty(t, lines[2])
	assert.NotContains(t, string(lines[0]), "\n")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestCRLFWriterError(t *testing.T) {
	n, err := NewCRLFWriter(failWriter{}).Write([]byte("x\n"))
	assert.Error(t, err)
	assert.Zero(t, n)
}
