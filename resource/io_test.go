package resource

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedWriterPassesThroughUnlimited(t *testing.T) {
	var buf bytes.Buffer
	w := NewRateLimitedWriter(&buf, nil, context.Background())

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestRateLimitedReaderPassesThroughUnlimited(t *testing.T) {
	r := NewRateLimitedReader(bytes.NewReader([]byte("hello")), nil, context.Background())

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestRateLimitedWriterRespectsController(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	var buf bytes.Buffer
	w := NewRateLimitedWriter(&buf, c, context.Background())

	n, err := w.Write([]byte("snapshot bytes"))
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	assert.Equal(t, "snapshot bytes", buf.String())
}

func TestRateLimitedWriterCanceledContext(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1})
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewRateLimitedWriter(&buf, c, ctx)
	_, err := w.Write(bytes.Repeat([]byte("x"), 1<<20))
	assert.Error(t, err)
}
