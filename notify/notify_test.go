package notify

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriter(&buf)
	n.Success("saved")
	n.Error("failed")
	assert.Equal(t, "✔ saved\n✘ failed\n", buf.String())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	n := Logger{L: log.New(&buf, "", 0)}
	n.Error("boom")
	assert.Equal(t, "error: boom\n", buf.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Success("a")
	r.Error("b")
	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, Message{Kind: KindError, Text: "b"}, last)
	assert.Len(t, r.Messages(), 2)
}
