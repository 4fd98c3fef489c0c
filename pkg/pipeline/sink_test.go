package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterSink(t *testing.T) {
	var out bytes.Buffer
	p := NewPipeline(FormatJSON, &WriterSink{W: &out})
	p.SendNumeric("vehicle_speed", 42)
	assert.Equal(t, "{\"name\":\"vehicle_speed\",\"value\":42}\r\n", out.String())
}

func TestBufferedSink(t *testing.T) {
	var out bytes.Buffer
	sink := NewBufferedSink(&out, 128)

	sink.SendMessage([]byte("first\r\n"))
	sink.SendMessage([]byte("second\r\n"))
	assert.Equal(t, 0, out.Len())

	assert.NoError(t, sink.Flush())
	assert.Equal(t, "first\r\nsecond\r\n", out.String())

	// Nothing left after a flush
	assert.NoError(t, sink.Flush())
	assert.Equal(t, "first\r\nsecond\r\n", out.String())
}

func TestBufferedSinkDropsWholeMessages(t *testing.T) {
	var out bytes.Buffer
	sink := NewBufferedSink(&out, 16)

	sink.SendMessage([]byte("0123456789"))
	// Does not fit anymore, dropped as a whole
	sink.SendMessage([]byte("abcdefghij"))

	assert.NoError(t, sink.Flush())
	assert.Equal(t, "0123456789", out.String())
}
