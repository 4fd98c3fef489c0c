package fifo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteRead(t *testing.T) {
	f := NewFifo(16)
	assert.Equal(t, 15, f.GetSpace())
	assert.Equal(t, 0, f.GetOccupied())

	n := f.Write([]byte("hello"))
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, f.GetOccupied())
	assert.Equal(t, 10, f.GetSpace())

	out := make([]byte, 5)
	n = f.Read(out)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), out)
	assert.Equal(t, 0, f.GetOccupied())
}

func TestWriteFull(t *testing.T) {
	f := NewFifo(8)
	// One slot is kept free to distinguish full from empty
	n := f.Write([]byte("12345678"))
	assert.Equal(t, 7, n)
	assert.Equal(t, 0, f.GetSpace())

	n = f.Write([]byte("x"))
	assert.Equal(t, 0, n)
}

func TestWrapAround(t *testing.T) {
	f := NewFifo(8)
	out := make([]byte, 4)

	f.Write([]byte("abcd"))
	f.Read(out)
	// Writing again wraps around the end of the buffer
	n := f.Write([]byte("efghij"))
	assert.Equal(t, 6, n)

	long := make([]byte, 6)
	n = f.Read(long)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte("efghij"), long)
}

func TestReset(t *testing.T) {
	f := NewFifo(8)
	f.Write([]byte("abc"))
	f.Reset()
	assert.Equal(t, 0, f.GetOccupied())
	assert.Equal(t, 0, f.Read(make([]byte, 3)))
}
