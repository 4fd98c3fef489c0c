package virtual

import (
	"testing"

	openvt "github.com/openvt/openvt"
	"github.com/stretchr/testify/assert"
)

type frameRecorder struct {
	frames []openvt.Frame
}

func (rec *frameRecorder) Handle(frame openvt.Frame) {
	rec.frames = append(rec.frames, frame)
}

func TestReceiveOwn(t *testing.T) {
	bus, err := NewVirtualCanBus("localhost:18888")
	assert.NoError(t, err)
	virtual := bus.(*VirtualCanBus)
	virtual.SetReceiveOwn(true)

	rec := &frameRecorder{}
	err = virtual.Subscribe(rec)
	assert.NoError(t, err)

	frame := openvt.NewFrame(0x110, 0, 8)
	frame.Data = [8]byte{0x12, 0x34, 0, 0, 0, 0, 0, 0}
	err = virtual.Send(frame)
	assert.NoError(t, err)

	assert.Len(t, rec.frames, 1)
	assert.Equal(t, uint32(0x110), rec.frames[0].ID)
	assert.Equal(t, frame.Data, rec.frames[0].Data)
}

func TestSendWithoutConnection(t *testing.T) {
	bus, _ := NewVirtualCanBus("localhost:18888")
	virtual := bus.(*VirtualCanBus)
	err := virtual.Send(openvt.NewFrame(0x100, 0, 8))
	assert.Error(t, err)
}

func TestSerializeRoundTrip(t *testing.T) {
	frame := openvt.NewFrame(0x3F0, 0, 8)
	frame.Data = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	frameBytes, err := serializeFrame(frame)
	assert.NoError(t, err)
	decoded, err := deserializeFrame(frameBytes[4:])
	assert.NoError(t, err)
	assert.Equal(t, frame, *decoded)
}
