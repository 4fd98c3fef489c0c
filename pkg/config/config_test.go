package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleDefinitions = []byte(`
[bus.1]
name      = hs
interface = socketcan
channel   = can0

[msg.1.0x620]
name               = obd_passthrough
max_frequency_hz   = 10
force_send_changed = true

[sig.1.0x110.vehicle_speed]
bit_position     = 8
bit_size         = 16
factor           = 0.01
offset           = 0
max_frequency_hz = 5

[sig.1.0x3F0.turn_signal_status]
bit_position = 0
bit_size     = 8
handler      = state
send_same    = true
states       = off=0, left=1, right=2
`)

func TestParse(t *testing.T) {
	defs, err := Parse(sampleDefinitions)
	assert.NoError(t, err)

	assert.Len(t, defs.Buses, 1)
	bus := defs.Buses[0]
	assert.Equal(t, uint8(1), bus.Address)
	assert.Equal(t, "hs", bus.Name)
	assert.Equal(t, "socketcan", bus.Interface)
	assert.Equal(t, "can0", bus.Channel)

	assert.Len(t, defs.Messages, 1)
	message := defs.Messages[0]
	assert.Equal(t, uint32(0x620), message.ID)
	assert.Equal(t, 10.0, message.MaxFrequency)
	assert.True(t, message.ForceSendChanged)

	assert.Len(t, defs.Signals, 2)
	speed := defs.Signals[0]
	assert.Equal(t, "vehicle_speed", speed.GenericName)
	assert.Equal(t, uint32(0x110), speed.MessageID)
	assert.Equal(t, uint8(8), speed.BitPosition)
	assert.Equal(t, uint8(16), speed.BitSize)
	assert.Equal(t, 0.01, speed.Factor)
	assert.Equal(t, 5.0, speed.MaxFrequency)
	// Defaults
	assert.Equal(t, "", speed.Handler)
	assert.False(t, speed.SendSame)

	turn := defs.Signals[1]
	assert.Equal(t, "turn_signal_status", turn.GenericName)
	assert.Equal(t, "state", turn.Handler)
	assert.True(t, turn.SendSame)
	// State order is preserved
	assert.Len(t, turn.States, 3)
	assert.Equal(t, "off", turn.States[0].Name)
	assert.Equal(t, 0.0, turn.States[0].Value)
	assert.Equal(t, "right", turn.States[2].Name)
	assert.Equal(t, 2.0, turn.States[2].Value)
}

func TestParseRejectsBadFields(t *testing.T) {
	_, err := Parse([]byte("[sig.1.0x110.bad]\nbit_position = 60\nbit_size = 16\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("[sig.1.0x110.bad]\nbit_position = 0\nbit_size = 0\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("[sig.1.0x110.bad]\nbit_position = 0\nbit_size = 8\nstates = broken\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("[msg.1.0xZZ]\n"))
	assert.NoError(t, err) // unrecognized section name, warned and skipped
}

func TestParseMissingBitFields(t *testing.T) {
	_, err := Parse([]byte("[sig.1.0x110.missing]\nfactor = 1\n"))
	assert.Error(t, err)
}
