package translate

import (
	"strings"
	"testing"
	"time"

	openvt "github.com/openvt/openvt"
	"github.com/openvt/openvt/pkg/pipeline"
	"github.com/openvt/openvt/pkg/signals"
	"github.com/stretchr/testify/assert"
)

type memorySink struct {
	messages []string
}

func (s *memorySink) SendMessage(data []byte) {
	s.messages = append(s.messages, string(data))
}

var testBus = signals.Bus{Address: 1, Name: "hs"}

func newTestTranslator(t *testing.T, defs []*signals.Signal, messages []signals.Message) (*Translator, *memorySink) {
	t.Helper()
	sink := &memorySink{}
	translator := NewTranslator(testBus, defs, messages, pipeline.NewPipeline(pipeline.FormatJSON, sink))
	return translator, sink
}

// Frame with the given bytes as payload, missing bytes zero.
func frameWith(id uint32, bytes ...byte) openvt.Frame {
	frame := openvt.NewFrame(id, 0, 8)
	copy(frame.Data[:], bytes)
	return frame
}

func TestDecode(t *testing.T) {
	signal := &signals.Signal{BitPosition: 0, BitSize: 8, Factor: 1, Offset: 0}
	assert.Equal(t, 100.0, Decode(signal, 0x6400000000000000))

	scaled := &signals.Signal{BitPosition: 8, BitSize: 8, Factor: 0.5, Offset: -10}
	// Raw 0x40 = 64 -> 64*0.5 - 10 = 22
	assert.Equal(t, 22.0, Decode(scaled, 0x0040000000000000))
}

func TestFirstDecodeAlwaysSends(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "vehicle_speed",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
		MaxFrequency: 1,
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)

	translator.Handle(frameWith(0x110, 0x64))
	assert.Len(t, sink.messages, 1)
	assert.Equal(t, "{\"name\":\"vehicle_speed\",\"value\":100}\r\n", sink.messages[0])

	state := &translator.states[0]
	assert.True(t, state.received)
	assert.Equal(t, 100.0, state.lastValue)
}

func TestUnchangedValueSuppressedBeforeTick(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "vehicle_speed",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
		MaxFrequency: 1, // 1s interval, never due within this test
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)

	translator.Handle(frameWith(0x110, 0x64))
	translator.Handle(frameWith(0x110, 0x64))
	assert.Len(t, sink.messages, 1)
	// Last value sticks to the latest sample even without emission
	assert.Equal(t, 100.0, translator.states[0].lastValue)
}

func TestForceSendChangedBypassesClock(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "vehicle_speed",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
		MaxFrequency:     1,
		ForceSendChanged: true,
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)

	translator.Handle(frameWith(0x110, 0x64))
	// Clock not due, but value changed
	translator.Handle(frameWith(0x110, 0x65))
	assert.Len(t, sink.messages, 2)
	assert.Equal(t, "{\"name\":\"vehicle_speed\",\"value\":101}\r\n", sink.messages[1])

	// Unchanged value is still suppressed
	translator.Handle(frameWith(0x110, 0x65))
	assert.Len(t, sink.messages, 2)
}

func TestSendSameResendsUnchanged(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "engine_running",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
		SendSame: true, // unthrottled clock, always due
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)

	translator.Handle(frameWith(0x110, 0x64))
	translator.Handle(frameWith(0x110, 0x64))
	assert.Len(t, sink.messages, 2)
}

func TestTickDueSendsChangedValue(t *testing.T) {
	now := time.Now()
	signal := &signals.Signal{
		GenericName: "vehicle_speed",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
		MaxFrequency: 10,
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)
	translator.SetTimeFunc(func() time.Time { return now })

	translator.Handle(frameWith(0x110, 0x64))
	assert.Len(t, sink.messages, 1)

	// Changed value before the tick is due : suppressed without
	// ForceSendChanged
	translator.Handle(frameWith(0x110, 0x65))
	assert.Len(t, sink.messages, 1)

	// Once the interval elapsed the changed value goes out
	now = now.Add(200 * time.Millisecond)
	translator.Handle(frameWith(0x110, 0x66))
	assert.Len(t, sink.messages, 2)
	assert.Equal(t, "{\"name\":\"vehicle_speed\",\"value\":102}\r\n", sink.messages[1])
}

func TestReceivedAndLastValueSurviveHandlerVeto(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "internal_counter",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
		Handler: "ignore",
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)

	translator.Handle(frameWith(0x110, 0x64))
	assert.Empty(t, sink.messages)

	// The gate ran and marked the signal received, the handler veto only
	// suppressed emission
	state := &translator.states[0]
	assert.True(t, state.received)
	assert.Equal(t, 100.0, state.lastValue)
}

func TestBooleanSignal(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "brake_pedal_status",
		BusAddress:  1, MessageID: 0x224,
		BitPosition: 4, BitSize: 1, Factor: 1,
		Handler:  "boolean",
		SendSame: true,
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)

	translator.Handle(frameWith(0x224, 0x08)) // bit 4 set
	translator.Handle(frameWith(0x224, 0x00))
	assert.Equal(t, []string{
		"{\"name\":\"brake_pedal_status\",\"value\":true}\r\n",
		"{\"name\":\"brake_pedal_status\",\"value\":false}\r\n",
	}, sink.messages)
}

func TestStateSignal(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "turn_signal_status",
		BusAddress:  1, MessageID: 0x3F0,
		BitPosition: 0, BitSize: 8, Factor: 1,
		Handler:  "state",
		SendSame: true,
		States: []signals.SignalState{
			{Name: "off", Value: 0},
			{Name: "left", Value: 1},
			{Name: "right", Value: 2},
		},
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)

	translator.Handle(frameWith(0x3F0, 0x01))
	assert.Equal(t, "{\"name\":\"turn_signal_status\",\"value\":\"left\"}\r\n", sink.messages[0])

	// A value matching no state is dropped, but still recorded
	translator.Handle(frameWith(0x3F0, 0x09))
	assert.Len(t, sink.messages, 1)
	assert.Equal(t, 9.0, translator.states[0].lastValue)
}

func TestHandlersDirectly(t *testing.T) {
	signal := &signals.Signal{States: []signals.SignalState{{Name: "on", Value: 1}}}

	send := true
	value := PassthroughHandler(signal, nil, 42.5, &send)
	assert.Equal(t, pipeline.Numeric(42.5), value)
	assert.True(t, send)

	assert.Equal(t, pipeline.Boolean(true), BooleanHandler(signal, nil, -3, &send))
	assert.Equal(t, pipeline.Boolean(false), BooleanHandler(signal, nil, 0, &send))
	assert.True(t, send)

	send = true
	IgnoreHandler(signal, nil, 1, &send)
	assert.False(t, send)

	send = true
	assert.Equal(t, pipeline.String("on"), StateHandler(signal, nil, 1, &send))
	assert.True(t, send)
	assert.Equal(t, pipeline.KindNone, StateHandler(signal, nil, 5, &send).Kind)
	assert.False(t, send)
}

func TestUnknownHandlerFallsBackToPassthrough(t *testing.T) {
	signal := &signals.Signal{
		GenericName: "odometer",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
		Handler: "no_such_handler",
	}
	translator, sink := newTestTranslator(t, []*signals.Signal{signal}, nil)
	translator.Handle(frameWith(0x110, 0x02))
	assert.Len(t, sink.messages, 1)
	assert.True(t, strings.Contains(sink.messages[0], "\"value\":2"))
}

func TestSiblingsVisibleToHandler(t *testing.T) {
	var seenSiblings int
	RegisterHandler("sibling_probe", func(signal *signals.Signal, siblings []*signals.Signal, value float64, send *bool) pipeline.Value {
		seenSiblings = len(siblings)
		return pipeline.Numeric(value)
	})
	probe := &signals.Signal{
		GenericName: "probe",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 4, Factor: 1,
		Handler: "sibling_probe",
	}
	other := &signals.Signal{
		GenericName: "other",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 4, BitSize: 4, Factor: 1,
	}
	translator, _ := newTestTranslator(t, []*signals.Signal{probe, other}, nil)
	translator.Handle(frameWith(0x110, 0x12))
	assert.Equal(t, 2, seenSiblings)
}

func TestSignalsFilteredByBus(t *testing.T) {
	mine := &signals.Signal{
		GenericName: "mine",
		BusAddress:  1, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
	}
	foreign := &signals.Signal{
		GenericName: "foreign",
		BusAddress:  2, MessageID: 0x110,
		BitPosition: 0, BitSize: 8, Factor: 1,
	}
	translator, _ := newTestTranslator(t, []*signals.Signal{mine, foreign}, nil)
	assert.Len(t, translator.signals, 1)
	assert.Equal(t, "mine", translator.signals[0].GenericName)
}
