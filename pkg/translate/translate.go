// Package translate runs the per-frame decode pipeline : bit extraction,
// linear scaling, rate and change gating, value handlers and emission
// through the output pipeline.
//
// A Translator owns all mutable decode state and is not safe for concurrent
// use : frames must be handed to it from a single execution context, which
// is what openvt.BusManager provides when driver callbacks run on their own
// goroutine.
package translate

import (
	"encoding/binary"
	"time"

	openvt "github.com/openvt/openvt"
	"github.com/openvt/openvt/pkg/pipeline"
	"github.com/openvt/openvt/pkg/signals"
	log "github.com/sirupsen/logrus"
)

// Per-signal mutable runtime state. Kept out of the immutable definitions
// so a translator can be rebuilt or reset without touching configuration.
type signalState struct {
	lastValue float64
	received  bool
	clock     signals.FrequencyClock
}

// Per-message runtime state for the passthrough path.
type messageState struct {
	def       signals.Message
	lastValue uint64
	clock     signals.FrequencyClock
}

// DefaultMaxMessageDefinitions bounds the passthrough registration table.
const DefaultMaxMessageDefinitions = 64

// Translator converts the raw frames of one bus into vehicle messages.
// Implements openvt.FrameListener.
type Translator struct {
	bus      signals.Bus
	pipeline *pipeline.Pipeline

	signals  []*signals.Signal
	handlers []Handler
	states   []signalState
	index    map[*signals.Signal]int
	byID     map[uint32][]*signals.Signal

	messages    []*messageState
	maxMessages int

	// Policy applied to lazily registered passthrough definitions.
	// 0 means unthrottled.
	passthroughFrequency float64

	// Time source installed by SetTimeFunc, also inherited by clocks of
	// definitions registered after the call. nil means time.Now.
	now func() time.Time
}

// NewTranslator builds a translator for one bus from the loaded
// definitions. Signal and message definitions belonging to other buses are
// skipped. Signals naming an unknown handler fall back to passthrough with
// a warning, a misconfigured signal should not take the whole bus down.
func NewTranslator(bus signals.Bus, defs []*signals.Signal, messages []signals.Message, p *pipeline.Pipeline) *Translator {
	t := &Translator{
		bus:         bus,
		pipeline:    p,
		index:       make(map[*signals.Signal]int),
		byID:        make(map[uint32][]*signals.Signal),
		maxMessages: DefaultMaxMessageDefinitions,
	}
	for _, signal := range defs {
		if signal.BusAddress != bus.Address {
			continue
		}
		handler, err := HandlerByName(signal.Handler)
		if err != nil {
			log.Warnf("[TRANSLATE] signal %v : unknown handler %q, using passthrough",
				signal.GenericName, signal.Handler)
			handler = PassthroughHandler
		}
		t.index[signal] = len(t.signals)
		t.signals = append(t.signals, signal)
		t.handlers = append(t.handlers, handler)
		t.states = append(t.states, signalState{
			clock: signals.NewFrequencyClock(signal.MaxFrequency),
		})
		t.byID[signal.MessageID] = append(t.byID[signal.MessageID], signal)
	}
	for _, message := range messages {
		if message.BusAddress != bus.Address {
			continue
		}
		t.messages = append(t.messages, &messageState{
			def:   message,
			clock: signals.NewFrequencyClock(message.MaxFrequency),
		})
	}
	log.Infof("[TRANSLATE] bus %v : %v signals, %v configured messages",
		bus.Address, len(t.signals), len(t.messages))
	return t
}

// SetMaxMessageDefinitions changes the bound of the passthrough
// registration table. Already registered definitions are kept.
func (t *Translator) SetMaxMessageDefinitions(max int) {
	t.maxMessages = max
}

// SetPassthroughFrequency sets the maximum emission frequency in Hz applied
// to message definitions registered lazily on first sighting. The cap is
// effective immediately : the registration send counts as the first fire of
// the new definition's clock.
func (t *Translator) SetPassthroughFrequency(maxFrequency float64) {
	t.passthroughFrequency = maxFrequency
}

// SetTimeFunc overrides the time source of every rate clock, including the
// clocks of definitions registered later. Used by tests and offline log
// replay.
func (t *Translator) SetTimeFunc(now func() time.Time) {
	t.now = now
	for i := range t.states {
		t.states[i].clock.Now = now
	}
	for _, message := range t.messages {
		message.clock.Now = now
	}
}

// Handle implements openvt.FrameListener. Frames carrying known signals are
// translated signal by signal, anything else goes through the passthrough
// path. Each frame is processed to completion before the next one.
func (t *Translator) Handle(frame openvt.Frame) {
	data := binary.BigEndian.Uint64(frame.Data[:])
	sigs := t.byID[frame.ID]
	if len(sigs) == 0 {
		t.passthroughMessage(frame.ID, data)
		return
	}
	for _, signal := range sigs {
		t.TranslateSignal(signal, data)
	}
}

// TranslateSignal runs decode, rate gate, value handler and emission for a
// single signal. The decoded value always becomes the signal's last value,
// even when emission was vetoed, so change detection stays anchored to the
// latest sample rather than the latest sent one.
func (t *Translator) TranslateSignal(signal *signals.Signal, data uint64) {
	idx, ok := t.index[signal]
	if !ok {
		log.Warnf("[TRANSLATE] signal %v is not registered on bus %v",
			signal.GenericName, t.bus.Address)
		return
	}
	state := &t.states[idx]

	send := true
	value := t.preTranslate(signal, state, data, &send)
	output := t.handlers[idx](signal, t.byID[signal.MessageID], value, &send)
	if send && output.Kind != pipeline.KindNone {
		switch output.Kind {
		case pipeline.KindNumeric:
			t.pipeline.SendNumeric(signal.GenericName, output.Num)
		case pipeline.KindBoolean:
			t.pipeline.SendBoolean(signal.GenericName, output.Bool)
		case pipeline.KindString:
			t.pipeline.SendString(signal.GenericName, output.Str)
		}
	}
	state.lastValue = value
}

// preTranslate decodes the signal and decides whether the new value is
// worth emitting. Decoding always happens, only the send decision is gated :
//   - the signal's clock being due, or a value change under
//     ForceSendChanged, makes the signal eligible,
//   - an eligible signal still only sends if it never sent before, the
//     value changed, or SendSame asks for unchanged resends.
//
// The received flag is set on the send-eligible path.
func (t *Translator) preTranslate(signal *signals.Signal, state *signalState, data uint64, send *bool) float64 {
	value := Decode(signal, data)
	if state.clock.ShouldTick() ||
		(value != state.lastValue && signal.ForceSendChanged) {
		if *send && (!state.received || signal.SendSame || value != state.lastValue) {
			state.received = true
		} else {
			*send = false
		}
	} else {
		*send = false
	}
	return value
}
