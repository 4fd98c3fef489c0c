// Package pipeline formats decoded vehicle values into their wire
// representation and hands the finished bytes to a transport sink.
//
// Emission is all-or-nothing per message : any encoding problem is logged
// and the single message is dropped, nothing partial ever reaches the sink
// and nothing propagates back to the decode pipeline. A dropped sample is
// naturally superseded by the next frame.
package pipeline

import (
	log "github.com/sirupsen/logrus"
)

// Format selects the wire encoding of emitted messages.
type Format uint8

const (
	FormatJSON Format = iota
	FormatProto
)

// Sink accepts finished serialized messages. Delivery is best effort : no
// acknowledgment, no backpressure. Implementations are expected to be
// non-blocking or bounded-latency since they run on the frame processing
// context.
type Sink interface {
	SendMessage(data []byte)
}

// Sizing for the reusable encode buffers. Covers the largest possible
// message (raw passthrough or a full-length evented string message).
const maxWireMessageSize = 256

// Pipeline holds the configured output format and the sink. The format may
// be switched between messages, it takes effect on the next emission.
// A Pipeline is not safe for concurrent use, it belongs to the single
// frame processing context.
type Pipeline struct {
	Format Format
	Sink   Sink

	buf  []byte // finished wire message
	body []byte // proto scratch : VehicleMessage body
	sub  []byte // proto scratch : variant sub-message
}

func NewPipeline(format Format, sink Sink) *Pipeline {
	return &Pipeline{
		Format: format,
		Sink:   sink,
		buf:    make([]byte, 0, maxWireMessageSize),
		body:   make([]byte, 0, maxWireMessageSize),
		sub:    make([]byte, 0, maxWireMessageSize),
	}
}

// Send encodes the message according to the current output format and hands
// it to the sink. Encoding failures are logged and the message is dropped.
func (p *Pipeline) Send(message *VehicleMessage) {
	var data []byte
	var err error
	switch p.Format {
	case FormatProto:
		data, err = p.encodeProto(message)
	default:
		data, err = p.encodeJSON(message)
	}
	if err != nil {
		log.Errorf("[PIPELINE] dropping message : %v", err)
		return
	}
	if p.Sink == nil {
		log.Debug("[PIPELINE] no sink configured, dropping message")
		return
	}
	p.Sink.SendMessage(data)
}

// SendNumeric emits a named numerical message.
func (p *Pipeline) SendNumeric(name string, value float64) {
	p.Send(&VehicleMessage{Type: MessageNumeric, Name: name, Value: Numeric(value)})
}

// SendBoolean emits a named boolean message.
func (p *Pipeline) SendBoolean(name string, value bool) {
	p.Send(&VehicleMessage{Type: MessageBoolean, Name: name, Value: Boolean(value)})
}

// SendString emits a named string message.
func (p *Pipeline) SendString(name string, value string) {
	p.Send(&VehicleMessage{Type: MessageString, Name: name, Value: String(value)})
}

// SendEventedNumeric emits a string value with a correlated numeric event,
// e.g. a door name with its ajar ratio.
func (p *Pipeline) SendEventedNumeric(name string, value string, event float64) {
	p.Send(&VehicleMessage{Type: MessageString, Name: name, Value: String(value), Event: Numeric(event)})
}

// SendEventedBoolean emits a string value with a correlated boolean event.
func (p *Pipeline) SendEventedBoolean(name string, value string, event bool) {
	p.Send(&VehicleMessage{Type: MessageString, Name: name, Value: String(value), Event: Boolean(event)})
}

// SendEventedString emits a string value with a correlated string event.
func (p *Pipeline) SendEventedString(name string, value string, event string) {
	p.Send(&VehicleMessage{Type: MessageString, Name: name, Value: String(value), Event: String(event)})
}

// SendRaw emits an undecoded frame verbatim : bus address, message id and
// the big-endian packed 8-byte payload.
func (p *Pipeline) SendRaw(bus uint8, messageID uint32, data uint64) {
	p.Send(&VehicleMessage{Type: MessageRaw, Bus: bus, MessageID: messageID, Data: data})
}
