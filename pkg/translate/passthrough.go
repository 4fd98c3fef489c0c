package translate

import (
	"github.com/openvt/openvt/pkg/signals"
	log "github.com/sirupsen/logrus"
)

// lookupMessageState finds the runtime state of a message definition by id.
// Linear scan, the table is small and bounded.
func (t *Translator) lookupMessageState(id uint32) *messageState {
	for _, message := range t.messages {
		if message.def.ID == id {
			return message
		}
	}
	return nil
}

// registerMessageDefinition lazily adds a definition for a message sighted
// for the first time. Reports whether registration succeeded, a full table
// means the message is dropped.
func (t *Translator) registerMessageDefinition(id uint32) bool {
	if len(t.messages) >= t.maxMessages {
		log.Warnf("[TRANSLATE] message table full, dropping message 0x%x on bus %v",
			id, t.bus.Address)
		return false
	}
	log.Debugf("[TRANSLATE] adding new message definition for message 0x%x on bus %v",
		id, t.bus.Address)
	state := &messageState{
		def: signals.Message{
			BusAddress:   t.bus.Address,
			ID:           id,
			MaxFrequency: t.passthroughFrequency,
		},
		clock: signals.NewFrequencyClock(t.passthroughFrequency),
	}
	state.clock.Now = t.now
	// The registration send is the first fire of this definition's clock
	state.clock.Tick()
	t.messages = append(t.messages, state)
	return true
}

// passthroughMessage forwards a raw frame with no known signal decoding,
// rate limited at message granularity. The first sighting of a newly
// registered message is always sent. The last payload of a pre-existing
// definition is updated on every call, whatever the send decision.
func (t *Translator) passthroughMessage(id uint32, data uint64) {
	send := true
	message := t.lookupMessageState(id)
	if message == nil {
		send = t.registerMessageDefinition(id)
	} else if message.clock.ShouldTick() ||
		(data != message.lastValue && message.def.ForceSendChanged) {
		send = true
	} else {
		send = false
	}

	if send {
		t.pipeline.SendRaw(t.bus.Address, id, data)
	}

	if message != nil {
		message.lastValue = data
	}
}
