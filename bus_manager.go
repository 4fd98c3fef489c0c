package openvt

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Bus manager is a wrapper around the CAN bus interface
// Used by the translation stack to dispatch received frames to the
// interested components. Dispatch is serialized by the internal lock, which
// preserves the single-writer assumption of the decode pipeline even when
// the underlying driver delivers frames from its own goroutine.
type BusManager struct {
	mu             sync.Mutex
	bus            Bus // Bus interface that can be adapted
	frameListeners map[uint32][]FrameListener
	catchAll       []FrameListener
}

// Implements the FrameListener interface
// This handles all received CAN frames from Bus
func (bm *BusManager) Handle(frame Frame) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	for _, listener := range bm.frameListeners[frame.ID&CanSffMask] {
		listener.Handle(frame)
	}
	for _, listener := range bm.catchAll {
		listener.Handle(frame)
	}
}

// Set bus
func (bm *BusManager) SetBus(bus Bus) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.bus = bus
}

func (bm *BusManager) Bus() Bus {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.bus
}

// Send a CAN message
// Limited error handling
func (bm *BusManager) Send(frame Frame) error {
	err := bm.bus.Send(frame)
	if err != nil {
		log.Warnf("[CAN] %v", err)
	}
	return err
}

// Subscribe to a specific CAN ID
func (bm *BusManager) Subscribe(ident uint32, callback FrameListener) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	ident = ident & CanSffMask
	for _, existing := range bm.frameListeners[ident] {
		if existing == callback {
			log.Warnf("[CAN] callback for frame id %x already added", ident)
			return nil
		}
	}
	bm.frameListeners[ident] = append(bm.frameListeners[ident], callback)
	return nil
}

// Subscribe to all received frames, whatever their ID. This is what the
// signal translator uses, as unknown IDs still need to reach the
// passthrough path.
func (bm *BusManager) SubscribeAll(callback FrameListener) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	for _, existing := range bm.catchAll {
		if existing == callback {
			log.Warnf("[CAN] catch-all callback already added")
			return nil
		}
	}
	bm.catchAll = append(bm.catchAll, callback)
	return nil
}

func NewBusManager(bus Bus) *BusManager {
	bm := &BusManager{
		bus:            bus,
		frameListeners: make(map[uint32][]FrameListener),
	}
	return bm
}
