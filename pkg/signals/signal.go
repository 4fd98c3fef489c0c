// Package signals holds the static definitions of buses, messages and
// decodable signals. Definitions are loaded once from configuration and are
// never mutated by the decode pipeline : all mutable runtime state (last
// values, received flags, clock ticks) lives in the translator's runtime
// tables, keyed by definition, so that definitions can be shared and reset
// without touching configuration data.
package signals

// Bus identifies a physical CAN bus endpoint. It owns no decode state, it
// is referenced by signals and messages for identity and passthrough
// labeling.
type Bus struct {
	Address uint8
	Name    string
}

// SignalState pairs a human readable state name with the raw numeric value
// that encodes it on the bus.
type SignalState struct {
	Name  string
	Value float64
}

// Signal describes one named, bit-packed field within a message payload
// together with its linear decode formula and emission policy.
type Signal struct {
	GenericName string
	BusAddress  uint8
	MessageID   uint32

	// Decode parameters. BitPosition counts from the most significant bit
	// of byte 0 of the big-endian packed payload.
	BitPosition uint8
	BitSize     uint8
	Factor      float64
	Offset      float64

	// Optional physical range, available to custom handlers. Not enforced
	// by the decode pipeline itself.
	Min float64
	Max float64

	// Ordered state table for signals using the state handler.
	// First-declared wins on duplicate values.
	States []SignalState

	// Handler is the registered name of the value handler to run after
	// decoding. Empty means passthrough.
	Handler string

	// Emission policy. MaxFrequency is in Hz, 0 means unthrottled.
	MaxFrequency     float64
	ForceSendChanged bool
	SendSame         bool
}

// LookupState returns the first configured state matching value exactly, or
// nil if none does.
func (s *Signal) LookupState(value float64) *SignalState {
	for i := range s.States {
		if s.States[i].Value == value {
			return &s.States[i]
		}
	}
	return nil
}
