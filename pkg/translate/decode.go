package translate

import (
	"github.com/openvt/openvt/pkg/bitfield"
	"github.com/openvt/openvt/pkg/signals"
)

// Decode extracts the signal's bit field from the big-endian packed payload
// and applies the linear scaling of the definition. Pure function of the
// definition and the payload, no state is touched.
func Decode(signal *signals.Signal, data uint64) float64 {
	rawValue := bitfield.Get(data, signal.BitPosition, signal.BitSize)
	return float64(rawValue)*signal.Factor + signal.Offset
}
