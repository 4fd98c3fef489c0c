package signals

// Message describes a raw CAN message by bus and numeric id, with the
// emission policy applied on the passthrough path. Messages without a
// configured definition are registered lazily by the translator when first
// sighted.
type Message struct {
	BusAddress uint8
	ID         uint32
	Name       string

	// MaxFrequency is in Hz, 0 means unthrottled.
	MaxFrequency     float64
	ForceSendChanged bool
}
