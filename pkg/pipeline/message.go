package pipeline

// Kind tags the variant carried by a Value.
type Kind uint8

const (
	KindNone Kind = iota // absent, nothing is serialized
	KindNumeric
	KindBoolean
	KindString
)

// Value is a tagged union over the output types a signal handler can
// produce. The zero Value has KindNone and stands for a null or absent
// output.
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
	Str  string
}

func Numeric(value float64) Value {
	return Value{Kind: KindNumeric, Num: value}
}

func Boolean(value bool) Value {
	return Value{Kind: KindBoolean, Bool: value}
}

func String(value string) Value {
	return Value{Kind: KindString, Str: value}
}

// MessageType tags the VehicleMessage variant. The values match the wire
// enum of the protobuf encoding.
type MessageType uint8

const (
	MessageRaw     MessageType = 1
	MessageString  MessageType = 2
	MessageNumeric MessageType = 3
	MessageBoolean MessageType = 4
)

// VehicleMessage is the wire-level union handed to the encoders. Only the
// fields belonging to the tagged variant are ever serialized, and within a
// variant only fields explicitly present (Event of KindNone is absent).
type VehicleMessage struct {
	Type MessageType

	// Named variants
	Name  string
	Value Value
	Event Value

	// Raw variant. Data holds the 8 payload bytes big-endian packed, byte 0
	// of the frame in the most significant byte.
	Bus       uint8
	MessageID uint32
	Data      uint64
}
