package pipeline

import (
	"math"

	openvt "github.com/openvt/openvt"
	"google.golang.org/protobuf/encoding/protowire"
)

// The protobuf encoding is written directly with protowire against the
// schema below. All fields follow proto2 optional discipline : a field is
// only put on the wire when it is explicitly present. Messages are length
// delimited, the complete VehicleMessage is prefixed with its varint size.
//
//	message VehicleMessage {
//	  optional Type              type              = 1; // RAW=1 STRING=2 NUM=3 BOOL=4
//	  optional RawMessage        raw_message       = 2;
//	  optional StringMessage     string_message    = 3;
//	  optional NumericalMessage  numerical_message = 4;
//	  optional BooleanMessage    boolean_message   = 5;
//	}
//	message RawMessage {
//	  optional uint32  bus        = 1;
//	  optional uint32  message_id = 2;
//	  optional fixed64 data       = 3;
//	}
//	message NumericalMessage {
//	  optional string name  = 1;
//	  optional double value = 2;
//	  optional double event = 3;
//	}
//	message BooleanMessage {
//	  optional string name  = 1;
//	  optional bool   value = 2;
//	  optional bool   event = 3;
//	}
//	message StringMessage {
//	  optional string name          = 1;
//	  optional string value         = 2;
//	  optional double numeric_event = 3;
//	  optional bool   boolean_event = 4;
//	  optional string string_event  = 5;
//	}
const (
	fieldType             = 1
	fieldRawMessage       = 2
	fieldStringMessage    = 3
	fieldNumericalMessage = 4
	fieldBooleanMessage   = 5

	fieldRawBus       = 1
	fieldRawMessageID = 2
	fieldRawData      = 3

	fieldName  = 1
	fieldValue = 2
	fieldEvent = 3

	fieldStringNumericEvent = 3
	fieldStringBooleanEvent = 4
	fieldStringStringEvent  = 5
)

func (p *Pipeline) encodeProto(message *VehicleMessage) ([]byte, error) {
	sub, variantField, err := p.encodeVariant(message)
	if err != nil {
		return nil, err
	}

	body := p.body[:0]
	body = protowire.AppendTag(body, fieldType, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(message.Type))
	body = protowire.AppendTag(body, variantField, protowire.BytesType)
	body = protowire.AppendBytes(body, sub)
	p.body = body

	buf := p.buf[:0]
	buf = protowire.AppendVarint(buf, uint64(len(body)))
	buf = append(buf, body...)
	p.buf = buf
	return buf, nil
}

func (p *Pipeline) encodeVariant(message *VehicleMessage) ([]byte, protowire.Number, error) {
	sub := p.sub[:0]
	defer func() { p.sub = sub }()

	switch message.Type {
	case MessageRaw:
		sub = protowire.AppendTag(sub, fieldRawBus, protowire.VarintType)
		sub = protowire.AppendVarint(sub, uint64(message.Bus))
		sub = protowire.AppendTag(sub, fieldRawMessageID, protowire.VarintType)
		sub = protowire.AppendVarint(sub, uint64(message.MessageID))
		sub = protowire.AppendTag(sub, fieldRawData, protowire.Fixed64Type)
		sub = protowire.AppendFixed64(sub, message.Data)
		return sub, fieldRawMessage, nil

	case MessageNumeric:
		if message.Value.Kind != KindNumeric {
			return nil, 0, openvt.ErrUnknownVariant
		}
		sub = appendProtoString(sub, fieldName, message.Name)
		sub = protowire.AppendTag(sub, fieldValue, protowire.Fixed64Type)
		sub = protowire.AppendFixed64(sub, math.Float64bits(message.Value.Num))
		if message.Event.Kind != KindNone {
			if message.Event.Kind != KindNumeric {
				return nil, 0, openvt.ErrUnknownVariant
			}
			sub = protowire.AppendTag(sub, fieldEvent, protowire.Fixed64Type)
			sub = protowire.AppendFixed64(sub, math.Float64bits(message.Event.Num))
		}
		return sub, fieldNumericalMessage, nil

	case MessageBoolean:
		if message.Value.Kind != KindBoolean {
			return nil, 0, openvt.ErrUnknownVariant
		}
		sub = appendProtoString(sub, fieldName, message.Name)
		sub = protowire.AppendTag(sub, fieldValue, protowire.VarintType)
		sub = protowire.AppendVarint(sub, protowire.EncodeBool(message.Value.Bool))
		if message.Event.Kind != KindNone {
			if message.Event.Kind != KindBoolean {
				return nil, 0, openvt.ErrUnknownVariant
			}
			sub = protowire.AppendTag(sub, fieldEvent, protowire.VarintType)
			sub = protowire.AppendVarint(sub, protowire.EncodeBool(message.Event.Bool))
		}
		return sub, fieldBooleanMessage, nil

	case MessageString:
		if message.Value.Kind != KindString {
			return nil, 0, openvt.ErrUnknownVariant
		}
		sub = appendProtoString(sub, fieldName, message.Name)
		sub = appendProtoString(sub, fieldValue, message.Value.Str)
		switch message.Event.Kind {
		case KindNone:
		case KindNumeric:
			sub = protowire.AppendTag(sub, fieldStringNumericEvent, protowire.Fixed64Type)
			sub = protowire.AppendFixed64(sub, math.Float64bits(message.Event.Num))
		case KindBoolean:
			sub = protowire.AppendTag(sub, fieldStringBooleanEvent, protowire.VarintType)
			sub = protowire.AppendVarint(sub, protowire.EncodeBool(message.Event.Bool))
		case KindString:
			sub = appendProtoString(sub, fieldStringStringEvent, message.Event.Str)
		}
		return sub, fieldStringMessage, nil

	default:
		return nil, 0, openvt.ErrUnknownVariant
	}
}

func appendProtoString(buf []byte, field protowire.Number, value string) []byte {
	buf = protowire.AppendTag(buf, field, protowire.BytesType)
	return protowire.AppendString(buf, value)
}
