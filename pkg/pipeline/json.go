package pipeline

import (
	"math"
	"strconv"

	openvt "github.com/openvt/openvt"
)

// The JSON encoding is built directly against the fixed message shapes
// instead of going through a generic object tree : one UTF-8 object per
// message, fields in declaration order, terminated by "\r\n".
//
//	{"name": string, "value": number|bool|string, "event"?: ...}\r\n
//	{"bus": number, "id": number, "data": "0x" + 16 hex chars}\r\n

const hexDigits = "0123456789abcdef"

func (p *Pipeline) encodeJSON(message *VehicleMessage) ([]byte, error) {
	buf := p.buf[:0]
	var err error
	switch message.Type {
	case MessageRaw:
		buf = append(buf, `{"bus":`...)
		buf = strconv.AppendUint(buf, uint64(message.Bus), 10)
		buf = append(buf, `,"id":`...)
		buf = strconv.AppendUint(buf, uint64(message.MessageID), 10)
		buf = append(buf, `,"data":"0x`...)
		for shift := 56; shift >= 0; shift -= 8 {
			b := byte(message.Data >> uint(shift))
			buf = append(buf, hexDigits[b>>4], hexDigits[b&0xF])
		}
		buf = append(buf, '"', '}')
	case MessageNumeric, MessageBoolean, MessageString:
		buf = append(buf, `{"name":`...)
		buf = appendJSONString(buf, message.Name)
		buf = append(buf, `,"value":`...)
		buf, err = appendJSONValue(buf, message.Value)
		if err != nil {
			return nil, err
		}
		if message.Event.Kind != KindNone {
			buf = append(buf, `,"event":`...)
			buf, err = appendJSONValue(buf, message.Event)
			if err != nil {
				return nil, err
			}
		}
		buf = append(buf, '}')
	default:
		return nil, openvt.ErrUnknownVariant
	}
	p.buf = buf
	return append(buf, '\r', '\n'), nil
}

func appendJSONValue(buf []byte, value Value) ([]byte, error) {
	switch value.Kind {
	case KindNumeric:
		return appendJSONNumber(buf, value.Num)
	case KindBoolean:
		return strconv.AppendBool(buf, value.Bool), nil
	case KindString:
		return appendJSONString(buf, value.Str), nil
	default:
		return nil, openvt.ErrUnknownVariant
	}
}

// appendJSONNumber formats a float the way firmware consumers expect :
// integral values print without a decimal point, everything else in the
// shortest round-trippable form. NaN and infinities have no JSON
// representation and abort the message.
func appendJSONNumber(buf []byte, value float64) ([]byte, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, openvt.ErrNotFinite
	}
	if value == math.Trunc(value) && math.Abs(value) < 1e15 {
		return strconv.AppendFloat(buf, value, 'f', -1, 64), nil
	}
	return strconv.AppendFloat(buf, value, 'g', -1, 64), nil
}

func appendJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			buf = append(buf, '\\', c)
		case c == '\n':
			buf = append(buf, '\\', 'n')
		case c == '\r':
			buf = append(buf, '\\', 'r')
		case c == '\t':
			buf = append(buf, '\\', 't')
		case c < 0x20:
			buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}
