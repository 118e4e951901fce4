package packet

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/amfctl/internal/protocol/amf"
)

// Encode serializes p using the AMF packet wire format.
func Encode(p *Packet) ([]byte, error) {
	if p == nil {
		return nil, ErrMissingVersion
	}
	if _, ok := amf.ParseVersion(uint16(p.Version)); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, uint16(p.Version))
	}
	if len(p.Headers) > math.MaxUint16 {
		return nil, &RangeError{Section: SectionHeader, Index: -1, Field: "count", Len: len(p.Headers), Max: math.MaxUint16}
	}
	if len(p.Bodies) > math.MaxUint16 {
		return nil, &RangeError{Section: SectionBody, Index: -1, Field: "count", Len: len(p.Bodies), Max: math.MaxUint16}
	}

	buf := make([]byte, 0, SizeHint(p))
	buf = binary.BigEndian.AppendUint16(buf, uint16(p.Version))

	var err error
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(p.Headers)))
	for i, h := range p.Headers {
		if buf, err = appendString16(buf, SectionHeader, i, "name", h.Name); err != nil {
			return nil, err
		}
		if h.MustUnderstand {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		if buf, err = appendValue(buf, SectionHeader, i, h.Data); err != nil {
			return nil, err
		}
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(p.Bodies)))
	for i, b := range p.Bodies {
		if buf, err = appendString16(buf, SectionBody, i, "target", b.TargetURI); err != nil {
			return nil, err
		}
		if buf, err = appendString16(buf, SectionBody, i, "response", b.ResponseURI); err != nil {
			return nil, err
		}
		if buf, err = appendValue(buf, SectionBody, i, b.Data); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendString16(buf []byte, section Section, index int, field, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return buf, &RangeError{Section: section, Index: index, Field: field, Len: len(s), Max: math.MaxUint16}
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...), nil
}

// appendValue reserves the u32 length, encodes v in place and backpatches
// the length.
func appendValue(buf []byte, section Section, index int, v amf.Value) ([]byte, error) {
	lenAt := len(buf)
	buf = append(buf, 0, 0, 0, 0)
	out, err := amf.Append(buf, v)
	if err != nil {
		return buf[:lenAt], &FieldError{
			Section: section,
			Index:   index,
			Field:   "data",
			Err:     fmt.Errorf("%w: %w", ErrValueCodec, err),
		}
	}
	n := len(out) - lenAt - 4
	if uint64(n) > math.MaxUint32 {
		return buf[:lenAt], &RangeError{Section: section, Index: index, Field: "data", Len: n, Max: math.MaxUint32}
	}
	binary.BigEndian.PutUint32(out[lenAt:lenAt+4], uint32(n))
	return out, nil
}
