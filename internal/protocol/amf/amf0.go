package amf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AMF0 type markers.
const (
	marker0Number      byte = 0x00
	marker0Boolean     byte = 0x01
	marker0String      byte = 0x02
	marker0Object      byte = 0x03
	marker0MovieClip   byte = 0x04
	marker0Null        byte = 0x05
	marker0Undefined   byte = 0x06
	marker0Reference   byte = 0x07
	marker0ECMAArray   byte = 0x08
	marker0ObjectEnd   byte = 0x09
	marker0StrictArray byte = 0x0A
	marker0Date        byte = 0x0B
	marker0LongString  byte = 0x0C
	marker0Unsupported byte = 0x0D
	marker0RecordSet   byte = 0x0E
	marker0XMLDocument byte = 0x0F
	marker0TypedObject byte = 0x10
	marker0AVMPlus     byte = 0x11
)

func (d *decoder) value0() (Value, error) {
	m, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	switch m {
	case marker0Number:
		f, err := d.r.f64()
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case marker0Boolean:
		b, err := d.r.u8()
		if err != nil {
			return nil, err
		}
		return Boolean(b != 0), nil
	case marker0String:
		s, err := d.string0()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case marker0LongString:
		s, err := d.longString0()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case marker0XMLDocument:
		s, err := d.longString0()
		if err != nil {
			return nil, err
		}
		return XMLDocument(s), nil
	case marker0Null:
		return Null{}, nil
	case marker0Undefined:
		return Undefined{}, nil
	case marker0Object:
		return d.object0("")
	case marker0TypedObject:
		name, err := d.string0()
		if err != nil {
			return nil, err
		}
		return d.object0(name)
	case marker0ECMAArray:
		// The associative count is advisory; the object-end marker terminates.
		if _, err := d.r.u32(); err != nil {
			return nil, err
		}
		idx := d.reserve0()
		props, err := d.properties0()
		if err != nil {
			return nil, err
		}
		v := ECMAArray{Properties: props}
		d.refs0[idx] = v
		return v, nil
	case marker0StrictArray:
		return d.strictArray0()
	case marker0Date:
		millis, err := d.r.f64()
		if err != nil {
			return nil, err
		}
		tz, err := d.r.u16()
		if err != nil {
			return nil, err
		}
		return Date{Millis: millis, TimeZone: int16(tz)}, nil
	case marker0Reference:
		idx, err := d.r.u16()
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(d.refs0) || d.refs0[idx] == nil {
			return nil, fmt.Errorf("%w: amf0 object %d", ErrInvalidReference, idx)
		}
		return d.refs0[idx], nil
	case marker0AVMPlus:
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		return Switch{Value: v}, nil
	default:
		// MovieClip, ObjectEnd out of place, Unsupported, RecordSet, unknown.
		return nil, MarkerError{Mode: Format0, Marker: m}
	}
}

func (d *decoder) string0() (string, error) {
	n, err := d.r.u16()
	if err != nil {
		return "", err
	}
	b, err := d.r.take(uint64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) longString0() (string, error) {
	n, err := d.r.u32()
	if err != nil {
		return "", err
	}
	b, err := d.r.take(uint64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// reserve0 claims a slot in the AMF0 reference table before the children of
// a complex value are read, so indices follow order of appearance.
func (d *decoder) reserve0() int {
	d.refs0 = append(d.refs0, nil)
	return len(d.refs0) - 1
}

func (d *decoder) object0(className string) (Value, error) {
	idx := d.reserve0()
	props, err := d.properties0()
	if err != nil {
		return nil, err
	}
	v := Object{ClassName: className, Properties: props}
	d.refs0[idx] = v
	return v, nil
}

func (d *decoder) properties0() ([]Property, error) {
	if err := d.r.enter(); err != nil {
		return nil, err
	}
	defer d.r.leave()

	var props []Property
	for {
		key, err := d.string0()
		if err != nil {
			return nil, err
		}
		if key == "" {
			end, err := d.r.u8()
			if err != nil {
				return nil, err
			}
			if end != marker0ObjectEnd {
				return nil, fmt.Errorf("%w: empty key without object end (0x%02x)", ErrMalformed, end)
			}
			return props, nil
		}
		v, err := d.value0()
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Key: key, Value: v})
	}
}

func (d *decoder) strictArray0() (Value, error) {
	n, err := d.r.u32()
	if err != nil {
		return nil, err
	}
	if !d.r.fits(uint64(n), 1) {
		return nil, ErrTruncated
	}
	if err := d.r.enter(); err != nil {
		return nil, err
	}
	defer d.r.leave()

	idx := d.reserve0()
	items := make([]Value, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := d.value0()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	arr := Array{Items: items}
	d.refs0[idx] = arr
	return arr, nil
}

func (e *encoder) value0(v Value) error {
	switch v := v.(type) {
	case nil, Null:
		e.buf = append(e.buf, marker0Null)
	case Undefined:
		e.buf = append(e.buf, marker0Undefined)
	case Boolean:
		e.buf = append(e.buf, marker0Boolean, boolByte(bool(v)))
	case Number:
		e.number0(float64(v))
	case Integer:
		e.number0(float64(v))
	case String:
		return e.string0Value(string(v))
	case XMLDocument:
		if uint64(len(v)) > math.MaxUint32 {
			return fmt.Errorf("%w: xml document of %d bytes", ErrTooLarge, len(v))
		}
		e.buf = append(e.buf, marker0XMLDocument)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(v)))
		e.buf = append(e.buf, v...)
	case Date:
		e.buf = append(e.buf, marker0Date)
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v.Millis))
		e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(v.TimeZone))
	case Object:
		if v.ClassName == "" {
			e.buf = append(e.buf, marker0Object)
		} else {
			e.buf = append(e.buf, marker0TypedObject)
			if err := e.string0(v.ClassName); err != nil {
				return err
			}
		}
		return e.properties0(v.Properties)
	case ECMAArray:
		if uint64(len(v.Properties)) > math.MaxUint32 {
			return fmt.Errorf("%w: ecma array of %d entries", ErrTooLarge, len(v.Properties))
		}
		e.buf = append(e.buf, marker0ECMAArray)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(v.Properties)))
		return e.properties0(v.Properties)
	case Array:
		if len(v.Properties) > 0 {
			return e.switch3(v)
		}
		if uint64(len(v.Items)) > math.MaxUint32 {
			return fmt.Errorf("%w: strict array of %d items", ErrTooLarge, len(v.Items))
		}
		if err := e.enter(); err != nil {
			return err
		}
		defer e.leave()
		e.buf = append(e.buf, marker0StrictArray)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(v.Items)))
		for _, item := range v.Items {
			if err := e.value0(item); err != nil {
				return err
			}
		}
	case Switch:
		return e.switch3(v.Value)
	case XML, ByteArray, IntVector, UintVector, DoubleVector, ObjectVector, Dictionary:
		return e.switch3(v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

func (e *encoder) number0(f float64) {
	e.buf = append(e.buf, marker0Number)
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(f))
}

func (e *encoder) string0Value(s string) error {
	if len(s) <= math.MaxUint16 {
		e.buf = append(e.buf, marker0String)
		return e.string0(s)
	}
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("%w: string of %d bytes", ErrTooLarge, len(s))
	}
	e.buf = append(e.buf, marker0LongString)
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

// string0 writes a marker-less UTF-8 string with a u16 length.
func (e *encoder) string0(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: short string of %d bytes", ErrTooLarge, len(s))
	}
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

func (e *encoder) properties0(props []Property) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	for _, p := range props {
		if p.Key == "" {
			return fmt.Errorf("%w: empty property key", ErrMalformed)
		}
		if err := e.string0(p.Key); err != nil {
			return err
		}
		if err := e.value0(p.Value); err != nil {
			return err
		}
	}
	e.buf = append(e.buf, 0x00, 0x00, marker0ObjectEnd)
	return nil
}

// switch3 writes the avmplus marker followed by an AMF3 value.
func (e *encoder) switch3(v Value) error {
	e.buf = append(e.buf, marker0AVMPlus)
	return e.value3(v)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
