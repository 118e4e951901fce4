package amf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AMF3 type markers.
const (
	marker3Undefined    byte = 0x00
	marker3Null         byte = 0x01
	marker3False        byte = 0x02
	marker3True         byte = 0x03
	marker3Integer      byte = 0x04
	marker3Double       byte = 0x05
	marker3String       byte = 0x06
	marker3XMLDocument  byte = 0x07
	marker3Date         byte = 0x08
	marker3Array        byte = 0x09
	marker3Object       byte = 0x0A
	marker3XML          byte = 0x0B
	marker3ByteArray    byte = 0x0C
	marker3IntVector    byte = 0x0D
	marker3UintVector   byte = 0x0E
	marker3DoubleVector byte = 0x0F
	marker3ObjectVector byte = 0x10
	marker3Dictionary   byte = 0x11
)

const (
	maxU29    = 0x1FFFFFFF
	minInt29  = -1 << 28
	maxInt29  = 1<<28 - 1
	maxInline = maxU29 >> 1

	// traitsDynamic is an inline, non-externalizable, dynamic traits header
	// with no sealed members.
	traitsDynamic = 0x0B
)

type traits struct {
	className      string
	dynamic        bool
	externalizable bool
	sealed         []string
}

func (d *decoder) value3() (Value, error) {
	m, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	switch m {
	case marker3Undefined:
		return Undefined{}, nil
	case marker3Null:
		return Null{}, nil
	case marker3False:
		return Boolean(false), nil
	case marker3True:
		return Boolean(true), nil
	case marker3Integer:
		u, err := d.u29()
		if err != nil {
			return nil, err
		}
		// Sign-extend from 29 bits.
		if u&0x10000000 != 0 {
			u |= 0xE0000000
		}
		return Integer(int32(u)), nil
	case marker3Double:
		f, err := d.r.f64()
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case marker3String:
		s, err := d.string3()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case marker3XMLDocument, marker3XML:
		return d.xml3(m)
	case marker3Date:
		return d.date3()
	case marker3Array:
		return d.array3()
	case marker3Object:
		return d.object3()
	case marker3ByteArray:
		return d.byteArray3()
	case marker3IntVector, marker3UintVector, marker3DoubleVector:
		return d.numberVector3(m)
	case marker3ObjectVector:
		return d.objectVector3()
	case marker3Dictionary:
		return d.dictionary3()
	default:
		return nil, MarkerError{Mode: Format3, Marker: m}
	}
}

func (d *decoder) u29() (uint32, error) {
	var v uint32
	for i := 0; i < 3; i++ {
		b, err := d.r.u8()
		if err != nil {
			return 0, err
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	b, err := d.r.u8()
	if err != nil {
		return 0, err
	}
	return v<<8 | uint32(b), nil
}

// string3 reads a marker-less string with reference-table support. The
// empty string is never a table entry.
func (d *decoder) string3() (string, error) {
	h, err := d.u29()
	if err != nil {
		return "", err
	}
	if h&1 == 0 {
		idx := h >> 1
		if int(idx) >= len(d.strings) {
			return "", fmt.Errorf("%w: amf3 string %d", ErrInvalidReference, idx)
		}
		return d.strings[idx], nil
	}
	b, err := d.r.take(uint64(h >> 1))
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	s := string(b)
	d.strings = append(d.strings, s)
	return s, nil
}

// ref3 resolves an object-table handle. ok is false for inline values, in
// which case n carries the inline length/count.
func (d *decoder) ref3() (v Value, n uint32, ok bool, err error) {
	h, err := d.u29()
	if err != nil {
		return nil, 0, false, err
	}
	if h&1 == 1 {
		return nil, h >> 1, false, nil
	}
	idx := h >> 1
	if int(idx) >= len(d.objects) || d.objects[idx] == nil {
		return nil, 0, false, fmt.Errorf("%w: amf3 object %d", ErrInvalidReference, idx)
	}
	return d.objects[idx], 0, true, nil
}

func (d *decoder) reserve3() int {
	d.objects = append(d.objects, nil)
	return len(d.objects) - 1
}

func (d *decoder) xml3(m byte) (Value, error) {
	ref, n, ok, err := d.ref3()
	if err != nil || ok {
		return ref, err
	}
	b, err := d.r.take(uint64(n))
	if err != nil {
		return nil, err
	}
	var v Value = XML(b)
	if m == marker3XMLDocument {
		v = XMLDocument(b)
	}
	d.objects = append(d.objects, v)
	return v, nil
}

func (d *decoder) date3() (Value, error) {
	ref, _, ok, err := d.ref3()
	if err != nil || ok {
		return ref, err
	}
	millis, err := d.r.f64()
	if err != nil {
		return nil, err
	}
	v := Date{Millis: millis}
	d.objects = append(d.objects, v)
	return v, nil
}

func (d *decoder) byteArray3() (Value, error) {
	ref, n, ok, err := d.ref3()
	if err != nil || ok {
		return ref, err
	}
	b, err := d.r.take(uint64(n))
	if err != nil {
		return nil, err
	}
	v := ByteArray(b)
	d.objects = append(d.objects, v)
	return v, nil
}

func (d *decoder) array3() (Value, error) {
	ref, n, ok, err := d.ref3()
	if err != nil || ok {
		return ref, err
	}
	if err := d.r.enter(); err != nil {
		return nil, err
	}
	defer d.r.leave()

	idx := d.reserve3()
	var arr Array
	for {
		key, err := d.string3()
		if err != nil {
			return nil, err
		}
		if key == "" {
			break
		}
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		arr.Properties = append(arr.Properties, Property{Key: key, Value: v})
	}
	if !d.r.fits(uint64(n), 1) {
		return nil, ErrTruncated
	}
	arr.Items = make([]Value, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, v)
	}
	d.objects[idx] = arr
	return arr, nil
}

func (d *decoder) object3() (Value, error) {
	h, err := d.u29()
	if err != nil {
		return nil, err
	}
	if h&1 == 0 {
		idx := h >> 1
		if int(idx) >= len(d.objects) || d.objects[idx] == nil {
			return nil, fmt.Errorf("%w: amf3 object %d", ErrInvalidReference, idx)
		}
		return d.objects[idx], nil
	}
	t, err := d.traits3(h)
	if err != nil {
		return nil, err
	}
	if t.externalizable {
		return nil, fmt.Errorf("%w: externalizable class %q", ErrUnsupportedValue, t.className)
	}
	if err := d.r.enter(); err != nil {
		return nil, err
	}
	defer d.r.leave()

	idx := d.reserve3()
	obj := Object{ClassName: t.className}
	for _, key := range t.sealed {
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, Property{Key: key, Value: v})
	}
	if t.dynamic {
		for {
			key, err := d.string3()
			if err != nil {
				return nil, err
			}
			if key == "" {
				break
			}
			v, err := d.value3()
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, Property{Key: key, Value: v})
		}
	}
	d.objects[idx] = obj
	return obj, nil
}

func (d *decoder) traits3(h uint32) (traits, error) {
	if h&2 == 0 {
		idx := h >> 2
		if int(idx) >= len(d.traitTable) {
			return traits{}, fmt.Errorf("%w: amf3 traits %d", ErrInvalidReference, idx)
		}
		return d.traitTable[idx], nil
	}
	t := traits{
		externalizable: h&4 != 0,
		dynamic:        h&8 != 0,
	}
	name, err := d.string3()
	if err != nil {
		return traits{}, err
	}
	t.className = name
	if t.externalizable {
		d.traitTable = append(d.traitTable, t)
		return t, nil
	}
	count := h >> 4
	if !d.r.fits(uint64(count), 1) {
		return traits{}, ErrTruncated
	}
	t.sealed = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := d.string3()
		if err != nil {
			return traits{}, err
		}
		t.sealed = append(t.sealed, key)
	}
	d.traitTable = append(d.traitTable, t)
	return t, nil
}

func (d *decoder) numberVector3(m byte) (Value, error) {
	ref, n, ok, err := d.ref3()
	if err != nil || ok {
		return ref, err
	}
	fixed, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	width := uint64(4)
	if m == marker3DoubleVector {
		width = 8
	}
	if !d.r.fits(uint64(n), width) {
		return nil, ErrTruncated
	}
	var v Value
	switch m {
	case marker3IntVector:
		items := make([]int32, n)
		for i := range items {
			u, _ := d.r.u32()
			items[i] = int32(u)
		}
		v = IntVector{Fixed: fixed != 0, Items: items}
	case marker3UintVector:
		items := make([]uint32, n)
		for i := range items {
			items[i], _ = d.r.u32()
		}
		v = UintVector{Fixed: fixed != 0, Items: items}
	default:
		items := make([]float64, n)
		for i := range items {
			items[i], _ = d.r.f64()
		}
		v = DoubleVector{Fixed: fixed != 0, Items: items}
	}
	d.objects = append(d.objects, v)
	return v, nil
}

func (d *decoder) objectVector3() (Value, error) {
	ref, n, ok, err := d.ref3()
	if err != nil || ok {
		return ref, err
	}
	fixed, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	name, err := d.string3()
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

	idx := d.reserve3()
	vec := ObjectVector{ClassName: name, Fixed: fixed != 0, Items: make([]Value, 0, n)}
	for i := uint32(0); i < n; i++ {
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		vec.Items = append(vec.Items, v)
	}
	d.objects[idx] = vec
	return vec, nil
}

func (d *decoder) dictionary3() (Value, error) {
	ref, n, ok, err := d.ref3()
	if err != nil || ok {
		return ref, err
	}
	weak, err := d.r.u8()
	if err != nil {
		return nil, err
	}
	if !d.r.fits(uint64(n), 2) {
		return nil, ErrTruncated
	}
	if err := d.r.enter(); err != nil {
		return nil, err
	}
	defer d.r.leave()

	idx := d.reserve3()
	dict := Dictionary{Weak: weak != 0, Entries: make([]DictEntry, 0, n)}
	for i := uint32(0); i < n; i++ {
		k, err := d.value3()
		if err != nil {
			return nil, err
		}
		v, err := d.value3()
		if err != nil {
			return nil, err
		}
		dict.Entries = append(dict.Entries, DictEntry{Key: k, Value: v})
	}
	d.objects[idx] = dict
	return dict, nil
}

func (e *encoder) value3(v Value) error {
	switch v := v.(type) {
	case nil, Null:
		e.buf = append(e.buf, marker3Null)
	case Undefined:
		e.buf = append(e.buf, marker3Undefined)
	case Boolean:
		if v {
			e.buf = append(e.buf, marker3True)
		} else {
			e.buf = append(e.buf, marker3False)
		}
	case Integer:
		if v < minInt29 || v > maxInt29 {
			e.double3(float64(v))
			return nil
		}
		e.buf = append(e.buf, marker3Integer)
		e.u29(uint32(v) & maxU29)
	case Number:
		e.double3(float64(v))
	case String:
		e.buf = append(e.buf, marker3String)
		return e.string3(string(v))
	case XMLDocument:
		e.buf = append(e.buf, marker3XMLDocument)
		return e.inlineBytes3(string(v))
	case XML:
		e.buf = append(e.buf, marker3XML)
		return e.inlineBytes3(string(v))
	case ByteArray:
		e.buf = append(e.buf, marker3ByteArray)
		return e.inlineBytes3(string(v))
	case Date:
		e.buf = append(e.buf, marker3Date)
		e.u29(1)
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v.Millis))
	case Array:
		return e.array3(v.Items, v.Properties)
	case ECMAArray:
		return e.array3(nil, v.Properties)
	case Object:
		return e.object3(v)
	case IntVector:
		if err := e.vectorHeader3(marker3IntVector, len(v.Items), v.Fixed); err != nil {
			return err
		}
		for _, item := range v.Items {
			e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(item))
		}
	case UintVector:
		if err := e.vectorHeader3(marker3UintVector, len(v.Items), v.Fixed); err != nil {
			return err
		}
		for _, item := range v.Items {
			e.buf = binary.BigEndian.AppendUint32(e.buf, item)
		}
	case DoubleVector:
		if err := e.vectorHeader3(marker3DoubleVector, len(v.Items), v.Fixed); err != nil {
			return err
		}
		for _, item := range v.Items {
			e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(item))
		}
	case ObjectVector:
		if err := e.vectorHeader3(marker3ObjectVector, len(v.Items), v.Fixed); err != nil {
			return err
		}
		if err := e.string3(v.ClassName); err != nil {
			return err
		}
		if err := e.enter(); err != nil {
			return err
		}
		defer e.leave()
		for _, item := range v.Items {
			if err := e.value3(item); err != nil {
				return err
			}
		}
	case Dictionary:
		if err := e.vectorHeader3(marker3Dictionary, len(v.Entries), v.Weak); err != nil {
			return err
		}
		if err := e.enter(); err != nil {
			return err
		}
		defer e.leave()
		for _, entry := range v.Entries {
			if err := e.value3(entry.Key); err != nil {
				return err
			}
			if err := e.value3(entry.Value); err != nil {
				return err
			}
		}
	case Switch:
		return e.value3(v.Value)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

func (e *encoder) u29(v uint32) {
	switch {
	case v < 0x80:
		e.buf = append(e.buf, byte(v))
	case v < 0x4000:
		e.buf = append(e.buf, byte(v>>7|0x80), byte(v&0x7F))
	case v < 0x200000:
		e.buf = append(e.buf, byte(v>>14|0x80), byte(v>>7&0x7F|0x80), byte(v&0x7F))
	default:
		e.buf = append(e.buf, byte(v>>22|0x80), byte(v>>15&0x7F|0x80), byte(v>>8&0x7F|0x80), byte(v))
	}
}

func (e *encoder) double3(f float64) {
	e.buf = append(e.buf, marker3Double)
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(f))
}

// string3 writes a marker-less string, referencing earlier occurrences.
func (e *encoder) string3(s string) error {
	if s == "" {
		e.u29(1)
		return nil
	}
	if idx, ok := e.strings[s]; ok {
		e.u29(uint32(idx) << 1)
		return nil
	}
	if len(s) > maxInline {
		return fmt.Errorf("%w: amf3 string of %d bytes", ErrTooLarge, len(s))
	}
	if e.strings == nil {
		e.strings = make(map[string]int)
	}
	e.strings[s] = len(e.strings)
	e.u29(uint32(len(s))<<1 | 1)
	e.buf = append(e.buf, s...)
	return nil
}

func (e *encoder) inlineBytes3(b string) error {
	if len(b) > maxInline {
		return fmt.Errorf("%w: amf3 payload of %d bytes", ErrTooLarge, len(b))
	}
	e.u29(uint32(len(b))<<1 | 1)
	e.buf = append(e.buf, b...)
	return nil
}

func (e *encoder) vectorHeader3(m byte, n int, flag bool) error {
	if n > maxInline {
		return fmt.Errorf("%w: amf3 collection of %d entries", ErrTooLarge, n)
	}
	e.buf = append(e.buf, m)
	e.u29(uint32(n)<<1 | 1)
	e.buf = append(e.buf, boolByte(flag))
	return nil
}

func (e *encoder) array3(items []Value, props []Property) error {
	if len(items) > maxInline {
		return fmt.Errorf("%w: amf3 array of %d items", ErrTooLarge, len(items))
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	e.buf = append(e.buf, marker3Array)
	e.u29(uint32(len(items))<<1 | 1)
	if err := e.dynamic3(props); err != nil {
		return err
	}
	for _, item := range items {
		if err := e.value3(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) object3(o Object) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	e.buf = append(e.buf, marker3Object)
	e.u29(traitsDynamic)
	if err := e.string3(o.ClassName); err != nil {
		return err
	}
	return e.dynamic3(o.Properties)
}

// dynamic3 writes key/value pairs terminated by the empty string.
func (e *encoder) dynamic3(props []Property) error {
	for _, p := range props {
		if p.Key == "" {
			return fmt.Errorf("%w: empty property key", ErrMalformed)
		}
		if err := e.string3(p.Key); err != nil {
			return err
		}
		if err := e.value3(p.Value); err != nil {
			return err
		}
	}
	e.u29(1)
	return nil
}
