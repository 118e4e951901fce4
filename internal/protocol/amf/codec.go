package amf

import "fmt"

type decoder struct {
	r *reader

	// AMF0 complex-object table.
	refs0 []Value

	// AMF3 tables, shared by every switch marker inside one Decode call.
	strings    []string
	objects    []Value
	traitTable []traits
}

type encoder struct {
	buf     []byte
	depth   int
	strings map[string]int
}

func (e *encoder) enter() error {
	if e.depth >= maxDepth {
		return ErrTooDeep
	}
	e.depth++
	return nil
}

func (e *encoder) leave() {
	e.depth--
}

// Encode serializes v in Format0 mode.
func Encode(v Value) ([]byte, error) {
	return Append(make([]byte, 0, SizeHint(v)), v)
}

// EncodeMode serializes v starting in the given mode.
func EncodeMode(v Value, mode Version) ([]byte, error) {
	return AppendMode(make([]byte, 0, SizeHintMode(v, mode)), v, mode)
}

// Append serializes v in Format0 mode onto dst.
func Append(dst []byte, v Value) ([]byte, error) {
	return AppendMode(dst, v, Format0)
}

// AppendMode serializes v onto dst starting in mode. On error dst is
// returned unchanged.
func AppendMode(dst []byte, v Value, mode Version) ([]byte, error) {
	e := &encoder{buf: dst}
	var err error
	switch mode {
	case Format0:
		err = e.value0(v)
	case Format3:
		err = e.value3(v)
	default:
		return dst, fmt.Errorf("%w: mode %s", ErrUnsupportedValue, mode)
	}
	if err != nil {
		return dst, err
	}
	return e.buf, nil
}

// Decode reads one value from b starting in mode and reports how many bytes
// it consumed. Strings are copied; ByteArray values alias b.
func Decode(b []byte, mode Version) (Value, int, error) {
	d := &decoder{r: &reader{buf: b}}
	var (
		v   Value
		err error
	)
	switch mode {
	case Format0:
		v, err = d.value0()
	case Format3:
		v, err = d.value3()
	default:
		return nil, 0, fmt.Errorf("%w: mode %s", ErrUnsupportedValue, mode)
	}
	if err != nil {
		return nil, d.r.off, err
	}
	return v, d.r.off, nil
}
