package amf

import (
	"encoding/binary"
	"math"
)

// maxDepth bounds container nesting on decode and encode.
const maxDepth = 128

// reader is a bounds-checked cursor over one value's bytes.
type reader struct {
	buf   []byte
	off   int
	depth int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) u8() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrTruncated
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(r.buf[r.off : r.off+2])
	r.off += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *reader) f64() (float64, error) {
	if r.remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(r.buf[r.off : r.off+8])
	r.off += 8
	return math.Float64frombits(v), nil
}

// take returns a capped view of the next n bytes without copying.
func (r *reader) take(n uint64) ([]byte, error) {
	if n > uint64(r.remaining()) {
		return nil, ErrTruncated
	}
	end := r.off + int(n)
	b := r.buf[r.off:end:end]
	r.off = end
	return b, nil
}

// fits reports whether count elements of at least width bytes each can
// still be present.
func (r *reader) fits(count uint64, width uint64) bool {
	if width == 0 {
		width = 1
	}
	return count <= uint64(r.remaining())/width
}

func (r *reader) enter() error {
	if r.depth >= maxDepth {
		return ErrTooDeep
	}
	r.depth++
	return nil
}

func (r *reader) leave() {
	r.depth--
}
