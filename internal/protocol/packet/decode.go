package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/amfctl/internal/protocol/amf"
)

// Decode parses a packet from b. Trailing bytes after the last body are
// ignored.
func Decode(b []byte) (*Packet, error) {
	p, _, err := DecodeN(b)
	return p, err
}

// DecodeN parses a packet from b and reports how many bytes it consumed.
func DecodeN(b []byte) (*Packet, int, error) {
	c := &cursor{buf: b}

	raw, err := c.u16()
	if err != nil {
		return nil, c.off, &FieldError{Section: SectionPacket, Index: -1, Field: "version", Err: err}
	}
	version, ok := amf.ParseVersion(raw)
	if !ok {
		return nil, c.off, &FieldError{
			Section: SectionPacket,
			Index:   -1,
			Field:   "version",
			Err:     fmt.Errorf("%w: %d", ErrUnknownVersion, raw),
		}
	}
	p := &Packet{Version: version}

	headerCount, err := c.u16()
	if err != nil {
		return nil, c.off, &FieldError{Section: SectionHeader, Index: -1, Field: "count", Err: err}
	}
	if headerCount > 0 {
		p.Headers = make([]Header, 0, c.capFor(int(headerCount), headerFixedSize))
	}
	for i := 0; i < int(headerCount); i++ {
		h, err := c.header(i)
		if err != nil {
			return nil, c.off, err
		}
		p.Headers = append(p.Headers, h)
	}

	bodyCount, err := c.u16()
	if err != nil {
		return nil, c.off, &FieldError{Section: SectionBody, Index: -1, Field: "count", Err: err}
	}
	if bodyCount > 0 {
		p.Bodies = make([]Body, 0, c.capFor(int(bodyCount), bodyFixedSize))
	}
	for i := 0; i < int(bodyCount); i++ {
		body, err := c.body(i)
		if err != nil {
			return nil, c.off, err
		}
		p.Bodies = append(p.Bodies, body)
	}
	return p, c.off, nil
}

type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

// capFor bounds a preallocation by what the remaining bytes could hold.
func (c *cursor) capFor(count, minSize int) int {
	if most := c.remaining() / minSize; most < count {
		return most
	}
	return count
}

func (c *cursor) u8() (byte, error) {
	if c.remaining() < 1 {
		return 0, ErrTruncated
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(c.buf[c.off : c.off+2])
	c.off += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(c.buf[c.off : c.off+4])
	c.off += 4
	return v, nil
}

func (c *cursor) take(n uint64) ([]byte, error) {
	if n > uint64(c.remaining()) {
		return nil, ErrTruncated
	}
	end := c.off + int(n)
	b := c.buf[c.off:end:end]
	c.off = end
	return b, nil
}

func (c *cursor) string16() (string, error) {
	n, err := c.u16()
	if err != nil {
		return "", err
	}
	b, err := c.take(uint64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// value decodes exactly the declared byte range in Format0 start mode.
// Bytes left over inside the range are ignored.
func (c *cursor) value() (amf.Value, error) {
	n, err := c.u32()
	if err != nil {
		return nil, err
	}
	b, err := c.take(uint64(n))
	if err != nil {
		return nil, err
	}
	v, _, err := amf.Decode(b, amf.Format0)
	if errors.Is(err, amf.ErrTruncated) {
		return nil, fmt.Errorf("%w: %w: %w", ErrValueCodec, ErrTruncated, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValueCodec, err)
	}
	return v, nil
}

func (c *cursor) header(i int) (Header, error) {
	name, err := c.string16()
	if err != nil {
		return Header{}, &FieldError{Section: SectionHeader, Index: i, Field: "name", Err: err}
	}
	must, err := c.u8()
	if err != nil {
		return Header{}, &FieldError{Section: SectionHeader, Index: i, Field: "must_understand", Err: err}
	}
	data, err := c.value()
	if err != nil {
		return Header{}, &FieldError{Section: SectionHeader, Index: i, Field: "data", Err: err}
	}
	return Header{Name: name, MustUnderstand: must != 0, Data: data}, nil
}

func (c *cursor) body(i int) (Body, error) {
	target, err := c.string16()
	if err != nil {
		return Body{}, &FieldError{Section: SectionBody, Index: i, Field: "target", Err: err}
	}
	response, err := c.string16()
	if err != nil {
		return Body{}, &FieldError{Section: SectionBody, Index: i, Field: "response", Err: err}
	}
	data, err := c.value()
	if err != nil {
		return Body{}, &FieldError{Section: SectionBody, Index: i, Field: "data", Err: err}
	}
	return Body{TargetURI: target, ResponseURI: response, Data: data}, nil
}
