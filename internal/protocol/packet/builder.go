package packet

import (
	"math"

	"github.com/danmuck/amfctl/internal/protocol/amf"
)

// Builder accumulates headers and bodies in call order.
type Builder struct {
	version    amf.Version
	hasVersion bool
	headers    []Header
	bodies     []Body
}

// NewBuilder returns an empty builder with no version set.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Version(v amf.Version) *Builder {
	b.version = v
	b.hasVersion = true
	return b
}

// WithDefaultVersion selects Format3, the version Flash clients send.
func (b *Builder) WithDefaultVersion() *Builder {
	return b.Version(amf.Format3)
}

func (b *Builder) Header(name string, mustUnderstand bool, data amf.Value) *Builder {
	b.headers = append(b.headers, Header{Name: name, MustUnderstand: mustUnderstand, Data: data})
	return b
}

func (b *Builder) Body(target, response string, data amf.Value) *Builder {
	b.bodies = append(b.bodies, Body{TargetURI: target, ResponseURI: response, Data: data})
	return b
}

// Build validates the accumulated state and returns an independent packet.
// The builder may be reused afterwards.
func (b *Builder) Build() (*Packet, error) {
	if !b.hasVersion {
		return nil, ErrMissingVersion
	}
	if _, ok := amf.ParseVersion(uint16(b.version)); !ok {
		return nil, ErrUnknownVersion
	}
	if len(b.headers) > math.MaxUint16 {
		return nil, &RangeError{Section: SectionHeader, Index: -1, Field: "count", Len: len(b.headers), Max: math.MaxUint16}
	}
	if len(b.bodies) > math.MaxUint16 {
		return nil, &RangeError{Section: SectionBody, Index: -1, Field: "count", Len: len(b.bodies), Max: math.MaxUint16}
	}
	p := &Packet{Version: b.version}
	if len(b.headers) > 0 {
		p.Headers = append([]Header(nil), b.headers...)
	}
	if len(b.bodies) > 0 {
		p.Bodies = append([]Body(nil), b.bodies...)
	}
	return p, nil
}
