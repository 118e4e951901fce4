package packet

import "github.com/danmuck/amfctl/internal/protocol/amf"

// Header is a named, optionally mandatory, packet-level value.
type Header struct {
	Name           string
	MustUnderstand bool
	Data           amf.Value
}

// Body is one addressed message. Requests conventionally use "/<n>" as the
// response URI; replies target "/<n>/onResult" or "/<n>/onStatus".
type Body struct {
	TargetURI   string
	ResponseURI string
	Data        amf.Value
}

// Packet is the AMF envelope. Headers and Bodies keep wire order. Packets
// returned by Build and Decode are not modified afterwards by this package.
type Packet struct {
	Version amf.Version
	Headers []Header
	Bodies  []Body
}

// FirstBody returns the first body, the usual reply slot.
func (p *Packet) FirstBody() (Body, bool) {
	if p == nil || len(p.Bodies) == 0 {
		return Body{}, false
	}
	return p.Bodies[0], true
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *Packet) MarshalBinary() ([]byte, error) {
	return Encode(p)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Trailing bytes are
// ignored.
func (p *Packet) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
