package packet

import "github.com/danmuck/amfctl/internal/protocol/amf"

const (
	packetFixedSize = 2 + 2 + 2
	headerFixedSize = 2 + 1 + 4
	bodyFixedSize   = 2 + 2 + 4
)

// SizeHint returns an upper bound on the encoded size of p.
func SizeHint(p *Packet) int {
	if p == nil {
		return packetFixedSize
	}
	n := packetFixedSize
	for _, h := range p.Headers {
		n += h.SizeHint()
	}
	for _, b := range p.Bodies {
		n += b.SizeHint()
	}
	return n
}

func (h Header) SizeHint() int {
	return headerFixedSize + len(h.Name) + amf.SizeHint(h.Data)
}

func (b Body) SizeHint() int {
	return bodyFixedSize + len(b.TargetURI) + len(b.ResponseURI) + amf.SizeHint(b.Data)
}
