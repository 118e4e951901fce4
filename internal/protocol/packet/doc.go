// Package packet frames AMF request and response envelopes.
//
// Ownership boundary:
// - packet model and builder
// - big-endian framing of headers and bodies
// - delegation of value bytes to the amf value codec
//
// Decoded header names and URIs are copied into Go strings. Values are
// decoded straight from sub-slices of the input; amf.ByteArray values alias
// it.
package packet
