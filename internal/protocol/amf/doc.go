// Package amf owns the AMF value model and its two wire dialects.
//
// Ownership boundary:
// - value tree types and constructors
// - AMF0 and AMF3 encode/decode, including the AMF0 -> AMF3 switch marker
// - size hints used to pre-size output buffers
// - schema-checked field access on decoded objects
//
// Encoding always starts in Format0. Kinds that only exist in AMF3 are
// written behind the switch marker. Decoding starts in the mode chosen by
// the caller; packet bodies always start in Format0.
package amf
