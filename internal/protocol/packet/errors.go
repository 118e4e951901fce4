package packet

import (
	"errors"
	"fmt"
)

var (
	ErrMissingVersion = errors.New("packet: version not set")
	ErrOutOfRange     = errors.New("packet: count or length out of range")
	ErrUnknownVersion = errors.New("packet: unknown version")
	ErrTruncated      = errors.New("packet: truncated data")
	ErrValueCodec     = errors.New("packet: value codec failure")
)

// Section names the part of a packet an error refers to.
type Section string

const (
	SectionPacket Section = "packet"
	SectionHeader Section = "header"
	SectionBody   Section = "body"
)

// RangeError reports a count or length that does not fit its wire field.
type RangeError struct {
	Section Section
	Index   int
	Field   string
	Len     int
	Max     int
}

func (e *RangeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("packet: %s %s %d exceeds %d", e.Section, e.Field, e.Len, e.Max)
	}
	return fmt.Sprintf("packet: %s[%d] %s %d exceeds %d", e.Section, e.Index, e.Field, e.Len, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// FieldError locates a decode failure. Index is -1 for packet-level fields.
type FieldError struct {
	Section Section
	Index   int
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("packet: %s %s: %v", e.Section, e.Field, e.Err)
	}
	return fmt.Sprintf("packet: %s[%d] %s: %v", e.Section, e.Index, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
