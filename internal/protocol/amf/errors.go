package amf

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated         = errors.New("amf: truncated data")
	ErrUnsupportedMarker = errors.New("amf: unsupported marker")
	ErrInvalidReference  = errors.New("amf: invalid reference")
	ErrMalformed         = errors.New("amf: malformed value")
	ErrTooDeep           = errors.New("amf: nesting too deep")
	ErrTooLarge          = errors.New("amf: value too large")
	ErrUnsupportedValue  = errors.New("amf: unsupported value")
	ErrNotObject         = errors.New("amf: value is not an object")
)

// MarkerError reports a type marker the decoder does not accept in mode.
type MarkerError struct {
	Mode   Version
	Marker byte
}

func (e MarkerError) Error() string {
	return fmt.Sprintf("amf: unsupported %s marker 0x%02x", e.Mode, e.Marker)
}

func (e MarkerError) Unwrap() error {
	return ErrUnsupportedMarker
}

// MissingFieldError indicates a required object field was not present.
type MissingFieldError struct {
	Key string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("amf: missing required field %q", e.Key)
}

// WrongKindError indicates a field (or the value itself when Key is empty)
// holds a different kind than the caller declared.
type WrongKindError struct {
	Key  string
	Want Kind
	Got  Kind
}

func (e WrongKindError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("amf: want %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("amf: field %q: want %s, got %s", e.Key, e.Want, e.Got)
}
