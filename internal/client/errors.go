package client

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrNoServer         = errors.New("client: account has no server")
	ErrEmptyReply       = errors.New("client: reply packet has no body")
	ErrResponseTooLarge = errors.New("client: response exceeds size limit")
	ErrHTTPStatus       = errors.New("client: unexpected http status")
)

// StatusError reports a non-2xx reply.
type StatusError struct {
	Target string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s: http status %d", e.Target, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}

// ServerError is a reply that lacks the expected fields. Description holds
// the server's own message when it sent one.
type ServerError struct {
	Target      string
	Reason      string
	Description string
}

// Error prefers the server's description when it is human text; ASCII
// descriptions are internal codes and the local reason reads better.
func (e *ServerError) Error() string {
	if e.Description != "" && !isASCII(e.Description) {
		return fmt.Sprintf("%s: %s", e.Target, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.Target, e.Reason)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
