package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// RequestLogger wraps next so every round trip is logged and counted.
func RequestLogger(logger zerolog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		if err != nil {
			RecordHTTPRequest(req.URL.Host, req.Method, "error")
			logger.Warn().
				Err(err).
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Dur("duration", time.Since(start)).
				Msg("http_request")
			return nil, err
		}

		status := resp.StatusCode
		RecordHTTPRequest(req.URL.Host, req.Method, strconv.Itoa(status))

		event := logger.Debug()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int64("bytes", resp.ContentLength).
			Msg("http_request")
		return resp, nil
	})
}
