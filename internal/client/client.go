package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/amfctl/internal/config"
	"github.com/danmuck/amfctl/internal/logging"
	"github.com/danmuck/amfctl/internal/observability"
	"github.com/danmuck/amfctl/internal/protocol/amf"
	"github.com/danmuck/amfctl/internal/protocol/packet"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	amfPath     = "/pvz/amf/"
	contentType = "application/x-amf"

	// ResponseURI is the reply slot every game call asks for.
	ResponseURI = "/1"
)

// ResolveServer maps a server id to its base URL.
func ResolveServer(id uint32) string {
	if id < 12 {
		return fmt.Sprintf("http://pvz-s%d.youkia.com", id)
	}
	return fmt.Sprintf("http://s%d.youkia.pvz.youkia.com", id)
}

// Client posts AMF packets for one account. It is safe for concurrent use,
// although the game server expects calls to be paced.
type Client struct {
	http         *http.Client
	server       string
	endpoint     string
	referer      string
	flashVersion string
	maxResponse  int64
	pace         *Pace
	logger       zerolog.Logger

	mu      sync.RWMutex
	cookies []config.Cookie
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is still wrapped
// with request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithPace(p *Pace) Option {
	return func(c *Client) {
		c.pace = p
	}
}

// New builds a client for acct. ServerURL, when set, overrides the server id.
func New(acct config.Account, opts ...Option) (*Client, error) {
	base := acct.ServerURL
	if base == "" {
		if acct.Server == 0 {
			return nil, ErrNoServer
		}
		base = ResolveServer(acct.Server)
	}
	base = strings.TrimRight(base, "/")

	cc := acct.Client
	c := &Client{
		server:       base,
		endpoint:     base + amfPath,
		referer:      base + "/main.swf",
		flashVersion: cc.FlashVersion,
		maxResponse:  cc.MaxResponseBytes,
		logger:       logging.Component("client"),
		cookies:      append([]config.Cookie(nil), acct.Cookies...),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pace == nil {
		c.pace = NewPace(cc.MinPause, cc.MaxPause, time.Now().UnixNano())
	}
	if c.maxResponse <= 0 {
		c.maxResponse = config.DefaultMaxResponseBytes
	}
	if c.flashVersion == "" {
		c.flashVersion = config.DefaultFlashVersion
	}
	hc := &http.Client{Timeout: cc.Timeout}
	if c.http != nil {
		copied := *c.http
		hc = &copied
	}
	hc.Transport = observability.RequestLogger(c.logger, hc.Transport)
	c.http = hc
	return c, nil
}

func (c *Client) ServerURL() string {
	return c.server
}

func (c *Client) Cookie(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ck := range c.cookies {
		if ck.Key == key {
			return ck.Value, true
		}
	}
	return "", false
}

// SetCookie replaces the value of key and returns the old one. An unknown
// key is appended and ok is false.
func (c *Client) SetCookie(key, value string) (old string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.cookies {
		if c.cookies[i].Key == key {
			old = c.cookies[i].Value
			c.cookies[i].Value = value
			return old, true
		}
	}
	c.cookies = append(c.cookies, config.Cookie{Key: key, Value: value})
	return "", false
}

func (c *Client) cookieHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var b strings.Builder
	for _, ck := range c.cookies {
		b.WriteString(ck.Key)
		b.WriteByte('=')
		b.WriteString(ck.Value)
		b.WriteByte(';')
	}
	return b.String()
}

// Pause waits a random interval between calls.
func (c *Client) Pause(ctx context.Context) error {
	return c.pace.Wait(ctx)
}

// Call sends one body to target and returns the decoded reply packet.
func (c *Client) Call(ctx context.Context, target, response string, data amf.Value) (*packet.Packet, error) {
	return c.do(ctx, target, response, data, nil)
}

// invoke calls target and hands the first reply body to check, so that
// server-side refusals are measured with the call.
func (c *Client) invoke(ctx context.Context, target string, args amf.Value, check func(amf.Value) error) error {
	_, err := c.do(ctx, target, ResponseURI, args, func(reply *packet.Packet) error {
		body, ok := reply.FirstBody()
		if !ok {
			return ErrEmptyReply
		}
		return check(body.Data)
	})
	return err
}

func (c *Client) do(ctx context.Context, target, response string, data amf.Value, check func(*packet.Packet) error) (*packet.Packet, error) {
	start := time.Now()
	reply, err := c.call(ctx, target, response, data)
	if err == nil && check != nil {
		err = check(reply)
	}
	elapsed := time.Since(start)

	observability.RecordCall(c.server, target, classify(err), elapsed)
	if err != nil {
		c.logger.Warn().Err(err).Str("target", target).Dur("duration", elapsed).Msg("amf call failed")
		return nil, err
	}
	c.logger.Debug().Str("target", target).Int("bodies", len(reply.Bodies)).Dur("duration", elapsed).Msg("amf call")
	return reply, nil
}

func (c *Client) call(ctx context.Context, target, response string, data amf.Value) (*packet.Packet, error) {
	req, err := packet.NewBuilder().WithDefaultVersion().Body(target, response, data).Build()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build request packet")
	}
	payload, err := req.MarshalBinary()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encode request packet")
	}
	observability.RecordPacketBytes("request", len(payload))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "new request")
	}
	httpReq.Header.Set("Referer", c.referer)
	httpReq.Header.Set("Cookie", c.cookieHeader())
	httpReq.Header.Set("x-flash-version", c.flashVersion)
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "post %s", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Target: target, Code: resp.StatusCode}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponse+1))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read %s reply", target)
	}
	if int64(len(raw)) > c.maxResponse {
		return nil, fmt.Errorf("%w: %s reply over %d bytes", ErrResponseTooLarge, target, c.maxResponse)
	}
	observability.RecordPacketBytes("response", len(raw))

	reply, err := packet.Decode(raw)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decode %s reply", target)
	}
	return reply, nil
}

func classify(err error) string {
	var serverErr *ServerError
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.As(err, &serverErr):
		return observability.OutcomeServerError
	case errors.Is(err, packet.ErrTruncated),
		errors.Is(err, packet.ErrUnknownVersion),
		errors.Is(err, packet.ErrValueCodec),
		errors.Is(err, packet.ErrOutOfRange),
		errors.Is(err, ErrResponseTooLarge):
		return observability.OutcomeCodec
	default:
		return observability.OutcomeTransport
	}
}
