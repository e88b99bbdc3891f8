package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/infrastructure/ws"
)

// ReconnectDelay is the fixed wait before redialling after a disconnect.
const ReconnectDelay = 5 * time.Second

// Sink receives pushed notifications.
type Sink interface {
	Receive(n domain.Notification)
}

// TokenSource returns the bearer token to connect with.
type TokenSource func(ctx context.Context) (string, error)

// Channel keeps a connection to the notification hub open and forwards
// notification frames to a Sink.
type Channel struct {
	endpoint string
	token    TokenSource
	sink     Sink
	dialer   *websocket.Dialer
	delay    time.Duration
	log      zerolog.Logger

	// connected is signalled after every successful dial; used by tests.
	connected func()
}

// NewChannel returns a channel to the /ws endpoint of serverURL.
func NewChannel(serverURL string, token TokenSource, sink Sink, log zerolog.Logger) (*Channel, error) {
	endpoint, err := socketURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Channel{
		endpoint:  endpoint,
		token:     token,
		sink:      sink,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		delay:     ReconnectDelay,
		log:       log,
		connected: func() {},
	}, nil
}

// socketURL maps http(s)://host to ws(s)://host/ws.
func socketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Run connects and reads frames until ctx is cancelled. Every disconnect,
// including a refused connection, is followed by ReconnectDelay and a new
// attempt.
func (ch *Channel) Run(ctx context.Context) error {
	for {
		err := ch.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ch.log.Warn().Err(err).Dur("retry_in", ch.delay).Msg("notification channel disconnected")

		t := time.NewTimer(ch.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// session runs one connection until it ends.
func (ch *Channel) session(ctx context.Context) error {
	token, err := ch.token(ctx)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}

	q := url.Values{"token": {token}}
	conn, _, err := ch.dialer.DialContext(ctx, ch.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.TransientError("dial notification channel", err)
	}
	defer conn.Close()
	ch.connected()

	// Close the socket when ctx ends so ReadMessage returns.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) && ce.Code == websocket.ClosePolicyViolation {
				return fmt.Errorf("refused by server: %s", ce.Text)
			}
			return err
		}
		ch.dispatch(data)
	}
}

func (ch *Channel) dispatch(data []byte) {
	var f ws.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		ch.log.Warn().Err(err).Msg("malformed notification frame dropped")
		return
	}
	switch f.Type {
	case domain.FrameConnection:
		ch.log.Info().Msg("notification channel connected")
	case domain.FrameNotification:
		if f.Data == nil {
			ch.log.Warn().Msg("notification frame without data dropped")
			return
		}
		ch.sink.Receive(*f.Data)
	default:
		ch.log.Debug().Str("type", f.Type).Msg("unknown frame ignored")
	}
}
