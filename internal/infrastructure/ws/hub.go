// Package ws pushes notifications to connected admin sessions over
// WebSocket.
//
// A client connects to /ws?token=<jwt>. The token is verified after the
// upgrade so that a refusal can be reported with a close frame:
//
//	1008 "missing token"        no token query parameter
//	1008 "invalid token"        bad signature, expired or revoked
//	1008 "admin role required"  token belongs to a customer or unknown role
//
// An accepted client first receives {"type":"connection"} and then one
// {"type":"notification","data":{...}} frame per published notification.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/api/metrics"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Close reasons sent with websocket.ClosePolicyViolation.
const (
	ReasonMissingToken = "missing token"
	ReasonInvalidToken = "invalid token"
	ReasonForbidden    = "admin role required"
)

// ErrHubClosed is returned by Publish after the hub stopped.
var ErrHubClosed = errors.New("notification hub closed")

var _ ports.Publisher = (*Hub)(nil)

// Frame is the JSON envelope of every server message.
type Frame struct {
	Type string               `json:"type"`
	Data *domain.Notification `json:"data,omitempty"`
}

// Hub owns the set of connected clients. Registration, removal and
// broadcast all happen on the Run goroutine.
type Hub struct {
	verifier ports.TokenVerifier
	upgrader websocket.Upgrader
	log      zerolog.Logger
	now      func() time.Time

	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub returns a hub admitting clients whose token verifier accepts.
// Browsers connect from the admin dashboard origin, so allowedOrigins lists
// the accepted Origin headers; an empty list accepts any origin.
func NewHub(verifier ports.TokenVerifier, allowedOrigins []string, log zerolog.Logger) *Hub {
	h := &Hub{
		verifier:   verifier,
		log:        log,
		now:        time.Now,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run serves the registry until ctx is cancelled, then closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			h.drop(c)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.WSConnections.Set(float64(len(h.clients)))
			h.log.Info().Str("user_id", c.userID).Int("clients", len(h.clients)).Msg("notification client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Info().Str("user_id", c.userID).Int("clients", len(h.clients)).Msg("notification client disconnected")
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.drop(c)
					h.log.Warn().Str("user_id", c.userID).Msg("slow notification client dropped")
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// Publish broadcasts n to every connected client. A missing id or
// timestamp is filled in.
func (h *Hub) Publish(ctx context.Context, n domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = h.now().UTC()
	}
	msg, err := json.Marshal(Frame{Type: domain.FrameNotification, Data: &n})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- msg:
		metrics.NotificationsPublishedTotal.WithLabelValues(string(n.Type)).Inc()
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request and admits or refuses the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	claims, reason := h.admit(r)
	if reason != "" {
		h.refuse(conn, reason)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), userID: claims.UserID}
	ack, _ := json.Marshal(Frame{Type: domain.FrameConnection})
	c.send <- ack

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) admit(r *http.Request) (*ports.Claims, string) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, ReasonMissingToken
	}
	claims, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		h.log.Debug().Err(err).Msg("notification client token rejected")
		return nil, ReasonInvalidToken
	}
	if !domain.IsStaffRole(claims.Role) {
		return nil, ReasonForbidden
	}
	return claims, ""
}

func (h *Hub) refuse(conn *websocket.Conn, reason string) {
	metrics.WSRejectedTotal.WithLabelValues(rejectLabel(reason)).Inc()
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, h.now().Add(writeWait))
	_ = conn.Close()
}

func rejectLabel(reason string) string {
	switch reason {
	case ReasonMissingToken:
		return "missing_token"
	case ReasonInvalidToken:
		return "invalid_token"
	default:
		return "forbidden"
	}
}
