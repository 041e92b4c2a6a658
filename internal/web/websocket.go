package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/VerseDeck/internal/logging"
	"github.com/FocuswithJustin/VerseDeck/internal/server"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
)

const (
	wsMessagesPerMinute = 600
	wsMessageBurst      = 20

	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// ParseMessage is the reply to each text frame on /ws/parse.
type ParseMessage struct {
	References []string `json:"references"`
	Error      string   `json:"error,omitempty"`
}

// handleWebSocket parses every text frame as a message and replies with
// the references found in it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	logging.WebSocketEvent("client_connected", int(s.clients.Add(1)),
		"client_id", id, "remote_addr", server.ClientIP(r))
	defer func() {
		logging.WebSocketEvent("client_disconnected", int(s.clients.Add(-1)), "client_id", id)
	}()

	conn.SetReadLimit(validation.MaxTextLength)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	ctx := logging.WithRequestID(r.Context(), id)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WarnContext(ctx, "websocket unexpected close", "error", err)
			}
			return
		}

		reply := ParseMessage{References: []string{}}
		switch {
		case kind != websocket.TextMessage:
			reply.Error = "text frames only"
		case !s.allowMessage(id):
			reply.Error = "rate limited"
		default:
			if err := validation.ValidateText(string(data)); err != nil {
				reply.Error = err.Error()
				break
			}
			reply.References = s.svc.ParseReferences(ctx, string(data))
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			logging.WarnContext(ctx, "websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) allowMessage(clientID string) bool {
	ok, _ := s.messages.Allow(clientID)
	return ok
}

// pingLoop keeps the connection alive until done is closed. WriteControl
// may run concurrently with the reader's writes.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// checkOrigin accepts listed origins when AllowedOrigins is set, and
// same-origin or origin-less requests otherwise.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(s.opts.AllowedOrigins) == 0 {
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
	} else if isOriginAllowed(origin, s.opts.AllowedOrigins) {
		return true
	}

	logging.SecurityEvent("websocket_origin_rejected", "web", "origin", origin)
	return false
}

// isOriginAllowed supports exact matches, "*" and "*.example.com".
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		if domain, ok := strings.CutPrefix(allowed, "*."); ok && strings.HasSuffix(origin, "."+domain) {
			return true
		}
	}
	return false
}
