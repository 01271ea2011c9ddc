package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// TokenValidator resolves a session token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// Handler upgrades authenticated requests to websocket clients.
type Handler struct {
	hub            *Hub
	tokens         TokenValidator
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewHandler creates the /ws handler. allowedOrigins may contain "*".
func NewHandler(hub *Hub, tokens TokenValidator, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, tokens: tokens, allowedOrigins: allowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

// ServeHTTP requires a session token in the Authorization header or, since
// browsers cannot set headers on websocket requests, the token query param.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	userID, err := h.tokens.ValidateToken(token)
	if token == "" || err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "error", err)
		return
	}

	client := NewClient(context.WithoutCancel(r.Context()), h.hub, conn, userID)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	client.Start()
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients still need a token) and browser requests from allowed origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	slog.Warn("websocket connection rejected from unauthorized origin", "origin", origin)
	return false
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": "Unauthorized"})
}
