package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/HerbHall/startpage/internal/auth"
	"github.com/HerbHall/startpage/pkg/plugin"
)

// Handler provides the WebSocket endpoint that streams bus events.
type Handler struct {
	hub         *Hub
	tokens      *auth.TokenService
	logger      *zap.Logger
	unsubscribe func()
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to every bus topic.
// A nil tokens disables authentication.
func NewHandler(tokens *auth.TokenService, bus plugin.EventBus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		tokens: tokens,
		logger: logger,
	}
	if bus != nil {
		h.unsubscribe = bus.SubscribeAll(func(_ context.Context, e plugin.Event) {
			h.hub.Broadcast(messageFromEvent(e))
		})
	}
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/events", h.handleEvents)
}

// Close stops forwarding bus events.
func (h *Handler) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
}

// ClientCount returns the number of connected clients.
func (h *Handler) ClientCount() int {
	return h.hub.ClientCount()
}

// handleEvents upgrades the connection to WebSocket and streams bus events.
// ?topics=settings.,theme. limits the stream to topics with those prefixes.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	var device string
	if h.tokens != nil {
		// Browsers cannot set headers on WebSocket requests.
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token parameter", http.StatusUnauthorized)
			return
		}
		claims, err := h.tokens.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		device = claims.Device
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Any origin: the start page is often served from a browser extension.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := newClient(conn, device, parseTopics(r.URL.Query().Get("topics")), h.logger)
	h.hub.Register(client)
	client.send <- Message{
		Type:      TypeHello,
		Timestamp: time.Now().UTC(),
		Data:      HelloData{Device: device, Topics: client.topics},
	}

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
