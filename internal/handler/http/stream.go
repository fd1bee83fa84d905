package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
)

// WebSocket timing.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Stream message types.
const (
	MessageTypeWishlist = "wishlist"
	MessageTypeBasket   = "basket"
	MessageTypeToast    = "toast"
)

// StreamMessage is one frame sent to a live client.
type StreamMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamHandler pushes a session's wishlist and basket state and its toasts
// to websocket clients. Every change is sent as the full latest snapshot,
// so a client that falls behind skips straight to the current state.
type StreamHandler struct {
	sessions *service.Sessions
	hub      *notify.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]context.CancelFunc
}

// NewStreamHandler creates a stream handler. allowedOrigins follows the CORS
// configuration; "*" accepts any origin.
func NewStreamHandler(sessions *service.Sessions, hub *notify.Hub, allowedOrigins []string, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]context.CancelFunc),
	}
}

// Handle handles GET /ws
func (h *StreamHandler) Handle(w http.ResponseWriter, r *http.Request) {
	sid, _ := middleware.SessionIDFromContext(r.Context())

	sf, err := h.sessions.Get(r.Context(), sid)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithContext(r.Context(), h.logger).WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	// The connection outlives the upgrade request; keep its values, drop
	// its cancellation and deadline.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	log := logger.WithContext(ctx, h.logger)

	h.mu.Lock()
	h.clients[conn] = cancel
	h.mu.Unlock()

	log.InfoContext(ctx, "stream client connected", slog.String("remote_addr", conn.RemoteAddr().String()))

	go h.writePump(ctx, conn, sf, log)
	go h.readPump(ctx, conn, cancel, log)
}

// readPump discards client frames and detects disconnects.
func (h *StreamHandler) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, log *slog.Logger) {
	defer func() {
		cancel()
		h.removeClient(conn, log)
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.DebugContext(ctx, "stream read error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump is the only writer on conn.
func (h *StreamHandler) writePump(ctx context.Context, conn *websocket.Conn, sf *service.Storefront, log *slog.Logger) {
	wishlist := sf.Wishlist.Subscribe()
	basket := sf.Basket.Subscribe()
	toasts, stopToasts := h.hub.Listen(sf.ID)
	ping := time.NewTicker(pingPeriod)

	defer func() {
		ping.Stop()
		wishlist.Close()
		basket.Close()
		stopToasts()
	}()

	for {
		var msg StreamMessage
		select {
		case <-ctx.Done():
			h.sendClose(conn)
			return
		case snap, ok := <-wishlist.C():
			if !ok {
				return
			}
			msg = StreamMessage{Type: MessageTypeWishlist, Data: snap}
		case snap, ok := <-basket.C():
			if !ok {
				return
			}
			msg = StreamMessage{Type: MessageTypeBasket, Data: snap}
		case n, ok := <-toasts:
			if !ok {
				return
			}
			msg = StreamMessage{Type: MessageTypeToast, Data: n}
		case <-ping.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.DebugContext(ctx, "stream ping failed", slog.String("error", err.Error()))
				return
			}
			continue
		}

		msg.Timestamp = time.Now().UTC()
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.DebugContext(ctx, "stream write failed", slog.String("error", err.Error()))
			return
		}
	}
}

func (h *StreamHandler) sendClose(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down"))
}

func (h *StreamHandler) removeClient(conn *websocket.Conn, log *slog.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cancel, ok := h.clients[conn]; ok {
		cancel()
		delete(h.clients, conn)
		_ = conn.Close()
		log.Info("stream client disconnected", slog.String("remote_addr", conn.RemoteAddr().String()))
	}
}

// Clients returns the number of connected clients.
func (h *StreamHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll cancels every connection. Each write pump sends a close frame;
// connections are closed once their read pump sees the close.
func (h *StreamHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cancel := range h.clients {
		cancel()
	}
}
