package websocket

import (
	"net/http"
	"time"

	"opsportal/internal/auth"
	"opsportal/internal/service"
	"opsportal/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Handler upgrades authenticated requests and attaches them to the hub
type Handler struct {
	hub      *Hub
	tokens   *auth.TokenManager
	sessions session.Store
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler builds the /ws endpoint. An empty allowedOrigins accepts any origin.
func NewHandler(hub *Hub, tokens *auth.TokenManager, sessions session.Store, allowedOrigins []string, logger *zap.Logger) *Handler {
	if sessions == nil {
		sessions = session.NoopStore{}
	}
	return &Handler{
		hub:      hub,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeWs handles websocket requests from the peer: GET /ws?room=...&token=...
func (h *Handler) ServeWs(c *gin.Context) {
	room, err := service.NormalizeRoom(c.Query("room"))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	// Authenticate via token query param, falling back to the session cookie
	tokenString := c.Query("token")
	if tokenString == "" {
		tokenString, _ = c.Cookie(auth.CookieName)
	}
	if tokenString == "" {
		h.logger.Info("WebSocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.Parse(tokenString)
	if err != nil {
		h.logger.Info("WebSocket connection rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if revoked, err := h.sessions.IsRevoked(c.Request.Context(), claims.ID); err != nil || revoked {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: h.hub, conn: conn, room: room, userID: claims.UserID(), send: make(chan []byte, sendBuffer)}
	if !h.hub.join(client) {
		_ = conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump(h.logger)
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// Fast track writing queued messages
			n := len(c.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive; clients post through the HTTP API
func (c *Client) readPump(logger *zap.Logger) {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", zap.String("room", c.room), zap.Error(err))
			}
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// same-origin page loads and non-browser clients
		return origin == "" || set[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
