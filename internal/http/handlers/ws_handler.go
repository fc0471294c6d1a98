// Websocket upgrade handler.
//
// GET /ws upgrades the connection and attaches the client to the realtime
// hub. Room membership is authorized through the CanJoin hook; typing
// indicators are relayed through Typing. Origin checking is delegated to the
// CORS policy at the gateway, so the upgrader accepts any origin here.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/devconnect/chat-service/internal/http/middleware"
	"github.com/devconnect/chat-service/internal/ratelimit"
	"github.com/devconnect/chat-service/internal/ws"
)

// Reconnect throttle for the upgrade endpoint. A client cycling faster than
// this is misbehaving; normal reconnect backoff stays well under the limit.
const (
	wsConnectLimit  = 6
	wsConnectWindow = 30 * time.Second
)

// WSHandler upgrades connections and wires clients into the hub.
type WSHandler struct {
	Hub     *ws.Hub
	CanJoin func(chatID, userID uint) bool
	Typing  func(chatID, userID uint, username string, typing bool)

	// Connects throttles upgrade attempts per user; nil disables.
	Connects *ratelimit.Limiter

	upgrader websocket.Upgrader
}

// NewWSHandler constructs the handler with a permissive origin check.
func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 10,
			WriteBufferSize: 4 << 10,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. It blocks for the lifetime of the connection.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing or invalid user identity")
		return
	}

	if h.Connects != nil && h.Connects.Check("ws:"+strconv.FormatUint(uint64(userID), 10), wsConnectLimit, wsConnectWindow) {
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "reconnecting too fast")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	middleware.WSConnOpened()
	defer middleware.WSConnClosed()

	client := ws.NewClient(h.Hub, conn, userID)
	client.Username = middleware.Username(c)
	client.CanJoin = h.CanJoin
	client.Typing = h.Typing
	client.Run()
}
