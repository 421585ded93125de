package push

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hackhub/server/internal/utils/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers enforce auth via the bearer token; origin checking is
		// left to the fronting proxy.
		return true
	},
}

// Handler upgrades authenticated clients to a live event stream.
type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandler creates a new websocket handler.
func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// RegisterRoutes registers the websocket endpoint.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws", h.Connect)
}

// Connect handles a websocket upgrade for the authenticated user.
//
//	@Summary		Live event stream
//	@Description	Upgrade to a websocket that receives push events
//	@Tags			Push
//	@Security		BearerAuth
//	@Success		101
//	@Failure		401	{object}	map[string]string
//	@Router			/ws [get]
func (h *Handler) Connect(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
