package changes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ghxstship/recordguard/internal/api/models/common"
	"github.com/ghxstship/recordguard/internal/domain/flag"
	"github.com/ghxstship/recordguard/internal/domain/org"
	"github.com/ghxstship/recordguard/internal/domain/realtime"
	"github.com/ghxstship/recordguard/internal/infra/server/routing"
)

var subPath = "changes"

var orgKey = "org_id"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type RoutesHandler struct {
	Hub   *realtime.Hub
	Flags flag.Registry
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	subGroup := routerGroup.Group(subPath)
	subGroup.GET("/:"+orgKey, h.subscribe)
}

// @Summary Subscribe to an org's record changes
// @ID subscribe-record-changes
// @Tags changes
// @Description Upgrades to a WebSocket that streams change events for Records in the given org. Only available to orgs the realtime-changes flag is rolled out to.
// @Param   org_id path string true "The org to stream changes for"
// @Success 101 "Switching protocols"
// @Failure 400 {object} common.Body "Invalid org"
// @Failure 403 {object} common.Body "Change feed not rolled out to this org"
// @Router /changes/{org_id} [get]
func (h *RoutesHandler) subscribe(c *gin.Context) {
	orgId, err := org.IdFromString(c.Param(orgKey))
	if err != nil {
		routing.HandleJsonSerdesErr(c, err)
		return
	}
	if !h.Flags.IsEnabledFor(flag.RealtimeChanges, string(*orgId)) {
		c.JSON(http.StatusForbidden, common.Body{
			Message: "The change feed is not enabled for this org.",
		})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Error().Err(err).Str("org", string(*orgId)).Msg("Failed to upgrade change feed connection")
		return
	}

	sub := h.Hub.Subscribe(*orgId)
	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub)
}

// readLoop drains inbound frames so close and pong control messages get
// processed; clients are not expected to send data
func (h *RoutesHandler) readLoop(conn *websocket.Conn, sub *realtime.Subscription) {
	defer sub.Close()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *RoutesHandler) writeLoop(conn *websocket.Conn, sub *realtime.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		_ = conn.Close()
	}()
	for {
		select {
		case event, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
