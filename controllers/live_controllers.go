package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type LiveController struct {
	Hub *live.Hub
}

func NewLiveController(hub *live.Hub) *LiveController {
	return &LiveController{Hub: hub}
}

// LiveHandler -> GET /ws, dashboards receive table/session/bill events
func (lc *LiveController) LiveHandler(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	label := c.GetString("client")
	lc.Hub.Register(ws, label)
	utils.InfoLogger.Printf("Dashboard %s connected (%d online)", label, lc.Hub.Count())

	// drain until the client goes away
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	lc.Hub.Unregister(ws)
}
