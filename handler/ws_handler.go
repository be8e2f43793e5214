package handler

import (
	"log"
	"net/http"

	"safemove/config"
	"safemove/relay"
	"safemove/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers on the hostel network connect from whatever origin serves
	// the frontend; access control happens at the API layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RelayHandler upgrades the connection and hands it to the location relay
func RelayHandler(c *gin.Context, hub *relay.Hub, cfg config.RelayConfig) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Relay: upgrade failed for %s: %v", c.ClientIP(), err)
		return
	}

	deviceInfo := utils.DescribeConnection(c.Request.UserAgent())
	client := relay.NewClient(hub, conn, cfg, deviceInfo, c.ClientIP())
	client.Serve()
}
