package main

import (
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// websocketAccept upgrades an HTTP request to a WebSocket connection,
// matching pkg/events.WSManager's expected *websocket.Conn.
func websocketAccept(c *gin.Context) (*websocket.Conn, error) {
	return websocket.Accept(c.Writer, c.Request, nil)
}
