package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one admin connection until either side goes away. An initial
// frame, if any, is queued before the pumps start.
func ServeWs(hub *Hub, conn *websocket.Conn, initial []byte) {
	client := NewClient(hub, conn)
	if !hub.Register(client) {
		conn.Close()
		return
	}
	if initial != nil {
		select {
		case client.Send <- initial:
		default:
		}
	}

	go client.writePump()
	client.readPump()
}
