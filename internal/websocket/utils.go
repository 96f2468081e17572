package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second
	// Proctor streams are mostly idle between compliance events, so reads
	// tolerate long silences before the connection is considered dead.
	readDeadline = 5 * time.Minute
)

// WriteTyped sends a strongly-typed event payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(v)
}

// ReadJSON reads and decodes one client message, refreshing the read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	return conn.ReadJSON(v)
}
