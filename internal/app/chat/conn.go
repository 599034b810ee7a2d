/*
Package chat manages the WebSocket sessions of connected link clients.

This file defines Conn, the transport a Session drives, and its gorilla/websocket
implementation with the read limit, deadlines, and pong handling every session uses.
*/
package chat

import (
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192
)

// Conn is a text-frame transport to one link client.
//
// ReadText and WriteText are each called from a single goroutine. Ping and Close
// may be called concurrently with either.
type Conn interface {
	ReadText() (string, error)
	WriteText(text string) error
	Ping() error
	Close() error
}

// wsConn adapts a gorilla/websocket connection to Conn.
type wsConn struct {
	conn *websocket.Conn
}

// NewWebSocketConn configures c for link-client traffic and wraps it.
func NewWebSocketConn(c *websocket.Conn) (Conn, error) {
	c.SetReadLimit(maxMessageSize)

	if err := c.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return nil, err
	}

	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &wsConn{conn: c}, nil
}

func (w *wsConn) ReadText() (string, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w *wsConn) WriteText(text string) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Ping uses WriteControl, which gorilla allows concurrently with WriteMessage.
func (w *wsConn) Ping() error {
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// isNormalClose reports whether a read error is an orderly disconnect.
func isNormalClose(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
