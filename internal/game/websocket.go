package game

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = time.Minute
	writeWait  = 10 * time.Second
	closeGrace = time.Second
)

type websocketConnection struct {
	socket    *websocket.Conn
	writeLock sync.Mutex
	closeOnce sync.Once
}

func NewWebsocketConnection(conn *websocket.Conn) *websocketConnection {
	conn.SetReadLimit(maxFrame)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &websocketConnection{socket: conn}
}

func (wc *websocketConnection) Write(data []byte) error {
	wc.writeLock.Lock()
	defer wc.writeLock.Unlock()
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	wc.writeLock.Lock()
	defer wc.writeLock.Unlock()
	return wc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	if err == nil {
		wc.socket.SetReadDeadline(time.Now().Add(pongWait))
	}
	return p, err
}

// Close sends a close frame carrying reason and closes the socket. Only the
// first call does anything.
func (wc *websocketConnection) Close(reason string) {
	wc.closeOnce.Do(func() {
		wc.writeLock.Lock()
		defer wc.writeLock.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		wc.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		wc.socket.Close()
	})
}
