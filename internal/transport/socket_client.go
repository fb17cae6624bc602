// Package transport connects event sources to the content synchronizer.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Handler receives the four transport callbacks. OnMessage is called from the
// read goroutine; implementations hand work to the loop.
type Handler interface {
	OnConnected(source string)
	OnMessage(source string, data []byte)
	OnError(source string, err error)
	OnClosed(source string, reason string)
}

// SocketClient reads text frames from a content websocket. Reconnection is
// left to the caller.
type SocketClient struct {
	url     string
	header  http.Header
	dialer  *websocket.Dialer
	handler Handler
}

func NewSocketClient(url string, header http.Header, handler Handler) *SocketClient {
	return &SocketClient{
		url:     url,
		header:  header,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		handler: handler,
	}
}

func (c *SocketClient) Source() string {
	return "socket:" + c.url
}

// Run dials once and reads until the connection closes or ctx is done.
func (c *SocketClient) Run(ctx context.Context) error {
	src := c.Source()
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		} else {
			err = fmt.Errorf("dial %s: %w", c.url, err)
		}
		c.handler.OnError(src, err)
		return err
	}
	defer conn.Close()

	c.handler.OnConnected(src)

	stop := make(chan struct{})
	defer close(stop)
	go c.keepAlive(ctx, conn, stop)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			reason := closeReason(ctx, err)
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				c.handler.OnError(src, err)
			}
			c.handler.OnClosed(src, reason)
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		c.handler.OnMessage(src, data)
	}
}

// keepAlive pings the server and closes the connection when ctx ends.
func (c *SocketClient) keepAlive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			// unblock ReadMessage if the peer never answers the close
			conn.SetReadDeadline(time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func closeReason(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return "context cancelled"
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Text != "" {
			return fmt.Sprintf("%d %s", ce.Code, ce.Text)
		}
		return fmt.Sprintf("%d", ce.Code)
	}
	return err.Error()
}
