// Package transport implements the framed transport client (I): a thin
// wrapper over a WebSocket connection exposing three normalized message
// types and shielding callers from the underlying library's own error
// taxonomy. Grounded on the pack's gorilla/websocket usage (a
// register/unregister-channel, per-connection send-channel client
// shape) adapted from a server-side broadcaster to a client-side
// dialer, since the session state machine dials out to each paired
// panel's own WebSocket endpoint.
package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trestlehq/coordinator/pkg/types"
)

// MessageType is the wrapper's normalized inbound message taxonomy.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageClosed MessageType = "closed"
	MessageError  MessageType = "error"
)

// Message is one normalized inbound message. Data is nil for Closed.
type Message struct {
	Type MessageType
	Data []byte
	Err  error
}

// Client wraps one WebSocket connection. Not safe for concurrent Send
// calls from multiple goroutines; the session state machine owns it
// exclusively, matching the core's single-task-per-resource discipline.
type Client struct {
	conn    *websocket.Conn
	dialer  *websocket.Dialer
	inbound chan Message
	closed  chan struct{}
}

// Connect dials host:port+path and returns a connected Client. Fails
// with ErrTransportTimeout, ErrHandshake, or ErrConnection — the
// wrapper never leaks gorilla/websocket's own error types.
func Connect(ctx context.Context, host string, port int, path string, timeout time.Duration) (*Client, error) {
	u := url.URL{Scheme: "wss", Host: fmt.Sprintf("%s:%d", host, port), Path: path}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &websocket.Dialer{
		HandshakeTimeout: timeout,
		TLSClientConfig:  &tls.Config{MinVersion: tls.VersionTLS12},
	}

	conn, resp, err := dialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		if dialCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrTransportTimeout, err)
		}
		if resp != nil {
			return nil, fmt.Errorf("%w: unexpected status %d", types.ErrHandshake, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrConnection, err)
	}

	c := &Client{
		conn:    conn,
		dialer:  dialer,
		inbound: make(chan Message, 32),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// readLoop is the producer task feeding the bounded inbound channel.
// Binary frames are dropped silently; a graceful peer close emits a
// single terminal Closed; any other failure emits Error.
func (c *Client) readLoop() {
	defer close(c.inbound)
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.emit(Message{Type: MessageClosed})
			} else {
				c.emit(Message{Type: MessageError, Err: fmt.Errorf("%w: %v", types.ErrConnection, err)})
			}
			return
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.emit(Message{Type: MessageText, Data: data})
	}
}

func (c *Client) emit(m Message) {
	select {
	case c.inbound <- m:
	case <-c.closed:
	}
}

// Messages returns the single-consumer channel of normalized inbound
// messages. Closed when the connection terminates.
func (c *Client) Messages() <-chan Message {
	return c.inbound
}

// SendJSON marshals v and sends it as a text frame.
func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	return c.SendBytes(data)
}

// SendBytes sends raw bytes as a text frame.
func (c *Client) SendBytes(buf []byte) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		return fmt.Errorf("%w: %v", types.ErrConnection, err)
	}
	return nil
}

// Close sends a close frame (2s write deadline) and closes the
// connection; it does not wait for the peer's close frame.
func (c *Client) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second))
	return c.conn.Close()
}
