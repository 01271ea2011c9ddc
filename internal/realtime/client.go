package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/msomdec/skill-match/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
	storeTimeout   = 5 * time.Second
)

// Client is one websocket connection. It starts Connected, becomes
// Announced once it binds its user id in the directory, and is
// Disconnected when either pump exits.
type Client struct {
	id     string
	userID string // Authenticated at upgrade time
	hub    *Hub
	conn   *websocket.Conn
	ctx    context.Context

	mu        sync.Mutex
	send      chan Event
	closed    bool
	announced bool
}

// NewClient wraps an upgraded connection for the authenticated userID.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		ctx:    ctx,
		send:   make(chan Event, sendBuffer),
	}
}

func (c *Client) ID() string { return c.id }

// Deliver queues ev for the write pump without blocking.
func (c *Client) Deliver(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// close stops the write pump. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) isAnnounced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.announced
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Error("set read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("unexpected websocket close", "client", c.id, "error", err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.sendError("malformed event")
			continue
		}
		c.handle(in)
	}
}

func (c *Client) handle(in inbound) {
	switch in.Type {
	case EventPing:
		c.Deliver(Event{Type: EventPong})

	case EventAnnounce:
		var p AnnouncePayload
		if err := json.Unmarshal(in.Data, &p); err != nil || p.UserID == "" {
			c.sendError("userId is required")
			return
		}
		if p.UserID != c.userID {
			c.sendError("cannot announce as another user")
			return
		}
		c.hub.directory.Announce(c, c.userID)
		c.mu.Lock()
		c.announced = true
		c.mu.Unlock()

	case EventSend:
		if !c.isAnnounced() {
			c.sendError("announce before sending")
			return
		}
		var p SendPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			c.sendError("malformed send event")
			return
		}
		if p.From != "" && p.From != c.userID {
			c.sendError("cannot send as another user")
			return
		}
		ctx, cancel := context.WithTimeout(c.ctx, storeTimeout)
		defer cancel()
		_, err := c.hub.relay.Send(ctx, c.userID, p.To, domain.MessageBody{Text: p.Message, Attachment: p.Attachment})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				c.sendError(err.Error())
			} else {
				c.sendError("message could not be stored")
			}
		}

	case EventTyping:
		if !c.isAnnounced() {
			return
		}
		var p TypingPayload
		if err := json.Unmarshal(in.Data, &p); err != nil || p.To == "" {
			return
		}
		c.hub.relay.Typing(c.userID, p.To)

	default:
		c.sendError("unknown event type")
	}
}

func (c *Client) sendError(msg string) {
	c.Deliver(Event{Type: EventError, Data: ErrorPayload{Message: msg}})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("marshal websocket event", "type", ev.Type, "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
