package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"stablecoin-risk-monitor/internal/alerts"
	"stablecoin-risk-monitor/internal/logging"
	"stablecoin-risk-monitor/internal/observability"
	"stablecoin-risk-monitor/internal/pipeline"
)

var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients
		}
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// EventType names a pushed event.
type EventType string

const (
	EventRunCompleted EventType = "run_completed"
	EventAlert        EventType = "alert" // Data is []alerts.Alert
)

// Event is one message pushed to websocket clients.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Subscription filters what a client receives. Clients send it as JSON
// at any time to replace their current filter.
type Subscription struct {
	AllEvents  bool        `json:"all_events"`
	EventTypes []EventType `json:"event_types"`
	Wallets    []string    `json:"wallets"` // narrows alert batches
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
	sub  Subscription
}

// MaxClients caps concurrent websocket connections.
const MaxClients = 1000

// Hub fans events out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     logrus.FieldLogger
	done       chan struct{}
	maxClients int
	now        func() time.Time

	totalEvents atomic.Int64
}

// NewHub creates a hub. A nil logger discards output.
func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logging.Component(logger, "hub"),
		done:       make(chan struct{}),
		maxClients: MaxClients,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run is the hub loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("realtime hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			observability.SetWSClients(0)
			h.logger.Info("realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			observability.SetWSClients(n)
			h.logger.WithField("total", n).Debug("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			observability.SetWSClients(n)
			h.logger.WithField("total", n).Debug("client disconnected")

		case event := <-h.broadcast:
			h.totalEvents.Add(1)
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.WithError(err).Warn("encode event")
				continue
			}
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				view := client.view(event)
				if view == nil {
					continue
				}
				msg := payload
				if view != event {
					if msg, err = json.Marshal(view); err != nil {
						continue
					}
				}
				select {
				case client.send <- msg:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
				}
				n := len(h.clients)
				h.mu.Unlock()
				observability.SetWSClients(n)
				h.logger.WithField("dropped", len(slow)).Warn("removed slow websocket clients")
			}
		}
	}
}

// Broadcast queues an event. Drops it when the queue is full.
func (h *Hub) Broadcast(event *Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event")
	}
}

// RunCompleted pushes a run summary followed by a single alert event
// carrying every alert of the run. Suitable as pipeline.Options.OnComplete.
func (h *Hub) RunCompleted(result *pipeline.Result) {
	if result == nil || result.Run == nil {
		return
	}
	now := h.now()
	h.Broadcast(&Event{
		Type:      EventRunCompleted,
		Timestamp: now,
		Data:      newRunResponse(result.Run),
	})
	if len(result.Alerts) == 0 {
		return
	}
	h.Broadcast(&Event{
		Type:      EventAlert,
		Timestamp: now,
		Data:      result.Alerts,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalEvents returns how many events the hub has dispatched.
func (h *Hub) TotalEvents() int64 {
	return h.totalEvents.Load()
}

// HandleWebSocket upgrades the request and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	if h.ClientCount() >= h.maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
		sub:  Subscription{AllEvents: true},
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// view returns the event as this client should see it: the event itself,
// an alert batch narrowed to the subscribed wallets, or nil to skip it.
func (c *Client) view(event *Event) *Event {
	c.mu.RLock()
	sub := c.sub
	c.mu.RUnlock()

	if sub.AllEvents {
		return event
	}
	if len(sub.EventTypes) > 0 {
		matched := false
		for _, t := range sub.EventTypes {
			if t == event.Type {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
	}
	if len(sub.Wallets) == 0 || event.Type != EventAlert {
		return event
	}
	batch, ok := event.Data.([]alerts.Alert)
	if !ok {
		return nil
	}
	wanted := make(map[string]bool, len(sub.Wallets))
	for _, w := range sub.Wallets {
		wanted[w] = true
	}
	var kept []alerts.Alert
	for _, a := range batch {
		if wanted[a.WalletID] {
			kept = append(kept, a)
		}
	}
	switch {
	case len(kept) == 0:
		return nil
	case len(kept) == len(batch):
		return event
	}
	narrowed := *event
	narrowed.Data = kept
	return &narrowed
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.WithError(err).Debug("websocket read error")
			}
			return
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.mu.Lock()
			c.sub = sub
			c.mu.Unlock()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.WithError(err).Debug("websocket write error")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
