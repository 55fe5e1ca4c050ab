package sse

import (
	"bufio"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type (
	// Listener defines the interface for the receiving end.
	Listener interface {
		ID() string
		Chan() chan Envelope
	}

	// Envelope defines the interface for content that can be broadcast to clients.
	Envelope interface {
		String() string
	}

	// Manager defines the interface for managing clients and broadcasting messages.
	Manager interface {
		Send(message Envelope)
		Handle(ctx *fiber.Ctx, cl Listener)
		Clients() []string
	}
)

type Client struct {
	id string
	ch chan Envelope
}

func NewClient(id string) Listener {
	return &Client{
		id: id,
		ch: make(chan Envelope, 50),
	}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) Chan() chan Envelope { return c.ch }

// Message is a simple named-event envelope carrying a data payload.
type Message struct {
	Event string
	Time  time.Time
	Data  string
}

// NewMessage returns a new message instance.
func NewMessage(data string) *Message {
	return &Message{
		Data: data,
		Time: time.Now(),
	}
}

// String returns the message in wire format.
func (m *Message) String() string {
	sb := strings.Builder{}

	if m.Event != "" {
		sb.WriteString(fmt.Sprintf("event: %s\n", m.Event))
	}
	// Multi-line payloads become one data: line each, per the SSE framing.
	for _, line := range strings.Split(m.Data, "\n") {
		sb.WriteString(fmt.Sprintf("data: %s\n", line))
	}
	sb.WriteString("\n")

	return sb.String()
}

// WithEvent sets the event name for the message.
func (m *Message) WithEvent(event string) Envelope {
	m.Event = event
	return m
}

// broadcastManager manages the clients and broadcasts messages to them.
type broadcastManager struct {
	clients   sync.Map
	broadcast chan Envelope
}

// NewManager initializes and returns a new Manager instance.
func NewManager() Manager {
	manager := &broadcastManager{
		broadcast: make(chan Envelope),
	}

	go manager.run()

	return manager
}

// Send broadcasts a message to all connected clients.
func (manager *broadcastManager) Send(message Envelope) {
	manager.broadcast <- message
}

// Handle sets up a new client and streams broadcast messages to it until the
// connection drops. Cleanup is owned by the stream writer alone, and the
// client channel is never closed: the broadcaster may still be holding a
// reference to it mid-Range, and sends to an unregistered channel just fall
// into the slow-client drop path.
func (manager *broadcastManager) Handle(c *fiber.Ctx, cl Listener) {
	manager.register(cl)
	ctx := c.Context()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer manager.unregister(cl.ID())

		fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
		w.Flush()

		for {
			select {
			case msg := <-cl.Chan():
				if _, err := fmt.Fprint(w, msg.String()); err != nil {
					return
				}
				w.Flush()

			case <-ctx.Done():
				return
			}
		}
	}))
}

// Clients lists connected client IDs.
func (manager *broadcastManager) Clients() []string {
	var clients []string
	manager.clients.Range(func(key, value any) bool {
		id, ok := key.(string)
		if ok {
			clients = append(clients, id)
		}
		return true
	})
	return clients
}

func (manager *broadcastManager) run() {
	for message := range manager.broadcast {
		manager.clients.Range(func(key, value any) bool {
			client, ok := value.(Listener)
			if !ok {
				return true
			}
			select {
			case client.Chan() <- message:
			default:
				// Slow client, drop the message.
			}
			return true
		})
	}
}

func (manager *broadcastManager) register(client Listener) {
	manager.clients.Store(client.ID(), client)
}

func (manager *broadcastManager) unregister(clientID string) {
	manager.clients.Delete(clientID)
}
