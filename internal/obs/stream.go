package obs

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event types broadcast over the stream (spec.md SPEC_FULL supplement:
// live observability stream), generalizing the teacher's
// execution/node.* event taxonomy to SPIRAL's task/channel/effect domain.
const (
	EventTaskSpawned     = "task.spawned"
	EventTaskCompleted   = "task.completed"
	EventTaskCancelled   = "task.cancelled"
	EventChannelClosed   = "channel.closed"
	EventStepBudgetWarn  = "step_budget.warning"
	EventEffectRecorded  = "effect.recorded"
)

// StreamEvent is one message pushed to connected debug clients.
type StreamEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TaskID    string    `json:"task_id,omitempty"`
	ChannelID string    `json:"channel_id,omitempty"`
	Op        string    `json:"op,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamObserver is a broadcast hub: any number of websocket clients can
// tail a running evaluation's task/channel/effect-log lifecycle. It
// mirrors the teacher's Hub (register/unregister/broadcast channels
// serialized through one event loop) without the workflow/execution
// subscription indexing that domain doesn't need here — every client
// sees every event.
type StreamObserver struct {
	clients    map[*streamClient]bool
	register   chan *streamClient
	unregister chan *streamClient
	broadcast  chan StreamEvent
	logger     zerolog.Logger
	mu         sync.RWMutex
}

type streamClient struct {
	conn *websocket.Conn
	send chan StreamEvent
}

func NewStreamObserver(logger zerolog.Logger) *StreamObserver {
	return &StreamObserver{
		clients:    make(map[*streamClient]bool),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		broadcast:  make(chan StreamEvent, 256),
		logger:     logger,
	}
}

// Run drives the hub's event loop; call it in its own goroutine.
func (o *StreamObserver) Run() {
	for {
		select {
		case c := <-o.register:
			o.mu.Lock()
			o.clients[c] = true
			o.mu.Unlock()
		case c := <-o.unregister:
			o.mu.Lock()
			if _, ok := o.clients[c]; ok {
				delete(o.clients, c)
				close(c.send)
			}
			o.mu.Unlock()
		case ev := <-o.broadcast:
			o.mu.RLock()
			for c := range o.clients {
				select {
				case c.send <- ev:
				default:
					o.logger.Warn().Msg("stream client buffer full, dropping event")
				}
			}
			o.mu.RUnlock()
		}
	}
}

// Notify enqueues ev for broadcast to every connected client.
func (o *StreamObserver) Notify(ev StreamEvent) {
	select {
	case o.broadcast <- ev:
	default:
		o.logger.Warn().Str("type", ev.Type).Msg("stream broadcast buffer full, dropping event")
	}
}

// ServeHTTP upgrades the connection and streams events to it until it
// disconnects.
func (o *StreamObserver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		o.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &streamClient{conn: conn, send: make(chan StreamEvent, 64)}
	o.register <- c

	defer func() {
		o.unregister <- c
		conn.Close()
	}()

	for ev := range c.send {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (o *StreamObserver) ClientCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.clients)
}
