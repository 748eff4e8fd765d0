// Package sse streams list events to presentation clients as Server-Sent Events.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/starford/cloudnotes/internal/metrics"
	"github.com/starford/cloudnotes/internal/models"
)

const (
	clientBuffer     = 64
	defaultHeartbeat = 15 * time.Second
)

// Event is a frame to broadcast. Data is sent as JSON.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// encodeFrame renders one SSE frame. A zero seq omits the id line.
func encodeFrame(seq uint64, kind string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("sse: encode %s: %w", kind, err)
	}
	var buf bytes.Buffer
	if seq > 0 {
		buf.WriteString("id: ")
		buf.WriteString(strconv.FormatUint(seq, 10))
		buf.WriteByte('\n')
	}
	buf.WriteString("event: ")
	buf.WriteString(kind)
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// hub is the state owned by the broker goroutine.
type hub struct {
	clients    map[chan []byte]struct{}
	seq        uint64
	lastReload time.Time
}

type command struct {
	apply func(*hub)
	done  chan struct{}
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithHeartbeat sets how often idle streams receive a comment line.
// Zero disables heartbeats.
func WithHeartbeat(d time.Duration) BrokerOption {
	return func(b *Broker) { b.heartbeat = d }
}

// Broker fans list events out to connected streams.
//
// Client registration, sequence numbers and the reload throttle belong to
// one goroutine; callers submit commands and events to it.
type Broker struct {
	reloadMin time.Duration
	heartbeat time.Duration

	commands chan command
	events   chan Event

	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that forwards at most one list.reloaded frame
// per reloadThrottle.
func NewBroker(reloadThrottle time.Duration, opts ...BrokerOption) *Broker {
	if reloadThrottle <= 0 {
		reloadThrottle = 2 * time.Second
	}
	b := &Broker{
		reloadMin: reloadThrottle,
		heartbeat: defaultHeartbeat,
		commands:  make(chan command),
		events:    make(chan Event, 256),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)
	h := &hub{clients: make(map[chan []byte]struct{})}

	for {
		select {
		case <-b.stop:
			for ch := range h.clients {
				close(ch)
			}
			metrics.StreamClients.Set(0)
			return
		case cmd := <-b.commands:
			cmd.apply(h)
			close(cmd.done)
		case ev := <-b.events:
			b.fanOut(h, ev)
		}
	}
}

func (b *Broker) fanOut(h *hub, ev Event) {
	if ev.Type == models.EventListReloaded {
		now := time.Now()
		if now.Sub(h.lastReload) < b.reloadMin {
			return
		}
		h.lastReload = now
	}

	h.seq++
	frame, err := encodeFrame(h.seq, ev.Type, ev.Data)
	if err != nil {
		slog.Warn("sse: dropping event", slog.String("type", ev.Type), slog.Any("error", err))
		return
	}
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			metrics.StreamFramesDropped.Inc()
		}
	}
}

// do runs fn on the broker goroutine and waits for it. It reports false
// once the broker is closed.
func (b *Broker) do(fn func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	cmd := command{apply: fn, done: make(chan struct{})}
	select {
	case b.commands <- cmd:
	case <-b.stopped:
		return false
	}
	select {
	case <-cmd.done:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the broker and closes every subscriber channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed on
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	ok := b.do(func(h *hub) {
		h.clients[ch] = struct{}{}
		metrics.StreamClients.Set(float64(len(h.clients)))
	})
	if !ok {
		close(ch)
	}
	return ch
}

// Unsubscribe drops a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) {
		if _, ok := h.clients[ch]; !ok {
			return
		}
		delete(h.clients, ch)
		close(ch)
		metrics.StreamClients.Set(float64(len(h.clients)))
	})
}

// ClientCount returns the number of registered clients.
func (b *Broker) ClientCount() int {
	n := 0
	b.do(func(h *hub) { n = len(h.clients) })
	return n
}

// Publish queues an event for every client.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- event:
	case <-b.stopped:
	}
}

// Notify satisfies notelist.Notifier.
func (b *Broker) Notify(ev models.ListEvent) {
	b.Publish(Event{Type: ev.Kind, Data: ev})
}

// ServeHTTP streams frames to one client until it disconnects or the
// broker closes (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Debug("sse: response cannot stream", slog.Any("error", err))
		return
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		var frame []byte
		select {
		case <-r.Context().Done():
			return
		case <-tick:
			frame = []byte(": keep-alive\n\n")
		case msg, open := <-ch:
			if !open {
				return
			}
			frame = msg
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
