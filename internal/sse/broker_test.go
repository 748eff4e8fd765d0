package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/starford/cloudnotes/internal/metrics"
	"github.com/starford/cloudnotes/internal/models"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func next(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for frame")
		return ""
	}
}

func TestEncodeFrame(t *testing.T) {
	tests := map[string]struct {
		seq  uint64
		kind string
		data any
		want string
	}{
		"with id":    {seq: 7, kind: "note.updated", data: map[string]string{"id": "a"}, want: "id: 7\nevent: note.updated\ndata: {\"id\":\"a\"}\n\n"},
		"without id": {kind: "store.changed", data: []int{1}, want: "event: store.changed\ndata: [1]\n\n"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := encodeFrame(tc.seq, tc.kind, tc.data)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tc.want {
				t.Errorf("frame = %q, want %q", got, tc.want)
			}
		})
	}

	if _, err := encodeFrame(1, "bad", make(chan int)); err == nil {
		t.Error("expected error for unencodable data")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ch := b.Subscribe()
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("clients = %d, want 1", n)
	}
	if g := promtest.ToFloat64(metrics.StreamClients); g != 1 {
		t.Errorf("clients gauge = %v", g)
	}

	b.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("clients = %d after unsubscribe", n)
	}
	// A second unsubscribe must not close the channel again.
	b.Unsubscribe(ch)
}

func TestNotify_FramesAreNumbered(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Notify(models.ListEvent{Kind: models.EventRowMoved, Row: 0, From: 2, ID: "n1"})
	b.Publish(Event{Type: "store.changed", Data: map[string]string{"id": "n1"}})

	first := next(t, ch)
	if !strings.HasPrefix(first, "id: 1\nevent: row.moved\n") {
		t.Errorf("first frame = %q", first)
	}
	if !strings.Contains(first, `"from":2`) || !strings.Contains(first, `"id":"n1"`) {
		t.Errorf("first frame data = %q", first)
	}
	if second := next(t, ch); !strings.HasPrefix(second, "id: 2\nevent: store.changed\n") {
		t.Errorf("second frame = %q", second)
	}
}

func TestNotify_ReloadThrottle(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Notify(models.ListEvent{Kind: models.EventListReloaded})
	b.Notify(models.ListEvent{Kind: models.EventListReloaded})
	b.Notify(models.ListEvent{Kind: models.EventNoteDeleted, Row: 0, ID: "b"})

	frames := []string{next(t, ch), next(t, ch)}
	if !strings.Contains(frames[0], "event: list.reloaded") {
		t.Errorf("first frame = %q", frames[0])
	}
	// The suppressed reload does not consume a sequence number.
	if !strings.HasPrefix(frames[1], "id: 2\nevent: note.deleted") {
		t.Errorf("second frame = %q", frames[1])
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected frame %q", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFullBufferDropsFrames(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	before := promtest.ToFloat64(metrics.StreamFramesDropped)
	for i := range clientBuffer + 6 {
		b.Notify(models.ListEvent{Kind: models.EventRowSelected, Row: i})
	}
	waitFor(t, "dropped frames", func() bool {
		return promtest.ToFloat64(metrics.StreamFramesDropped)-before == 6
	})
	if len(ch) != clientBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), clientBuffer)
	}
}

func TestServeHTTP_StreamsUntilDisconnect(t *testing.T) {
	b := NewBroker(100*time.Millisecond, WithHeartbeat(0))
	defer b.Close()
	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	waitFor(t, "subscription", func() bool { return b.ClientCount() == 1 })
	b.Notify(models.ListEvent{Kind: models.EventNoteUpdated, ID: "x"})

	r := bufio.NewReader(resp.Body)
	var got []string
	for len(got) < 3 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		got = append(got, strings.TrimSuffix(line, "\n"))
	}
	if got[1] != "event: note.updated" || !strings.Contains(got[2], `"id":"x"`) {
		t.Errorf("frame lines = %q", got)
	}

	cancel()
	waitFor(t, "client cleanup", func() bool { return b.ClientCount() == 0 })
}

func TestServeHTTP_Heartbeat(t *testing.T) {
	b := NewBroker(time.Second, WithHeartbeat(20*time.Millisecond))
	defer b.Close()
	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != ": keep-alive\n" {
		t.Errorf("line = %q", line)
	}
}

func TestCloseEndsSubscribersAndStreams(t *testing.T) {
	b := NewBroker(100*time.Millisecond, WithHeartbeat(0))
	ch := b.Subscribe()

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
		close(done)
	}()
	waitFor(t, "handler subscription", func() bool { return b.ClientCount() == 2 })

	b.Close()
	b.Close()

	if _, open := <-ch; open {
		t.Fatal("subscriber channel still open")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after close")
	}

	if n := b.ClientCount(); n != 0 {
		t.Errorf("clients = %d after close", n)
	}
	if _, open := <-b.Subscribe(); open {
		t.Error("subscribe after close returned an open channel")
	}
	b.Publish(Event{Type: "store.changed"})
	b.Notify(models.ListEvent{Kind: models.EventNoteUpdated, ID: "x"})
}
