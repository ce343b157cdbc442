package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return ""
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishRebuilt(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRebuilt("b-1", 3, 2, 1500*time.Millisecond)

	s := receive(t, ch)
	if !strings.HasPrefix(s, "event: site.rebuilt\n") {
		t.Errorf("missing event type in %q", s)
	}
	for _, want := range []string{`"build_id":"b-1"`, `"notes":3`, `"assets":2`, `"duration_ms":1500`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %q", want, s)
		}
	}
	if !strings.HasSuffix(s, "\n\n") {
		t.Errorf("event not terminated: %q", s)
	}
}

func TestPublishChangeAndFailure(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("updated", "notes/a.md")
	b.PublishFailed(errors.New("boom"))

	first := receive(t, ch)
	if !strings.Contains(first, "event: file.changed") || !strings.Contains(first, `"path":"notes/a.md"`) {
		t.Errorf("change event = %q", first)
	}
	second := receive(t, ch)
	if !strings.Contains(second, "event: build.failed") || !strings.Contains(second, `"error":"boom"`) {
		t.Errorf("failure event = %q", second)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishRebuilt("b-2", 1, 0, time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if body := w.Body.String(); !strings.Contains(body, "event: site.rebuilt") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(4)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// More events than the client buffer holds must not block the loop.
	for i := 0; i < 10; i++ {
		b.PublishChange("updated", "x.md")
	}
	if b.ClientCount() != 1 {
		t.Fatal("broker loop blocked")
	}
	if len(ch) > 4 {
		t.Errorf("buffered %d messages, want at most 4", len(ch))
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(0)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.PublishRebuilt("x", 0, 0, 0)
	b.PublishChange("updated", "x.md")
}
