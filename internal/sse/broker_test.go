package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/catadmin/internal/resource"
)

// syncRecorder guards the recorder body, which the handler goroutine writes
// while the test reads it.
type syncRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventSaved, Data: RecordEvent{Resource: "brands", ID: 7}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: store.saved") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"resource":"brands","id":7`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_ThrottlesLoadingPerResource(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(resource.Change{Resource: "brands", Generation: 1, IsLoading: true})
	b.PublishChange(resource.Change{Resource: "brands", Generation: 1})
	b.PublishChange(resource.Change{Resource: "brands", Generation: 2, IsLoading: true})
	b.PublishChange(resource.Change{Resource: "brands", Generation: 2, Total: 3})
	b.PublishChange(resource.Change{Resource: "models", Generation: 1, IsLoading: true})

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)

	loading := map[string]int{}
	settled := 0
	for _, m := range msgs {
		if !strings.Contains(m, "event: store.changed") {
			t.Errorf("unexpected event %q", m)
		}
		switch {
		case strings.Contains(m, `"isLoading":true`) && strings.Contains(m, `"resource":"brands"`):
			loading["brands"]++
		case strings.Contains(m, `"isLoading":true`):
			loading["models"]++
		default:
			settled++
		}
	}
	if loading["brands"] != 1 {
		t.Errorf("brands loading events = %d, want 1 (throttled)", loading["brands"])
	}
	if loading["models"] != 1 {
		t.Errorf("models loading events = %d, want 1", loading["models"])
	}
	if settled != 2 {
		t.Errorf("settled events = %d, want 2", settled)
	}
}

func TestPublishResult(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishResult(resource.Result{Resource: "models", Op: resource.OpSave, ID: 3, Outcome: resource.OutcomeOK})
	b.PublishResult(resource.Result{Resource: "models", Op: resource.OpRemove, ID: 3, Outcome: resource.OutcomeOK})
	b.PublishResult(resource.Result{Resource: "models", Op: resource.OpSave, Outcome: resource.OutcomeError})
	b.PublishResult(resource.Result{Resource: "models", Op: resource.OpFetchList, Outcome: resource.OutcomeOK})

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("events = %d, want 2: %q", len(msgs), msgs)
	}
	if !strings.Contains(msgs[0], "event: store.saved") || !strings.Contains(msgs[1], "event: store.removed") {
		t.Errorf("unexpected events %q", msgs)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
	req = req.WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

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

	b.PublishChange(resource.Change{Resource: "specs", Generation: 4, Total: 2})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: store.changed") || !strings.Contains(body, `"resource":"specs"`) {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	if err := b.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

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
	b.Publish(Event{Type: EventChanged})
	b.PublishChange(resource.Change{Resource: "brands"})
	b.Close()
}
