package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for realtime message")
	}
	return Message{}
}

func TestHubDeliversInOrderAndSurvivesReconnect(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	channel := CourseChannel(uuid.New())

	clientA := hub.NewClient(uuid.New())
	hub.Subscribe(clientA, channel)

	hub.Broadcast(Message{Channel: channel, Event: EventModuleCreated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(Message{Channel: channel, Event: EventModuleMoved, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != EventModuleCreated {
		t.Fatalf("first event: want=%s got=%s", EventModuleCreated, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != EventModuleMoved {
		t.Fatalf("second event: want=%s got=%s", EventModuleMoved, got.Event)
	}

	hub.Close(clientA)
	hub.Close(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}

	clientB := hub.NewClient(uuid.New())
	hub.Subscribe(clientB, channel)
	hub.Broadcast(Message{Channel: channel, Event: EventModuleDeleted})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != EventModuleDeleted {
		t.Fatalf("reconnect event: want=%s got=%s", EventModuleDeleted, got.Event)
	}
}

func TestHubIgnoresOtherChannels(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, CourseChannel(uuid.New()))

	hub.Broadcast(Message{Channel: CourseChannel(uuid.New()), Event: EventModuleCreated})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unexpected message %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	channel := UserChannel(uuid.New())
	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, channel)

	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(Message{Channel: channel, Event: EventProgressUpdated})
	}
	if got := len(client.Outbound); got != outboundBuffer {
		t.Fatalf("buffered: want=%d got=%d", outboundBuffer, got)
	}
}

func TestHubConnectCallback(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	total := 0
	hub.OnConnect(func(delta int) { total += delta })

	c := hub.NewClient(uuid.New())
	if total != 1 {
		t.Fatalf("after connect: want=1 got=%d", total)
	}
	hub.Close(c)
	hub.Close(c)
	if total != 0 {
		t.Fatalf("after close: want=0 got=%d", total)
	}
}

func TestServeWritesEventStream(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	channel := CourseChannel(uuid.New())
	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, channel)
	hub.Broadcast(Message{Channel: channel, Event: EventModuleUpdated, Data: map[string]any{"title": "x"}})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	hub.Serve(rec, req, client)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: got=%q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: module_updated\n") || !strings.Contains(body, `"title":"x"`) {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestOutboxDrain(t *testing.T) {
	if OutboxFrom(context.Background()) != nil {
		t.Fatalf("expected no outbox on bare context")
	}
	ctx, ob := WithOutbox(context.Background())
	OutboxFrom(ctx).Append(Message{Event: EventModuleCreated}, Message{Event: EventModuleMoved})
	got := ob.Drain()
	if len(got) != 2 || got[1].Event != EventModuleMoved {
		t.Fatalf("drain: got=%+v", got)
	}
	if len(ob.Drain()) != 0 {
		t.Fatalf("outbox should be empty after drain")
	}
	var nilBox *Outbox
	nilBox.Append(Message{})
}
