package services

import (
	"context"

	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/realtime/bus"
)

type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

// HubEmitter broadcasts straight to this replica's SSE clients.
type HubEmitter struct{ Hub *realtime.Hub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}

// BusEmitter publishes to every replica through the bus. Publish failures are
// logged and counted; the write they describe has already committed.
type BusEmitter struct {
	Bus     bus.Bus
	Log     *logger.Logger
	Metrics *observability.Metrics
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if e == nil || e.Bus == nil {
		return
	}
	err := e.Bus.Publish(context.WithoutCancel(ctx), msg)
	e.Metrics.IncEventPublished(string(msg.Event), err)
	if err != nil && e.Log != nil {
		e.Log.Warn("event publish failed", "error", err, "event", msg.Event, "channel", msg.Channel)
	}
}

type deferredEmitter struct {
	next Emitter
}

// Deferred queues messages in the request outbox when one is attached, so
// nothing is published for a request that ends in an error. Without an
// outbox it emits immediately.
func Deferred(next Emitter) Emitter {
	return &deferredEmitter{next: next}
}

func (e *deferredEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if ob := realtime.OutboxFrom(ctx); ob != nil {
		ob.Append(msg)
		return
	}
	if e.next != nil {
		e.next.Emit(ctx, msg)
	}
}

// FlushOutbox emits everything queued in ctx's outbox.
func FlushOutbox(ctx context.Context, emit Emitter) int {
	msgs := realtime.OutboxFrom(ctx).Drain()
	if emit == nil {
		return 0
	}
	for _, m := range msgs {
		emit.Emit(ctx, m)
	}
	return len(msgs)
}
