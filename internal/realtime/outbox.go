package realtime

import (
	"context"
	"sync"
)

type outboxKey struct{}

// Outbox collects messages produced while a request runs; they are published
// only once the request has succeeded.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
}

func WithOutbox(ctx context.Context) (context.Context, *Outbox) {
	ob := &Outbox{}
	return context.WithValue(ctx, outboxKey{}, ob), ob
}

func OutboxFrom(ctx context.Context) *Outbox {
	if ctx == nil {
		return nil
	}
	ob, _ := ctx.Value(outboxKey{}).(*Outbox)
	return ob
}

func (o *Outbox) Append(msgs ...Message) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.messages = append(o.messages, msgs...)
	o.mu.Unlock()
}

// Drain returns the queued messages and empties the outbox.
func (o *Outbox) Drain() []Message {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.messages
	o.messages = nil
	return out
}
