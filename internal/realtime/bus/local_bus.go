package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/classroom-backend/internal/realtime"
)

// localBus delivers messages in-process. Used when no redis address is
// configured (single replica, tests).
type localBus struct {
	mu       sync.RWMutex
	handlers []func(realtime.Message)
}

func NewLocalBus() Bus {
	return &localBus{}
}

func (b *localBus) Publish(ctx context.Context, msg realtime.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	handlers := append([]func(realtime.Message){}, b.handlers...)
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, onMsg)
	idx := len(b.handlers) - 1
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if idx < len(b.handlers) {
			b.handlers[idx] = func(realtime.Message) {}
		}
		b.mu.Unlock()
	}()
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
	return nil
}
