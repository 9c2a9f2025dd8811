package messagebus

import (
	"log/slog"
	"sync"

	"github.com/sbpr-app/sbpr_backend/internal/domain"
)

type EventHandler func(event domain.Event) error

// MessageBus fans domain events out to registered handlers once the owning
// unit of work has committed. Handlers run in their own goroutines; a record
// write never waits on them.
type MessageBus struct {
	logger   *slog.Logger
	handlers map[string][]EventHandler
	wg       sync.WaitGroup
}

func New(logger *slog.Logger) *MessageBus {
	return &MessageBus{
		logger:   logger,
		handlers: make(map[string][]EventHandler),
		wg:       sync.WaitGroup{},
	}
}

// Register subscribes a handler to an event type, e.g.
// measurement.EventRecorded. Not safe to call once the server is serving.
func (b *MessageBus) Register(eventType string, handler EventHandler) {
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *MessageBus) PublishEvents(events ...domain.Event) error {
	for _, event := range events {
		for _, handler := range b.handlers[event.Type()] {
			event, handler := event, handler
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				if err := handler(event); err != nil {
					b.logger.Error("event handler failed", "type", event.Type(), "err", err)
				}
			}()
		}
	}
	return nil
}

// Close waits for in-flight handlers to finish.
func (b *MessageBus) Close() {
	b.wg.Wait()
}
