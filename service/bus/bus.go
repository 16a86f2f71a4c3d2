package bus

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go"

	"linkup/logger"
	"linkup/tools/errs"
)

// Handler processes one message from a subject. A returned error is logged
// and dropped; the bus never redelivers (core NATS, fire-and-forget).
type Handler func(ctx context.Context, data []byte) error

// Bus is a thin core-NATS wrapper used as the in-process job queue between
// state transitions and the notification fan-out.
type Bus struct {
	mu   sync.Mutex
	nc   *nats.Conn
	subs []*nats.Subscription
}

func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url, nats.Name("linkup"))
	if err != nil {
		return nil, errs.WrapMsg(err, "nats connect", "url", url)
	}
	return &Bus{nc: nc}, nil
}

// Publish is fire-and-forget; a publish on a closed connection is the only error.
func (b *Bus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

// Subscribe registers a handler for a subject. Panics in the handler are
// recovered so one bad job cannot take the consumer down.
func (b *Bus) Subscribe(subject string, h Handler) error {
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[bus] panic in handler subject=%s: %v", subject, r)
			}
		}()
		if err := h(context.Background(), m.Data); err != nil {
			logger.Errorf("[bus] handler subject=%s err=%v", subject, err)
		}
	})
	if err != nil {
		return errs.WrapMsg(err, "nats subscribe", "subject", subject)
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return nil
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	b.nc.Close()
}
