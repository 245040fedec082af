package job

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/model"
)

// subscriberBuffer bounds the per-subscriber event queue. A subscriber
// that falls this far behind starts losing events rather than blocking
// the batch.
const subscriberBuffer = 64

// Broker fans progress events out to subscribers. Delivery is
// at-most-once with no replay: subscribers joining mid-job see only
// events published after they subscribe.
type Broker struct {
	mu   sync.Mutex
	subs map[chan model.Event]struct{}
}

// NewBroker creates an event broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan model.Event]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (b *Broker) Subscribe() (<-chan model.Event, func()) {
	ch := make(chan model.Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking. When
// a subscriber's buffer is full its oldest queued event is discarded to
// make room, so a slow consumer sees the most recent window.
func (b *Broker) Publish(ev model.Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case old := <-ch:
			zap.L().Warn("events: subscriber behind, dropping oldest event",
				zap.String("type", string(old.Type)),
			)
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports the current number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
