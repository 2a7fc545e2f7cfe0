package notify

import (
	"log/slog"
	"sync"

	"github.com/dxcccii/taskdesk/internal/services/tasks"
)

// fanoutNotifier delivers each published event to the then-current
// subscribers of the event's service. A single drain goroutine preserves
// the publish order per subscriber; delivery is best-effort, a failed
// subscriber never blocks the rest.
type fanoutNotifier struct {
	subs      *Subscriptions
	deliverer Deliverer

	queue chan *tasks.Event
	once  sync.Once
	done  chan struct{}
}

func NewFanout(subs *Subscriptions, deliverer Deliverer, queueSize int) *fanoutNotifier {
	if queueSize <= 0 {
		queueSize = 256
	}

	n := &fanoutNotifier{
		subs:      subs,
		deliverer: deliverer,
		queue:     make(chan *tasks.Event, queueSize),
		done:      make(chan struct{}),
	}

	go n.drain()
	return n
}

func (n *fanoutNotifier) Publish(event *tasks.Event) {
	select {
	case <-n.done:
	case n.queue <- event:
	}
}

// Close stops the drain loop after the queued events are delivered.
func (n *fanoutNotifier) Close() {
	n.once.Do(func() {
		close(n.done)
	})
}

func (n *fanoutNotifier) drain() {
	for {
		select {
		case <-n.done:
			// flush whatever is still queued
			for {
				select {
				case event := <-n.queue:
					n.deliver(event)
				default:
					return
				}
			}
		case event := <-n.queue:
			n.deliver(event)
		}
	}
}

func (n *fanoutNotifier) deliver(event *tasks.Event) {
	line := event.Render()

	for _, clientID := range n.subs.Subscribers(event.ServiceID) {
		if err := n.deliverer.Deliver(clientID, line); err != nil {
			slog.Warn("event delivery failed",
				slog.String("client_id", clientID),
				slog.String("service_id", event.ServiceID),
				slog.String("event", string(event.Type)),
				slog.Any("error", err),
			)
		}
	}
}
