package notify

import "github.com/dxcccii/taskdesk/internal/services/tasks"

// Notifier accepts committed task events for fan-out. Publish must be
// cheap: callers invoke it right after releasing the allocation lock.
type Notifier interface {
	Publish(event *tasks.Event)
}

// Deliverer pushes one rendered line to one client. The transport binding
// (an open session, a broker topic) implements this.
type Deliverer interface {
	Deliver(clientID string, line string) error
}
