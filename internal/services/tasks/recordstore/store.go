package recordstore

import (
	"context"
	"errors"

	"github.com/dxcccii/taskdesk/internal/services/tasks"
)

var ErrServiceNotFound = errors.New("no records for service")

// Store persists a service's ordered task records. A service's record set is
// always written as a whole, so the in-memory state and the stored state
// never diverge partially.
type Store interface {
	// Services lists the service ids that have a record set.
	Services(ctx context.Context) ([]string, error)

	// Load returns the service's records in stored order.
	// Returns ErrServiceNotFound if the service has no record set.
	Load(ctx context.Context, serviceID string) ([]tasks.Task, error)

	// Save replaces the service's record set.
	Save(ctx context.Context, serviceID string, records []tasks.Task) error
}
