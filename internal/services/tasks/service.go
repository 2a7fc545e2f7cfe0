package tasks

import (
	"context"
	"errors"
)

var ErrNoServiceForClient = errors.New("no service registered for client")
var ErrServiceNotFound = errors.New("service not found")
var ErrTaskNotFound = errors.New("task not found")
var ErrNoTaskAvailable = errors.New("no task available")
var ErrInvalidStatus = errors.New("invalid task status")
var ErrInvalidDescription = errors.New("task description cannot be empty")
var ErrInvalidHolder = errors.New("invalid holder field")
var ErrPersist = errors.New("failed to persist task records")

// ServiceResolver maps a worker client to its home service.
type ServiceResolver interface {
	ServiceFor(clientID string) (string, bool)
}

type Service interface {
	// Allocate grants the first unallocated task of the client's service
	// to the client. At most one client ever receives a given task.
	Allocate(ctx context.Context, clientID string) (*Allocation, error)

	// Complete marks the task matching ref (id or description) as completed
	// by the client. Completing an already completed task is a no-op success.
	Complete(ctx context.Context, clientID, ref string) (*Task, error)

	// AddTask appends a new unallocated task to the service.
	AddTask(ctx context.Context, serviceID, description string) (*Task, error)

	// ChangeStatus forces the status of the task matching ref. The holder
	// field is cleared when the new status is Unallocated; otherwise it must
	// name a valid worker id.
	ChangeStatus(ctx context.Context, serviceID, ref string, newStatus Status, holder string) (*Task, error)

	// ConsultTasks returns a snapshot of the service's records in order.
	ConsultTasks(ctx context.Context, serviceID string) ([]Task, error)

	HasService(serviceID string) bool
}
