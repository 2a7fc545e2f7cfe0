package tasks

import "fmt"

const (
	EventTaskAllocated     EventType = "TASK_ALLOCATED"
	EventTaskCompleted     EventType = "TASK_COMPLETED"
	EventTaskAdded         EventType = "TASK_ADDED"
	EventTaskStatusChanged EventType = "TASK_STATUS_CHANGED"
)

type EventType string

// Event describes a committed task mutation, fanned out to the
// subscribers of the affected service.
type Event struct {
	Type        EventType
	ServiceID   string
	TaskID      string
	Description string
	Status      Status
	ClientID    string
}

// Render produces the single push line sent to subscribers.
func (e *Event) Render() string {
	if e.ClientID == "" {
		return fmt.Sprintf("EVENT:%s:%s:%s:%s", e.Type, e.ServiceID, e.Description, e.Status)
	}
	return fmt.Sprintf("EVENT:%s:%s:%s:%s:%s", e.Type, e.ServiceID, e.Description, e.Status, e.ClientID)
}
