package tasks

import "strings"

const (
	StatusUnallocated Status = "Unallocated"
	StatusInProgress  Status = "InProgress"
	StatusCompleted   Status = "Completed"
)

type Status string

// ParseStatus accepts the canonical spelling case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unallocated":
		return StatusUnallocated, nil
	case "inprogress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return "", ErrInvalidStatus
	}
}

const (
	// ServicePrefix is the required naming convention for service ids.
	ServicePrefix = "Service_"
	// HolderPrefix is the required prefix for worker client ids.
	HolderPrefix = "Cl"
	// AdminPrefix marks a client id as an administrator.
	AdminPrefix = "Adm"
)

type Task struct {
	ID          string
	Description string
	Status      Status
	Holder      string
}

// Allocation is what a worker gets back from a successful request.
type Allocation struct {
	TaskID      string
	Description string
}

func ValidServiceID(id string) bool {
	return strings.HasPrefix(id, ServicePrefix) && len(id) > len(ServicePrefix)
}

func ValidHolder(h string) bool {
	return h == "" || strings.HasPrefix(h, HolderPrefix)
}

func IsAdmin(clientID string) bool {
	return strings.HasPrefix(clientID, AdminPrefix)
}
