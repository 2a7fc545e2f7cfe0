package taskservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dxcccii/taskdesk/internal/services/notify"
	"github.com/dxcccii/taskdesk/internal/services/tasks"
	"github.com/dxcccii/taskdesk/internal/services/tasks/recordstore"
	"github.com/google/uuid"
)

// serviceState is one service's authoritative record list. Its mutex
// serializes every read-decide-write-persist sequence for the service, so
// concurrent allocations can never hand out the same record.
type serviceState struct {
	mu      sync.Mutex
	records []*tasks.Task
}

type taskService struct {
	resolver tasks.ServiceResolver
	store    recordstore.Store
	notifier notify.Notifier

	mu       sync.RWMutex
	services map[string]*serviceState
}

func NewService(resolver tasks.ServiceResolver, store recordstore.Store, notifier notify.Notifier) *taskService {
	return &taskService{
		resolver: resolver,
		store:    store,
		notifier: notifier,
		services: make(map[string]*serviceState),
	}
}

// Load pulls every known service's records into memory. Called once at
// startup before the first command is accepted.
func (s *taskService) Load(ctx context.Context) error {
	serviceIDs, err := s.store.Services(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover services: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, serviceID := range serviceIDs {
		records, err := s.store.Load(ctx, serviceID)
		if err != nil {
			return fmt.Errorf("failed to load records for %s: %w", serviceID, err)
		}

		state := &serviceState{records: make([]*tasks.Task, 0, len(records))}
		for i := range records {
			rec := records[i]
			state.records = append(state.records, &rec)
		}
		s.services[serviceID] = state

		slog.Info("service records loaded",
			slog.String("service_id", serviceID),
			slog.Int("records", len(records)),
		)
	}

	return nil
}

func (s *taskService) HasService(serviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.services[serviceID]
	return ok
}

func (s *taskService) state(serviceID string) (*serviceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.services[serviceID]
	return state, ok
}

func (s *taskService) Allocate(ctx context.Context, clientID string) (*tasks.Allocation, error) {
	serviceID, ok := s.resolver.ServiceFor(clientID)
	if !ok {
		return nil, tasks.ErrNoServiceForClient
	}

	state, ok := s.state(serviceID)
	if !ok {
		// a registered client whose service has no record set looks the
		// same as an exhausted service
		return nil, tasks.ErrNoTaskAvailable
	}

	allocation, event, err := func() (*tasks.Allocation, *tasks.Event, error) {
		state.mu.Lock()
		defer state.mu.Unlock()

		rec := findUnallocated(state.records)
		if rec == nil {
			return nil, nil, tasks.ErrNoTaskAvailable
		}

		prev := *rec
		rec.Status = tasks.StatusInProgress
		rec.Holder = clientID

		if err := s.persist(ctx, serviceID, state); err != nil {
			*rec = prev
			return nil, nil, err
		}

		event := &tasks.Event{
			Type:        tasks.EventTaskAllocated,
			ServiceID:   serviceID,
			TaskID:      rec.ID,
			Description: rec.Description,
			Status:      rec.Status,
			ClientID:    clientID,
		}
		return &tasks.Allocation{TaskID: rec.ID, Description: rec.Description}, event, nil
	}()
	if err != nil {
		return nil, err
	}

	slog.Info("task allocated",
		slog.String("service_id", serviceID),
		slog.String("task_id", allocation.TaskID),
		slog.String("client_id", clientID),
	)
	s.notifier.Publish(event)

	return allocation, nil
}

func (s *taskService) Complete(ctx context.Context, clientID, ref string) (*tasks.Task, error) {
	serviceID, ok := s.resolver.ServiceFor(clientID)
	if !ok {
		return nil, tasks.ErrNoServiceForClient
	}

	state, ok := s.state(serviceID)
	if !ok {
		return nil, tasks.ErrTaskNotFound
	}

	completed, event, err := func() (*tasks.Task, *tasks.Event, error) {
		state.mu.Lock()
		defer state.mu.Unlock()

		rec := findByRef(state.records, ref)
		if rec == nil {
			return nil, nil, tasks.ErrTaskNotFound
		}

		if rec.Status == tasks.StatusCompleted {
			// idempotent re-completion, nothing to persist or announce
			copied := *rec
			return &copied, nil, nil
		}

		if rec.Holder != "" && rec.Holder != clientID {
			slog.Warn("task completed by a client that does not hold it",
				slog.String("service_id", serviceID),
				slog.String("task_id", rec.ID),
				slog.String("holder", rec.Holder),
				slog.String("client_id", clientID),
			)
		}

		prev := *rec
		rec.Status = tasks.StatusCompleted
		rec.Holder = clientID

		if err := s.persist(ctx, serviceID, state); err != nil {
			*rec = prev
			return nil, nil, err
		}

		copied := *rec
		event := &tasks.Event{
			Type:        tasks.EventTaskCompleted,
			ServiceID:   serviceID,
			TaskID:      rec.ID,
			Description: rec.Description,
			Status:      rec.Status,
			ClientID:    clientID,
		}
		return &copied, event, nil
	}()
	if err != nil {
		return nil, err
	}

	if event != nil {
		slog.Info("task completed",
			slog.String("service_id", serviceID),
			slog.String("task_id", completed.ID),
			slog.String("client_id", clientID),
		)
		s.notifier.Publish(event)
	}

	return completed, nil
}

func (s *taskService) AddTask(ctx context.Context, serviceID, description string) (*tasks.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, tasks.ErrInvalidDescription
	}

	state, ok := s.state(serviceID)
	if !ok {
		return nil, tasks.ErrServiceNotFound
	}

	added, event, err := func() (*tasks.Task, *tasks.Event, error) {
		state.mu.Lock()
		defer state.mu.Unlock()

		rec := &tasks.Task{
			ID:          uuid.NewString(),
			Description: description,
			Status:      tasks.StatusUnallocated,
		}
		state.records = append(state.records, rec)

		if err := s.persist(ctx, serviceID, state); err != nil {
			state.records = state.records[:len(state.records)-1]
			return nil, nil, err
		}

		copied := *rec
		event := &tasks.Event{
			Type:        tasks.EventTaskAdded,
			ServiceID:   serviceID,
			TaskID:      rec.ID,
			Description: rec.Description,
			Status:      rec.Status,
		}
		return &copied, event, nil
	}()
	if err != nil {
		return nil, err
	}

	slog.Info("task added",
		slog.String("service_id", serviceID),
		slog.String("task_id", added.ID),
	)
	s.notifier.Publish(event)

	return added, nil
}

func (s *taskService) ChangeStatus(ctx context.Context, serviceID, ref string, newStatus tasks.Status, holder string) (*tasks.Task, error) {
	if _, err := tasks.ParseStatus(string(newStatus)); err != nil {
		return nil, err
	}

	holder = strings.TrimSpace(holder)
	if newStatus == tasks.StatusUnallocated {
		holder = ""
	} else if holder == "" || !tasks.ValidHolder(holder) {
		// holder must identify a worker whenever the task is not unallocated
		return nil, tasks.ErrInvalidHolder
	}

	state, ok := s.state(serviceID)
	if !ok {
		return nil, tasks.ErrServiceNotFound
	}

	changed, event, err := func() (*tasks.Task, *tasks.Event, error) {
		state.mu.Lock()
		defer state.mu.Unlock()

		rec := findByRef(state.records, ref)
		if rec == nil {
			return nil, nil, tasks.ErrTaskNotFound
		}

		prev := *rec
		rec.Status = newStatus
		rec.Holder = holder

		if err := s.persist(ctx, serviceID, state); err != nil {
			*rec = prev
			return nil, nil, err
		}

		copied := *rec
		event := &tasks.Event{
			Type:        tasks.EventTaskStatusChanged,
			ServiceID:   serviceID,
			TaskID:      rec.ID,
			Description: rec.Description,
			Status:      rec.Status,
			ClientID:    holder,
		}
		return &copied, event, nil
	}()
	if err != nil {
		return nil, err
	}

	slog.Info("task status changed",
		slog.String("service_id", serviceID),
		slog.String("task_id", changed.ID),
		slog.String("status", string(changed.Status)),
	)
	s.notifier.Publish(event)

	return changed, nil
}

func (s *taskService) ConsultTasks(ctx context.Context, serviceID string) ([]tasks.Task, error) {
	state, ok := s.state(serviceID)
	if !ok {
		return nil, tasks.ErrServiceNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	out := make([]tasks.Task, 0, len(state.records))
	for _, rec := range state.records {
		out = append(out, *rec)
	}
	return out, nil
}

// persist mirrors the in-memory records to the store. Callers hold the
// service lock and roll back on error.
func (s *taskService) persist(ctx context.Context, serviceID string, state *serviceState) error {
	records := make([]tasks.Task, 0, len(state.records))
	for _, rec := range state.records {
		records = append(records, *rec)
	}

	if err := s.store.Save(ctx, serviceID, records); err != nil {
		slog.Error("record save failed",
			slog.String("service_id", serviceID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %v", tasks.ErrPersist, err)
	}
	return nil
}

func findUnallocated(records []*tasks.Task) *tasks.Task {
	for _, rec := range records {
		if rec.Status == tasks.StatusUnallocated {
			return rec
		}
	}
	return nil
}

// findByRef matches the stable task id first, then falls back to the
// legacy description lookup. First match wins on duplicate descriptions.
func findByRef(records []*tasks.Task, ref string) *tasks.Task {
	ref = strings.TrimSpace(ref)
	for _, rec := range records {
		if rec.ID == ref {
			return rec
		}
	}
	for _, rec := range records {
		if rec.Description == ref {
			return rec
		}
	}
	return nil
}
