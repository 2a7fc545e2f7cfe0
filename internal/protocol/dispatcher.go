package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dxcccii/taskdesk/internal/services/notify"
	"github.com/dxcccii/taskdesk/internal/services/registry"
	"github.com/dxcccii/taskdesk/internal/services/tasks"
)

// Session is the per-connection command dispatcher. It owns the session
// state machine (identify, optional password, worker or admin mode) and
// maps domain errors to wire tokens. It performs no transport I/O.
type Session struct {
	registry *registry.Registry
	tasks    tasks.Service
	subs     *notify.Subscriptions

	clientID       string
	needsAuth      bool
	authed         bool
	adminServiceID string
	closed         bool
}

func NewSession(reg *registry.Registry, svc tasks.Service, subs *notify.Subscriptions) *Session {
	return &Session{
		registry: reg,
		tasks:    svc,
		subs:     subs,
	}
}

func (s *Session) ClientID() string { return s.clientID }

// Closed reports whether the client asked to disconnect.
func (s *Session) Closed() bool { return s.closed }

// Close releases the session's subscriptions. Idempotent.
func (s *Session) Close() {
	s.closed = true
	if s.clientID != "" {
		s.subs.DropClient(s.clientID)
	}
}

// Handle processes one inbound line and returns the response lines.
// Exactly one line for every command except CONSULT_TASKS, whose listing
// is terminated by EndOfResponse.
func (s *Session) Handle(ctx context.Context, line string) []string {
	cmd := ParseCommand(line)

	switch cmd.Kind {
	case CmdConnect:
		return []string{RespOK}

	case CmdDisconnect:
		s.closed = true
		return []string{RespOK}

	case CmdClientID:
		return []string{s.identify(cmd.Arg)}

	case CmdPassword:
		return []string{s.authenticate(cmd.Arg)}
	}

	if s.clientID == "" {
		return []string{RespForbidden}
	}
	if s.needsAuth && !s.authed {
		return []string{RespForbidden}
	}

	if tasks.IsAdmin(s.clientID) {
		return s.handleAdmin(ctx, cmd)
	}
	return s.handleWorker(ctx, cmd)
}

func (s *Session) identify(arg string) string {
	if arg == "" {
		return BadRequest("client id cannot be empty")
	}

	s.clientID = arg
	_, s.needsAuth = s.registry.Password(arg)
	s.authed = !s.needsAuth

	return IDConfirmed(arg)
}

func (s *Session) authenticate(arg string) string {
	if s.clientID == "" {
		return RespForbidden
	}

	parts := strings.SplitN(arg, ",", 2)
	if len(parts) != 2 {
		return BadRequest("expected PASSWORD:<client_id>,<password>")
	}

	clientID := strings.TrimSpace(parts[0])
	secret := strings.TrimSpace(parts[1])

	password, required := s.registry.Password(s.clientID)
	if clientID != s.clientID || !required || secret != password {
		return RespForbidden
	}

	s.authed = true
	return RespPasswordConfirmed
}

func (s *Session) handleWorker(ctx context.Context, cmd Command) []string {
	switch cmd.Kind {
	case CmdRequestTask:
		allocation, err := s.tasks.Allocate(ctx, s.clientID)
		if err != nil {
			return []string{responseForError(err)}
		}
		return []string{TaskAllocated(allocation.Description)}

	case CmdTaskComplete:
		if cmd.Arg == "" {
			return []string{BadRequest("task reference cannot be empty")}
		}
		task, err := s.tasks.Complete(ctx, s.clientID, cmd.Arg)
		if err != nil {
			return []string{responseForError(err)}
		}
		return []string{TaskMarkedCompleted(task.Description)}

	case CmdSubscribe:
		if !tasks.ValidServiceID(cmd.Arg) {
			return []string{BadRequest("invalid service id")}
		}
		if !s.tasks.HasService(cmd.Arg) {
			return []string{RespServiceNotFound}
		}
		if s.subs.Subscribe(s.clientID, cmd.Arg) {
			return []string{RespSubscribed}
		}
		return []string{RespAlreadySubscribed}

	case CmdUnsubscribe:
		if !tasks.ValidServiceID(cmd.Arg) {
			return []string{BadRequest("invalid service id")}
		}
		s.subs.Unsubscribe(s.clientID, cmd.Arg)
		return []string{RespUnsubscribed}

	default:
		return []string{RespBadRequest}
	}
}

func (s *Session) handleAdmin(ctx context.Context, cmd Command) []string {
	if cmd.Kind == CmdAdminService {
		return []string{s.selectService(cmd.Arg)}
	}

	switch cmd.Kind {
	case CmdAddTask, CmdConsultTasks, CmdChangeStatus:
		if s.adminServiceID == "" {
			return []string{RespServiceNotSelected}
		}
	default:
		return []string{RespBadRequest}
	}

	switch cmd.Kind {
	case CmdAddTask:
		if _, err := s.tasks.AddTask(ctx, s.adminServiceID, cmd.Arg); err != nil {
			return []string{responseForError(err)}
		}
		return []string{RespCreated}

	case CmdConsultTasks:
		records, err := s.tasks.ConsultTasks(ctx, s.adminServiceID)
		if err != nil {
			return []string{responseForError(err)}
		}
		lines := make([]string, 0, len(records)+1)
		for _, rec := range records {
			lines = append(lines, fmt.Sprintf("%s,%s,%s,%s", rec.ID, rec.Description, rec.Status, rec.Holder))
		}
		return append(lines, EndOfResponse)

	default: // CmdChangeStatus
		ref, status, holder, ok := splitStatusChange(cmd.Arg)
		if !ok {
			return []string{BadRequest("expected CHANGE_TASK_STATUS:<task>,<status>,<holder>")}
		}
		parsed, err := tasks.ParseStatus(status)
		if err != nil {
			return []string{responseForError(err)}
		}
		if _, err := s.tasks.ChangeStatus(ctx, s.adminServiceID, ref, parsed, holder); err != nil {
			return []string{responseForError(err)}
		}
		return []string{RespOK}
	}
}

func (s *Session) selectService(serviceID string) string {
	if !tasks.ValidServiceID(serviceID) {
		return BadRequest("invalid service id")
	}
	if !s.tasks.HasService(serviceID) {
		return RespServiceNotFound
	}

	s.adminServiceID = serviceID
	return RespServiceConfirmed
}

func splitStatusChange(arg string) (ref, status, holder string, ok bool) {
	parts := strings.SplitN(arg, ",", 3)
	if len(parts) < 2 {
		return "", "", "", false
	}

	ref = strings.TrimSpace(parts[0])
	status = strings.TrimSpace(parts[1])
	if len(parts) == 3 {
		holder = strings.TrimSpace(parts[2])
	}
	if ref == "" || status == "" {
		return "", "", "", false
	}
	return ref, status, holder, true
}

func responseForError(err error) string {
	switch {
	case errors.Is(err, tasks.ErrNoServiceForClient):
		return RespNoServiceForClient
	case errors.Is(err, tasks.ErrNoTaskAvailable):
		return RespNoTaskAvailable
	case errors.Is(err, tasks.ErrTaskNotFound):
		return RespTaskNotFound
	case errors.Is(err, tasks.ErrServiceNotFound):
		return RespServiceNotFound
	case errors.Is(err, tasks.ErrInvalidStatus):
		return BadRequest("invalid status")
	case errors.Is(err, tasks.ErrInvalidHolder):
		return BadRequest("invalid holder field")
	case errors.Is(err, tasks.ErrInvalidDescription):
		return BadRequest("task description cannot be empty")
	default:
		return RespInternalError
	}
}
