package protocol

import "strings"

const (
	CmdConnect      Kind = "CONNECT"
	CmdClientID     Kind = "CLIENT_ID"
	CmdPassword     Kind = "PASSWORD"
	CmdAdminService Kind = "ADMIN_SERVICE_ID"
	CmdRequestTask  Kind = "REQUEST_TASK"
	CmdTaskComplete Kind = "TASK_COMPLETED"
	CmdSubscribe    Kind = "SUBSCRIBE"
	CmdUnsubscribe  Kind = "UNSUBSCRIBE"
	CmdAddTask      Kind = "ADD_TASK"
	CmdConsultTasks Kind = "CONSULT_TASKS"
	CmdChangeStatus Kind = "CHANGE_TASK_STATUS"
	CmdDisconnect   Kind = "DISCONNECT"
	CmdUnknown      Kind = ""
)

type Kind string

// Command is one parsed inbound line: a verb and its argument, which is
// everything after the first colon with surrounding whitespace trimmed.
type Command struct {
	Kind Kind
	Arg  string
}

var known = map[string]Kind{
	string(CmdConnect):      CmdConnect,
	string(CmdClientID):     CmdClientID,
	string(CmdPassword):     CmdPassword,
	string(CmdAdminService): CmdAdminService,
	string(CmdRequestTask):  CmdRequestTask,
	string(CmdTaskComplete): CmdTaskComplete,
	string(CmdSubscribe):    CmdSubscribe,
	string(CmdUnsubscribe):  CmdUnsubscribe,
	string(CmdAddTask):      CmdAddTask,
	string(CmdConsultTasks): CmdConsultTasks,
	string(CmdChangeStatus): CmdChangeStatus,
	string(CmdDisconnect):   CmdDisconnect,
}

// ParseCommand splits a wire line into verb and argument. The verb is
// case-insensitive; unknown verbs yield CmdUnknown.
func ParseCommand(line string) Command {
	verb := strings.TrimSpace(line)
	arg := ""

	if i := strings.Index(line, ":"); i >= 0 {
		verb = strings.TrimSpace(line[:i])
		arg = strings.TrimSpace(line[i+1:])
	}

	kind, ok := known[strings.ToUpper(verb)]
	if !ok {
		return Command{Kind: CmdUnknown, Arg: arg}
	}
	return Command{Kind: kind, Arg: arg}
}
