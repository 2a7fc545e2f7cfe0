package protocol

import "fmt"

// Response tokens, one per command cycle. Bulk replies end with
// EndOfResponse so a line-oriented client knows where the payload stops.
const (
	RespOK                 = "100 OK"
	RespCreated            = "201 CREATED"
	RespBadRequest         = "400 BAD REQUEST"
	RespForbidden          = "403 FORBIDDEN"
	RespServiceNotSelected = "403 SERVICE_ID_NOT_SPECIFIED"
	RespTaskNotFound       = "404 TASK_NOT_FOUND"
	RespNoServiceForClient = "404 SERVICE_NOT_FOUND_FOR_CLIENT"
	RespInternalError      = "500 INTERNAL SERVER ERROR"
	RespPasswordConfirmed  = "PASSWORD_CONFIRMED"
	RespServiceConfirmed   = "SERVICE_CONFIRMED"
	RespServiceNotFound    = "SERVICE_NOT_FOUND"
	RespNoTaskAvailable    = "NO_TASK_AVAILABLE"
	RespSubscribed         = "SUBSCRIBED"
	RespAlreadySubscribed  = "ALREADY_SUBSCRIBED"
	RespUnsubscribed       = "UNSUBSCRIBED"

	EndOfResponse = "<END_OF_RESPONSE>"
)

func IDConfirmed(clientID string) string {
	return "ID_CONFIRMED:" + clientID
}

func TaskAllocated(description string) string {
	return "TASK_ALLOCATED:" + description
}

func TaskMarkedCompleted(description string) string {
	return "TASK_MARKED_AS_COMPLETED:" + description
}

func BadRequest(reason string) string {
	if reason == "" {
		return RespBadRequest
	}
	return fmt.Sprintf("%s:%s", RespBadRequest, reason)
}
