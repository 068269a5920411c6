package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type ActionKind string

const (
	ActionAcknowledge ActionKind = "ping_ack"
	ActionCloseNow    ActionKind = "ping_close"
)

// Action is a reply affordance attached to a notification, correlated back to
// a session.
type Action struct {
	Kind      ActionKind
	SessionID SessionID
	Label     string
}

func (a Action) Payload() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.SessionID)
}

func ParseActionPayload(raw string) (Action, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return Action{}, validationError("malformed action payload %q", raw)
	}

	action := Action{Kind: ActionKind(kind)}
	switch action.Kind {
	case ActionAcknowledge, ActionCloseNow:
	default:
		return Action{}, validationError("unknown action %q", kind)
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Action{}, validationError("invalid session id in action payload %q", raw)
	}
	action.SessionID = SessionID(n)

	return action, nil
}

func LivenessActions(id SessionID) []Action {
	return []Action{
		{Kind: ActionAcknowledge, SessionID: id, Label: "Still here"},
		{Kind: ActionCloseNow, SessionID: id, Label: "Close now"},
	}
}

// Notification is an outbound message. UserID targets a direct message,
// Channel targets a tenant channel; channels pick the target they support.
type Notification struct {
	TenantID    TenantID
	UserID      UserID
	Channel     string
	Text        string
	Actions     []Action
	Attachments []string
}
