package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind is a structured reviewer action delivered by the transport.
type ActionKind string

const (
	ActionApprove    ActionKind = "approve"
	ActionReject     ActionKind = "reject"
	ActionEdit       ActionKind = "edit"
	ActionCancelEdit ActionKind = "cancel_edit"
	ActionRegenerate ActionKind = "regenerate"
	ActionBack       ActionKind = "back"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionApprove, ActionReject, ActionEdit, ActionCancelEdit, ActionRegenerate, ActionBack:
		return true
	}
	return false
}

// Action is a reviewer-triggered operation on one request.
type Action struct {
	Kind      ActionKind
	RequestID int64
}

// Token is the deduplication identity of the action as presented by the
// trigger: two taps on the same button produce the same token.
func (a Action) Token() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.RequestID)
}

// ParseAction decodes transport callback data of the form "<kind>:<request_id>".
func ParseAction(data string) (Action, error) {
	kind, idStr, ok := strings.Cut(data, ":")
	if !ok {
		return Action{}, fmt.Errorf("malformed action data %q", data)
	}

	k := ActionKind(kind)
	if !k.Valid() {
		return Action{}, fmt.Errorf("unknown action kind %q", kind)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return Action{}, fmt.Errorf("malformed request id in action data %q", data)
	}

	return Action{Kind: k, RequestID: id}, nil
}
