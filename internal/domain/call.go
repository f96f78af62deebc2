// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// CallsObjectPath is the prefix under which call sessions are exported.
const CallsObjectPath = "/org/freedesktop/Telepathy/Phoenix/Calls"

const MaxCallPathLen = 255

var (
	ErrCallPathEmpty   = errors.New("call path empty")
	ErrCallPathTooLong = errors.New("call path too long")
	ErrCallPathInvalid = errors.New("call path must start with '/'")
)

type (
	CallPath  string
	SessionID string
)

// NewCallPath allocates a fresh channel path for an inbound call.
func NewCallPath() CallPath {
	return CallPath("/channel/" + strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func ValidateCallPath(p string) error {
	switch {
	case p == "":
		return ErrCallPathEmpty
	case len(p) > MaxCallPathLen:
		return ErrCallPathTooLong
	case !strings.HasPrefix(p, "/"):
		return ErrCallPathInvalid
	}
	return nil
}

// SessionIDFromPath derives the session identifier of a call.
func SessionIDFromPath(p CallPath) SessionID {
	return SessionID(CallsObjectPath + string(p))
}

type CallState int

const (
	CallStateUnknown CallState = iota
	CallStatePendingInitiator
	CallStateInitialising
	CallStateInitialised
	CallStateAccepted
	CallStateActive
	CallStateEnded
)

func (s CallState) String() string {
	switch s {
	case CallStatePendingInitiator:
		return "pending-initiator"
	case CallStateInitialising:
		return "initialising"
	case CallStateInitialised:
		return "initialised"
	case CallStateAccepted:
		return "accepted"
	case CallStateActive:
		return "active"
	case CallStateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
