package core

import "github.com/freedesktop/telepathy-phoenix/internal/domain"

// StatusExporter is a write-only sink for per-call status.
type StatusExporter interface {
	Publish(id domain.SessionID, info domain.CallInfo)
	Unpublish(id domain.SessionID)
}
