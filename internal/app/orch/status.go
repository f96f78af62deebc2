package orch

import (
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

// statusPublisher mirrors the session's status record into the exporter.
// Every change is published immediately.
type statusPublisher struct {
	exporter  core.StatusExporter
	id        domain.SessionID
	info      domain.CallInfo
	published bool
}

func newStatusPublisher(exp core.StatusExporter, id domain.SessionID, channel domain.CallPath) *statusPublisher {
	return &statusPublisher{
		exporter: exp,
		id:       id,
		info:     domain.CallInfo{Channel: channel},
	}
}

func (p *statusPublisher) publish() {
	if p.exporter == nil {
		return
	}
	p.exporter.Publish(p.id, p.info)
	p.published = true
}

// setReceiving flags kind as flowing. Reports whether the record changed.
func (p *statusPublisher) setReceiving(kind domain.MediaKind) bool {
	switch kind {
	case domain.MediaKindAudio:
		if p.info.ReceivingAudio {
			return false
		}
		p.info.ReceivingAudio = true
	case domain.MediaKindVideo:
		if p.info.ReceivingVideo {
			return false
		}
		p.info.ReceivingVideo = true
	default:
		return false
	}
	p.publish()
	return true
}

func (p *statusPublisher) unpublish() {
	if !p.published {
		return
	}
	p.exporter.Unpublish(p.id)
	p.published = false
}
