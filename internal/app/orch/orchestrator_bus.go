package orch

import (
	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

// onEngineMessage forwards every bus message to the call-media channel and
// reports errors. It never changes session state and keeps the watch.
func (o *Orchestrator) onEngineMessage(s *Session, msg core.Message) bool {
	if s.channel != nil {
		s.channel.BusMessage(msg)
	}
	switch msg.Kind {
	case core.MessageError:
		debug := msg.Debug
		if debug == "" {
			debug = "none"
		}
		s.log.Error().
			Str("element", msg.Source).
			Str("error", errText(msg.Err)).
			Str("debug", debug).
			Msg("engine error")
		o.Metrics.EngineError(msg.Source)
	case core.MessageWarning:
		s.log.Warn().Str("element", msg.Source).Str("warning", errText(msg.Err)).Str("debug", msg.Debug).Msg("engine warning")
	}
	return true
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
