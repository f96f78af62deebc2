package orch

import (
	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

func (o *Orchestrator) onConferenceAdded(s *Session, conf core.Element) {
	if !s.Live() {
		return
	}
	if o.Notifiers != nil {
		if n, ok := o.Notifiers.DefaultNotifier(conf); ok {
			n.Attach(s.graph.Graph())
			s.notifiers = append(s.notifiers, n)
		}
	}
	if err := s.graph.Insert(conf); err != nil {
		s.log.Warn().Err(err).Str("conference", conf.Name()).Msg("conference not inserted")
		return
	}
	if err := conf.SetState(core.StatePlaying); err != nil {
		s.log.Warn().Err(err).Str("conference", conf.Name()).Msg("conference did not start")
		return
	}
	s.log.Info().Str("conference", conf.Name()).Str("factory", conf.Factory()).Msg("conference added")
}

func (o *Orchestrator) onConferenceRemoved(s *Session, conf core.Element) {
	if !s.Live() {
		return
	}
	conf.SetLockedState(true)
	if err := conf.SetState(core.StateNull); err != nil {
		s.log.Debug().Err(err).Str("conference", conf.Name()).Msg("stop conference")
	}
	if err := s.graph.Remove(conf); err != nil {
		s.log.Debug().Err(err).Str("conference", conf.Name()).Msg("remove conference")
	}
	s.log.Info().Str("conference", conf.Name()).Msg("conference removed")
}
