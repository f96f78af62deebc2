package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/rtc"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

type candidateMessage struct {
	Type          string  `json:"type"`
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// SendAnswer and SendCandidate let the connection act as the call's signaler.
func (c *wsSignalConn) SendAnswer(sdp webrtc.SessionDescription) {
	c.ctl.sendJSON(c, map[string]string{
		"type": "answer",
		"sdp":  sdp.SDP,
	})
}

func (c *wsSignalConn) SendCandidate(ci webrtc.ICECandidateInit) {
	c.ctl.sendJSON(c, candidateMessage{
		Type:          "candidate",
		Candidate:     ci.Candidate,
		SDPMid:        ci.SDPMid,
		SDPMLineIndex: ci.SDPMLineIndex,
	})
}

func (ctl *SignalWSController) handleOffer(
	client string,
	conn *wsSignalConn,
	data []byte,
) {
	type offerPayload struct {
		Type  string            `json:"type"`
		SDP   string            `json:"sdp"`
		Hints map[string]string `json:"hints"`
	}
	var p offerPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SDP == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if conn.Call() != nil {
		ctl.sendError(conn, "call_in_progress")
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(client) {
		log.Warn().Str("module", "signal").Str("client", client).Msg("offer rate limited")
		ctl.sendError(conn, "rate_limited")
		return
	}

	call, err := rtc.NewIncomingCall(ctl.Calls, p.SDP, conn)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc apply offer")
		ctl.sendError(conn, "bad_offer")
		return
	}
	if !conn.bindCall(call) {
		call.Close()
		ctl.sendError(conn, "call_in_progress")
		return
	}

	call.OnStateChanged(func(s domain.CallState) {
		ctl.sendStatus(conn, call.Path(), s)
	})
	call.OnInvalidated(func(reason error) {
		conn.unbindCall(call)
		log.Info().Str("module", "signal").Str("client", client).Str("channel", string(call.Path())).AnErr("reason", reason).Msg("call gone")
	})

	requests := []core.ChannelRequest{core.Hints(p.Hints)}
	ctl.Dispatcher.Post(func() {
		if err := ctl.Handler.OnNewCall(call, requests); err != nil {
			log.Error().Err(err).Str("module", "signal").Str("channel", string(call.Path())).Msg("call rejected")
			ctl.sendError(conn, "call_rejected")
			call.Close()
			return
		}
		call.Start()
	})
}

func (ctl *SignalWSController) handleCandidate(
	conn *wsSignalConn,
	data []byte,
) {
	var p candidateMessage
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	call := conn.Call()
	if call == nil {
		log.Warn().Str("module", "signal").Msg("candidate: no call")
		return
	}
	cand := webrtc.ICECandidateInit{
		Candidate:     p.Candidate,
		SDPMid:        p.SDPMid,
		SDPMLineIndex: p.SDPMLineIndex,
	}
	if err := call.AddICECandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("add ice candidate")
	}
}
