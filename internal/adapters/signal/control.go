package signal

import (
	"github.com/freedesktop/telepathy-phoenix/internal/adapters/rtc"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

func (ctl *SignalWSController) handlePing(
	conn *wsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) sendError(conn *wsSignalConn, code string) {
	ctl.sendJSON(conn, map[string]string{
		"type":  "error",
		"error": code,
	})
}

func (ctl *SignalWSController) sendStatus(conn *wsSignalConn, path domain.CallPath, state domain.CallState) {
	ctl.sendJSON(conn, map[string]string{
		"type":    "status",
		"channel": string(path),
		"state":   state.String(),
	})
}

// hangup ends the bound call, if any. Teardown follows from the Ended state.
func (ctl *SignalWSController) hangup(conn *wsSignalConn) {
	if call := conn.Call(); call != nil {
		call.Hangup(rtc.ErrHungUp)
	}
}
