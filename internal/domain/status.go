package domain

// CallInfo is the externally visible status record of one call.
type CallInfo struct {
	ReceivingAudio bool     `json:"receiving_audio"`
	ReceivingVideo bool     `json:"receiving_video"`
	Channel        CallPath `json:"channel"`
}
