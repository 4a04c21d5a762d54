package dto

type ConsumeTrialRequest struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

type TrialAnalyzeRequest struct {
	ChannelID string `json:"channel_id"`
}

type ResetTrialRequest struct {
	Fingerprint string `json:"fingerprint"`
}
