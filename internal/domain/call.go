package domain

// CallRecord is the per-call row of the duration report.
//
// VapiCallDuration and LastMessageTimeStamp keep whatever type the payload
// carried; Difference is only set when both coerce to float64.
type CallRecord struct {
	CallID               string   `json:"callID"`
	DashboardURL         string   `json:"dashboardURL"`
	VapiCallDuration     any      `json:"vapiCallDuration"`
	LastMessageTimeStamp any      `json:"lastMessageTimeStamp"`
	Difference           *float64 `json:"difference"`
	StartedAt            any      `json:"startedAt"`
	EndedAt              any      `json:"endedAt"`
	EndedReason          any      `json:"endedReason"`
}
