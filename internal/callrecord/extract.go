package callrecord

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"call-duration-analyzer/internal/domain"
	"call-duration-analyzer/internal/payload"
)

const (
	DefaultDashboardBaseURL = "https://hellocounsel-dashboard.vercel.app/calls"
	DefaultDashboardParams  = "f=0&e=production&s=N4IgJgtiBcIJ4FMDOAXBAnMBDOIA0ISYMIATAAykBsAtOQIw2kAs%2BICxsF1djAzPRABfIA"
)

// Extractor pulls report fields out of decoded webhook documents.
type Extractor struct {
	baseURL string
	params  string
}

// NewExtractor builds an Extractor linking calls to the dashboard at baseURL.
// params is a pre-encoded query string appended before the call id; empty
// values fall back to the production dashboard.
func NewExtractor(baseURL, params string) *Extractor {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultDashboardBaseURL
	}
	params = strings.Trim(strings.TrimSpace(params), "?&")
	if params == "" {
		params = DefaultDashboardParams
	}
	return &Extractor{baseURL: baseURL, params: params}
}

// Extract builds the call record for doc. It reports false when the document
// does not carry message.call.id, which is normal for non-call webhooks.
func (e *Extractor) Extract(doc domain.Document) (domain.CallRecord, bool) {
	message := payload.Object(doc, "message")

	rawID, ok := payload.Lookup(message, "call", "id")
	if !ok || !truthy(rawID) {
		return domain.CallRecord{}, false
	}
	callID := idString(rawID)

	rec := domain.CallRecord{
		CallID:       callID,
		DashboardURL: e.DashboardURL(callID),
		StartedAt:    message["startedAt"],
		EndedAt:      message["endedAt"],
		EndedReason:  message["endedReason"],
	}
	if d, ok := payload.Lookup(message, "durationSeconds"); ok {
		rec.VapiCallDuration = d
	}
	if last, ok := payload.Last(message, "artifact", "messages"); ok {
		if m, isObj := last.(map[string]any); isObj {
			if ts, ok := m["secondsFromStart"]; ok && ts != nil {
				rec.LastMessageTimeStamp = ts
			}
		}
	}
	if rec.VapiCallDuration != nil && rec.LastMessageTimeStamp != nil {
		d, dOK := ToFloat(rec.VapiCallDuration)
		l, lOK := ToFloat(rec.LastMessageTimeStamp)
		if dOK && lOK {
			diff := d - l
			rec.Difference = &diff
		}
	}
	return rec, true
}

// DashboardURL links callID on the dashboard.
func (e *Extractor) DashboardURL(callID string) string {
	return e.baseURL + "?" + e.params + "&c=" + url.QueryEscape(callID)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
