package callrecord

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"call-duration-analyzer/internal/domain"
)

func callDoc(message map[string]any) domain.Document {
	return domain.Document{"message": message}
}

func TestExtract_RequiresCallID(t *testing.T) {
	e := NewExtractor("", "")

	for name, doc := range map[string]domain.Document{
		"empty document":  {},
		"empty message":   callDoc(map[string]any{}),
		"empty call":      callDoc(map[string]any{"call": map[string]any{}}),
		"null id":         callDoc(map[string]any{"call": map[string]any{"id": nil}}),
		"empty id":        callDoc(map[string]any{"call": map[string]any{"id": ""}}),
		"zero id":         callDoc(map[string]any{"call": map[string]any{"id": json.Number("0")}}),
		"call not object": callDoc(map[string]any{"call": "abc"}),
		"message not obj": {"message": []any{"x"}},
		"message is null": {"message": nil},
		"status update":   callDoc(map[string]any{"type": "status-update", "status": "ringing"}),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := e.Extract(doc)
			require.False(t, ok)
		})
	}
}

func TestExtract_FullRecord(t *testing.T) {
	e := NewExtractor("", "")
	doc := callDoc(map[string]any{
		"call":            map[string]any{"id": "call-1"},
		"durationSeconds": json.Number("62.5"),
		"startedAt":       "2025-01-01T10:00:00.000Z",
		"endedAt":         "2025-01-01T10:01:02.500Z",
		"endedReason":     "customer-ended-call",
		"artifact": map[string]any{
			"messages": []any{
				map[string]any{"secondsFromStart": json.Number("1")},
				map[string]any{"secondsFromStart": json.Number("60.0")},
			},
		},
	})

	rec, ok := e.Extract(doc)
	require.True(t, ok)
	require.Equal(t, "call-1", rec.CallID)
	require.Equal(t, json.Number("62.5"), rec.VapiCallDuration)
	require.Equal(t, json.Number("60.0"), rec.LastMessageTimeStamp)
	require.NotNil(t, rec.Difference)
	require.InDelta(t, 2.5, *rec.Difference, 1e-9)
	require.Equal(t, "2025-01-01T10:00:00.000Z", rec.StartedAt)
	require.Equal(t, "2025-01-01T10:01:02.500Z", rec.EndedAt)
	require.Equal(t, "customer-ended-call", rec.EndedReason)
	require.Equal(t, DefaultDashboardBaseURL+"?"+DefaultDashboardParams+"&c=call-1", rec.DashboardURL)
}

func TestExtract_LastMessageSelection(t *testing.T) {
	rec, ok := NewExtractor("", "").Extract(callDoc(map[string]any{
		"call": map[string]any{"id": "c"},
		"artifact": map[string]any{"messages": []any{
			map[string]any{"secondsFromStart": 1},
			map[string]any{"secondsFromStart": 9},
		}},
	}))
	require.True(t, ok)
	require.Equal(t, 9, rec.LastMessageTimeStamp)
	require.Nil(t, rec.Difference)
}

func TestExtract_MissingArtifactDegrades(t *testing.T) {
	rec, ok := NewExtractor("", "").Extract(callDoc(map[string]any{
		"call":            map[string]any{"id": "c"},
		"durationSeconds": 30.0,
	}))
	require.True(t, ok)
	require.Equal(t, "c", rec.CallID)
	require.Equal(t, 30.0, rec.VapiCallDuration)
	require.Nil(t, rec.LastMessageTimeStamp)
	require.Nil(t, rec.Difference)
	require.Nil(t, rec.StartedAt)
	require.Nil(t, rec.EndedReason)
}

func TestExtract_EmptyOrMalformedMessages(t *testing.T) {
	e := NewExtractor("", "")
	for name, artifact := range map[string]any{
		"empty list":       map[string]any{"messages": []any{}},
		"not a list":       map[string]any{"messages": "oops"},
		"last not object":  map[string]any{"messages": []any{"text"}},
		"last missing key": map[string]any{"messages": []any{map[string]any{"role": "bot"}}},
	} {
		t.Run(name, func(t *testing.T) {
			rec, ok := e.Extract(callDoc(map[string]any{
				"call":            map[string]any{"id": "c"},
				"durationSeconds": 10,
				"artifact":        artifact,
			}))
			require.True(t, ok)
			require.Nil(t, rec.LastMessageTimeStamp)
			require.Nil(t, rec.Difference)
		})
	}
}

func TestExtract_NonNumericDurationOmitsDifference(t *testing.T) {
	rec, ok := NewExtractor("", "").Extract(callDoc(map[string]any{
		"call":            map[string]any{"id": "c"},
		"durationSeconds": "about a minute",
		"artifact":        map[string]any{"messages": []any{map[string]any{"secondsFromStart": 60}}},
	}))
	require.True(t, ok)
	require.Equal(t, "about a minute", rec.VapiCallDuration)
	require.Nil(t, rec.Difference)
}

func TestExtract_NumericStringsStillProduceDifference(t *testing.T) {
	rec, ok := NewExtractor("", "").Extract(callDoc(map[string]any{
		"call":            map[string]any{"id": "c"},
		"durationSeconds": "12",
		"artifact":        map[string]any{"messages": []any{map[string]any{"secondsFromStart": " 2.5 "}}},
	}))
	require.True(t, ok)
	require.Equal(t, "12", rec.VapiCallDuration, "raw representation is kept")
	require.NotNil(t, rec.Difference)
	require.InDelta(t, 9.5, *rec.Difference, 1e-9)
}

func TestExtract_NumericCallID(t *testing.T) {
	rec, ok := NewExtractor("", "").Extract(callDoc(map[string]any{
		"call": map[string]any{"id": json.Number("1234")},
	}))
	require.True(t, ok)
	require.Equal(t, "1234", rec.CallID)
}

func TestDashboardURL(t *testing.T) {
	e := NewExtractor("https://dash.example/calls", "?e=staging&")
	require.Equal(t, "https://dash.example/calls?e=staging&c=abc-123", e.DashboardURL("abc-123"))
	require.Equal(t, "https://dash.example/calls?e=staging&c=a%26b+c", e.DashboardURL("a&b c"))
}
