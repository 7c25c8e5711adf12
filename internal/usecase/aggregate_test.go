package usecase

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"call-duration-analyzer/internal/callrecord"
	"call-duration-analyzer/internal/domain"
)

func webhook(callID string, duration float64) map[string]any {
	return map[string]any{
		"message": map[string]any{
			"type":            "end-of-call-report",
			"call":            map[string]any{"id": callID},
			"durationSeconds": duration,
		},
	}
}

func compressed(t *testing.T, doc map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func callIDs(recs []domain.CallRecord) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.CallID)
	}
	return ids
}

func TestAggregate_KeepsFirstOccurrenceInOrder(t *testing.T) {
	records := []domain.RawRecord{
		{Payload: webhook("A", 10)},
		{Payload: webhook("B", 20)},
		{Payload: webhook("A", 99)},
		{Payload: webhook("C", 30)},
	}

	res := Aggregate(callrecord.NewExtractor("", ""), records)
	require.Equal(t, []string{"A", "B", "C"}, callIDs(res.Records))
	require.Equal(t, 10.0, res.Records[0].VapiCallDuration)
	require.Equal(t, 4, res.Total)
	require.Equal(t, 3, res.Unique())
	require.Equal(t, 1, res.Duplicates)
	require.Equal(t, 0, res.Skipped)
}

func TestAggregate_EmptyInput(t *testing.T) {
	res := Aggregate(callrecord.NewExtractor("", ""), nil)
	require.NotNil(t, res.Records)
	require.Empty(t, res.Records)
	require.Zero(t, res.Total)
}

func TestAggregate_MixedEncodingsAndUnusablePayloads(t *testing.T) {
	plain, err := json.Marshal(webhook("B", 20))
	require.NoError(t, err)

	records := []domain.RawRecord{
		{Payload: compressed(t, webhook("A", 10))},
		{Payload: "@@@ not a payload"},
		{Payload: string(plain)},
		{Payload: nil},
		{Payload: map[string]any{"message": map[string]any{"type": "status-update"}}},
		{Payload: compressed(t, webhook("B", 21))},
	}

	res := Aggregate(callrecord.NewExtractor("", ""), records)
	require.Equal(t, []string{"A", "B"}, callIDs(res.Records))
	require.Equal(t, json.Number("20"), res.Records[1].VapiCallDuration)
	require.Equal(t, 6, res.Total)
	require.Equal(t, 3, res.Skipped)
	require.Equal(t, 1, res.Duplicates)
}

func TestAggregator_AddReportsNewCalls(t *testing.T) {
	agg := NewAggregator(callrecord.NewExtractor("", ""))
	require.True(t, agg.Add(domain.RawRecord{Payload: webhook("A", 1)}))
	require.False(t, agg.Add(domain.RawRecord{Payload: webhook("A", 2)}))
	require.False(t, agg.Add(domain.RawRecord{Payload: "junk"}))
	require.Equal(t, 3, agg.Total())
}

func TestAggregator_StateIsPerInstance(t *testing.T) {
	ex := callrecord.NewExtractor("", "")
	first := NewAggregator(ex)
	first.Add(domain.RawRecord{Payload: webhook("A", 1)})

	second := NewAggregator(ex)
	require.True(t, second.Add(domain.RawRecord{Payload: webhook("A", 1)}))
}

func TestAggregate_ManyRecords(t *testing.T) {
	var records []domain.RawRecord
	for i := 0; i < 250; i++ {
		records = append(records, domain.RawRecord{Payload: webhook(fmt.Sprintf("call-%d", i%50), float64(i))})
	}
	res := Aggregate(callrecord.NewExtractor("", ""), records)
	require.Equal(t, 50, res.Unique())
	require.Equal(t, 200, res.Duplicates)
	for i, r := range res.Records {
		require.Equal(t, fmt.Sprintf("call-%d", i), r.CallID)
		require.Equal(t, float64(i), r.VapiCallDuration)
	}
}
