package usecase

import (
	"call-duration-analyzer/internal/domain"
	"call-duration-analyzer/internal/payload"
)

// Extractor turns a decoded webhook document into a call record.
type Extractor interface {
	Extract(doc domain.Document) (domain.CallRecord, bool)
}

// AggregateResult holds one record per call, in first-seen order.
type AggregateResult struct {
	Records    []domain.CallRecord
	Total      int
	Skipped    int
	Duplicates int
}

// Unique is the number of distinct calls kept.
func (r AggregateResult) Unique() int {
	return len(r.Records)
}

// Aggregator folds a stream of raw webhook records into call records, keeping
// the first record seen for each call id. It is not safe for concurrent use.
type Aggregator struct {
	extractor  Extractor
	seen       map[string]struct{}
	records    []domain.CallRecord
	total      int
	skipped    int
	duplicates int
}

func NewAggregator(ex Extractor) *Aggregator {
	return &Aggregator{
		extractor: ex,
		seen:      make(map[string]struct{}),
		records:   []domain.CallRecord{},
	}
}

// Add decodes and extracts raw. It reports whether raw introduced a new call.
func (a *Aggregator) Add(raw domain.RawRecord) bool {
	a.total++

	rec, ok := a.extractor.Extract(payload.Decode(raw.Payload))
	if !ok {
		a.skipped++
		return false
	}
	if _, dup := a.seen[rec.CallID]; dup {
		a.duplicates++
		return false
	}
	a.seen[rec.CallID] = struct{}{}
	a.records = append(a.records, rec)
	return true
}

// Total is the number of raw records added so far.
func (a *Aggregator) Total() int {
	return a.total
}

func (a *Aggregator) Result() AggregateResult {
	return AggregateResult{
		Records:    a.records,
		Total:      a.total,
		Skipped:    a.skipped,
		Duplicates: a.duplicates,
	}
}

// Aggregate runs records through a fresh Aggregator.
func Aggregate(ex Extractor, records []domain.RawRecord) AggregateResult {
	agg := NewAggregator(ex)
	for _, r := range records {
		agg.Add(r)
	}
	return agg.Result()
}
