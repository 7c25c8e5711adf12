package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"call-duration-analyzer/internal/domain"
	"call-duration-analyzer/internal/report"
)

const defaultProgressEvery = 100

// RecordSource streams stored webhook records received at or after since.
type RecordSource interface {
	Fetch(ctx context.Context, since time.Time, fn func(domain.RawRecord) error) error
}

type AnalyzeService struct {
	source        RecordSource
	extractor     Extractor
	progressEvery int
	now           func() time.Time
}

type AnalyzeInput struct {
	Days int
}

type AnalyzeOutput struct {
	RunID      string
	Since      time.Time
	Records    []domain.CallRecord
	Fetched    int
	Skipped    int
	Duplicates int
	Summary    report.Summary
}

func NewAnalyzeService(src RecordSource, ex Extractor, progressEvery int) (*AnalyzeService, error) {
	if src == nil {
		return nil, errors.New("usecase: record source must not be nil")
	}
	if ex == nil {
		return nil, errors.New("usecase: extractor must not be nil")
	}
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}
	return &AnalyzeService{
		source:        src,
		extractor:     ex,
		progressEvery: progressEvery,
		now:           time.Now,
	}, nil
}

// Analyze streams the last in.Days of webhooks through the aggregator. An
// empty window is not an error; callers check Fetched and len(Records).
func (s *AnalyzeService) Analyze(ctx context.Context, in AnalyzeInput) (AnalyzeOutput, error) {
	if in.Days <= 0 {
		return AnalyzeOutput{}, newError(ErrorInvalidInput, "days_not_positive", nil)
	}

	runID := newUUID()
	since := s.now().UTC().AddDate(0, 0, -in.Days)
	log := slog.With("run_id", runID)
	log.Info("fetching webhooks", "days", in.Days, "since", since.Format(time.RFC3339))

	agg := NewAggregator(s.extractor)
	err := s.source.Fetch(ctx, since, func(raw domain.RawRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		agg.Add(raw)
		if n := agg.Total(); n%s.progressEvery == 0 {
			log.Info("processed webhooks", "count", n)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return AnalyzeOutput{}, newError(ErrorInternal, "cancelled", err)
		}
		return AnalyzeOutput{}, newError(ErrorSource, "fetch_error", err)
	}

	res := agg.Result()
	log.Info("aggregation complete",
		"fetched", res.Total,
		"unique_calls", res.Unique(),
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
	)

	return AnalyzeOutput{
		RunID:      runID,
		Since:      since,
		Records:    res.Records,
		Fetched:    res.Total,
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
		Summary:    report.Summarize(res.Records),
	}, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
