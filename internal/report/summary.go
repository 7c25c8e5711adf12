package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"call-duration-analyzer/internal/domain"
)

// Summary describes the difference column over calls where it is known.
type Summary struct {
	TotalCalls int     `json:"total_calls"`
	Count      int     `json:"calls_with_difference"`
	Mean       float64 `json:"mean_difference"`
	Max        float64 `json:"max_difference"`
	Min        float64 `json:"min_difference"`
}

func Summarize(records []domain.CallRecord) Summary {
	s := Summary{TotalCalls: len(records)}
	sum := 0.0
	for _, r := range records {
		if r.Difference == nil {
			continue
		}
		d := *r.Difference
		if s.Count == 0 {
			s.Max, s.Min = d, d
		}
		s.Max = math.Max(s.Max, d)
		s.Min = math.Min(s.Min, d)
		sum += d
		s.Count++
	}
	if s.Count > 0 {
		s.Mean = sum / float64(s.Count)
	}
	return s
}

// WriteSummary prints s the way the analysis console output reads.
func WriteSummary(w io.Writer, s Summary) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\nSummary Statistics\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Total unique calls: %d\n", s.TotalCalls)
	if s.Count == 0 {
		b.WriteString("No valid duration data found for comparison.\n")
	} else {
		fmt.Fprintf(&b, "Calls with valid duration data: %d\n", s.Count)
		fmt.Fprintf(&b, "Average difference (duration - lastMessage): %.2f seconds\n", s.Mean)
		fmt.Fprintf(&b, "Max difference: %.2f seconds\n", s.Max)
		fmt.Fprintf(&b, "Min difference: %.2f seconds\n", s.Min)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
