package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"call-duration-analyzer/internal/domain"
)

var header = []string{
	"callID",
	"vapiCallDuration",
	"lastMessageTimeStamp",
	"difference",
	"startedAt",
	"endedAt",
	"endedReason",
}

// FileName is the default report name for a run started at now.
func FileName(now time.Time) string {
	return "call_duration_analysis_" + now.Format("20060102_150405") + ".csv"
}

// WriteCSV writes one row per record. The callID cell is a spreadsheet
// HYPERLINK formula pointing at the dashboard.
func WriteCSV(w io.Writer, records []domain.CallRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			hyperlink(r.DashboardURL, r.CallID),
			cell(r.VapiCallDuration),
			cell(r.LastMessageTimeStamp),
			difference(r.Difference),
			cell(r.StartedAt),
			cell(r.EndedAt),
			cell(r.EndedReason),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: write row %q: %w", r.CallID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}

func hyperlink(url, label string) string {
	return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, url, label)
}

func difference(d *float64) string {
	if d == nil {
		return ""
	}
	return formatFloat(*d)
}

// cell renders a pass-through payload value. Absent values are empty.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return formatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// formatFloat keeps a trailing ".0" on whole numbers so integral seconds read
// as floats, e.g. 60.0.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}
