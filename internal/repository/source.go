package repository

import "time"

const DefaultPageSize = 1000

// PageFunc is called after each page with the page number and the running
// record count.
type PageFunc func(page, total int)

type options struct {
	onPage PageFunc
}

type Option func(*options)

// WithPageHook registers fn to observe fetch progress.
func WithPageHook(fn PageFunc) Option {
	return func(o *options) {
		o.onPage = fn
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func normalizePageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTime accepts the timestamp spellings Postgres, SQLite and ISO writers
// produce. Unparseable values yield the zero time.
func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
