package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"call-duration-analyzer/internal/domain"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// queryer is the subset of *sql.DB used by SQLSource.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLSource pages through a webhook dump table newest first.
type SQLSource struct {
	db       queryer
	query    string
	sinceArg func(time.Time) any
	pageSize int
	onPage   PageFunc
}

// NewSQLSource creates a SQLSource over table using dialect's placeholder style.
func NewSQLSource(db queryer, dialect Dialect, table string, pageSize int, opts ...Option) (*SQLSource, error) {
	if db == nil {
		return nil, errors.New("repository: db must not be nil")
	}
	table = strings.TrimSpace(table)
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("repository: invalid table name %q", table)
	}

	var (
		query    string
		sinceArg func(time.Time) any
	)
	switch dialect {
	case DialectPostgres:
		query = fmt.Sprintf("SELECT payload, received_at FROM %s WHERE received_at >= $1 ORDER BY received_at DESC LIMIT $2 OFFSET $3", table)
		sinceArg = func(t time.Time) any { return t }
	case DialectSQLite:
		// SQLite keeps timestamps as text; julianday compares instants
		// regardless of separator, precision or offset spelling.
		query = fmt.Sprintf("SELECT payload, received_at FROM %s WHERE julianday(received_at) >= julianday(?) ORDER BY julianday(received_at) DESC LIMIT ? OFFSET ?", table)
		sinceArg = func(t time.Time) any { return t.Format(time.RFC3339Nano) }
	default:
		return nil, fmt.Errorf("repository: unsupported dialect %q", dialect)
	}

	o := applyOptions(opts)
	return &SQLSource{
		db:       db,
		query:    query,
		sinceArg: sinceArg,
		pageSize: normalizePageSize(pageSize),
		onPage:   o.onPage,
	}, nil
}

// Fetch streams rows received at or after since. A short page ends the scan.
func (s *SQLSource) Fetch(ctx context.Context, since time.Time, fn func(domain.RawRecord) error) error {
	offset := 0
	for page := 1; ; page++ {
		n, err := s.fetchPage(ctx, since.UTC(), offset, fn)
		if err != nil {
			return err
		}
		offset += n
		if s.onPage != nil {
			s.onPage(page, offset)
		}
		if n < s.pageSize {
			return nil
		}
	}
}

func (s *SQLSource) fetchPage(ctx context.Context, since time.Time, offset int, fn func(domain.RawRecord) error) (int, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.sinceArg(since), s.pageSize, offset)
	if err != nil {
		return 0, fmt.Errorf("repository: query offset %d: %w", offset, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			payload    []byte
			receivedAt any
		)
		if err := rows.Scan(&payload, &receivedAt); err != nil {
			return n, fmt.Errorf("repository: scan row: %w", err)
		}
		n++
		rec := domain.RawRecord{
			Payload:    columnPayload(payload),
			ReceivedAt: columnTime(receivedAt),
		}
		if err := fn(rec); err != nil {
			return n, err
		}
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("repository: iterate rows: %w", err)
	}
	return n, nil
}

// columnPayload turns a payload column into what the decoder expects: JSON
// columns become maps or strings, text columns stay strings.
func columnPayload(b []byte) any {
	if b == nil {
		return nil
	}
	if json.Valid(b) {
		var v any
		dec := json.NewDecoder(strings.NewReader(string(b)))
		dec.UseNumber()
		if err := dec.Decode(&v); err == nil {
			return v
		}
	}
	return string(b)
}

func columnTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return time.Time{}
	}
}
