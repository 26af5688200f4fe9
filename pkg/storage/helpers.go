package storage

import (
	"database/sql"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// parseTimestamp parses a column written by strftime('%Y-%m-%dT%H:%M:%fZ').
// A malformed or empty value is treated as the zero time rather than an
// error — timestamps are diagnostic, never load-bearing for correctness.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTimestamp(ns.String)
	return &t
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
