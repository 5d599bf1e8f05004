// Package source provides the record feeds the ingestion stage reads from.
// A source yields untyped records; the raw schema decides what is usable.
package source

import (
	"context"
	"io"
)

// Source is a pull-based record feed. Next returns io.EOF when the feed is
// exhausted. Records are untyped mappings because feeds are never trusted
// to match any schema.
type Source interface {
	Next(ctx context.Context) (map[string]any, error)
}

// slice adapts an in-memory record slice, used by tests and the generator.
type slice struct {
	records []map[string]any
	pos     int
}

// FromRecords wraps pre-built records in a Source.
func FromRecords(records []map[string]any) Source {
	return &slice{records: records}
}

func (s *slice) Next(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}
