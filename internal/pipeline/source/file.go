package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Open picks a file source by extension: .csv or .json / .jsonl
// (newline-delimited JSON). The caller owns closing the returned source.
func Open(path string) (Source, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open feed: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		src, err := NewCSV(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		return src, f.Close, nil
	case ".json", ".jsonl":
		return NewJSONLines(f), f.Close, nil
	default:
		_ = f.Close()
		return nil, nil, fmt.Errorf("unsupported feed format: %s", filepath.Ext(path))
	}
}

// CSV streams a header-rowed CSV file. Empty cells are treated as absent
// fields, not empty strings, so the raw schema's optional handling applies.
type CSV struct {
	reader *csv.Reader
	header []string
}

func NewCSV(r io.Reader) (*CSV, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	return &CSV{reader: cr, header: header}, nil
}

func (s *CSV) Next(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := s.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read csv row: %w", err)
	}

	rec := make(map[string]any, len(s.header))
	for i, name := range s.header {
		if i >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		rec[name] = cell
	}
	return rec, nil
}

// JSONLines streams newline-delimited JSON objects.
type JSONLines struct {
	scanner *bufio.Scanner
}

func NewJSONLines(r io.Reader) *JSONLines {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &JSONLines{scanner: sc}
}

func (s *JSONLines) Next(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("decode json line: %w", err)
		}
		return rec, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return nil, io.EOF
}
