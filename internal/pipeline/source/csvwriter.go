package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// feedColumns is the canonical column order for generated CSV feeds.
var feedColumns = []string{
	"name", "sector", "founded_year", "funding_rounds", "total_funding",
	"last_funding_date", "status", "country", "city", "employee_count",
	"first_funding_year", "last_funding_year",
	"time_to_first_funding_days", "time_to_last_funding_days",
}

// WriteCSV drains src into w as a header-rowed CSV feed and returns the
// number of records written. Missing fields become empty cells, which the
// CSV reader turns back into absent fields on the way in.
func WriteCSV(ctx context.Context, w io.Writer, src Source) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(feedColumns); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	count := 0
	for {
		rec, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return count, err
		}

		row := make([]string, len(feedColumns))
		for i, col := range feedColumns {
			row[i] = formatCell(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return count, fmt.Errorf("write csv row: %w", err)
		}
		count++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush csv: %w", err)
	}
	return count, nil
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
