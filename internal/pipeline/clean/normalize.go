package clean

import (
	"strings"
	"time"

	"marketmind/internal/domain"
	"marketmind/internal/schema"
)

// dateLayouts are the calendar representations feeds actually use, tried in
// order. Times are treated as UTC dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// normalize maps a raw record onto a clean candidate. It returns a
// ValidationError when a field that identity or invariants depend on cannot
// be normalized (unknown sector, missing founded_year); purely descriptive
// fields degrade to defaults instead.
func normalize(raw domain.RawStartup, processedAt time.Time) (domain.CleanStartup, error) {
	var violations []schema.FieldError

	sector, ok := domain.ParseSector(raw.Sector)
	if !ok {
		violations = append(violations, schema.FieldError{
			Field:  "sector",
			Reason: schema.ReasonNotInEnum,
			Detail: raw.Sector,
		})
	}
	// The dedup key needs founded_year; a record without one cannot be
	// deduplicated and is rejected rather than guessed at.
	if raw.FoundedYear == nil {
		violations = append(violations, schema.FieldError{Field: "founded_year", Reason: schema.ReasonMissing})
	}
	if len(violations) > 0 {
		return domain.CleanStartup{}, &schema.ValidationError{Fields: violations}
	}

	rec := domain.CleanStartup{
		Name:        strings.TrimSpace(raw.Name),
		Sector:      sector,
		FoundedYear: *raw.FoundedYear,
		Status:      domain.StatusUnknown,
		ProcessedAt: processedAt,
	}
	if raw.Status != nil {
		rec.Status = domain.ParseStatus(*raw.Status)
	}
	if raw.Country != nil {
		rec.Country = strings.TrimSpace(*raw.Country)
	}
	if raw.City != nil {
		rec.City = strings.TrimSpace(*raw.City)
	}

	// Missing total_funding means none reported: default 0. Missing
	// employee_count is genuinely unknown, which is not the same as 0.
	if raw.TotalFunding != nil {
		rec.TotalFunding = *raw.TotalFunding
	}
	rec.EmployeeCount = domain.EmployeeCountUnknown
	if raw.EmployeeCount != nil {
		rec.EmployeeCount = *raw.EmployeeCount
	}
	if raw.FundingRounds != nil {
		rec.FundingRounds = *raw.FundingRounds
	}

	derive(&rec, raw)

	rec.FundingStage = domain.FundingStageFor(rec.FundingRounds, rec.TotalFunding)
	rec.CapitalRange = domain.CapitalRangeFor(rec.TotalFunding)
	rec.ID = rec.Key().DocumentID()
	return rec, nil
}

// derive fills the funding-derived fields. With zero rounds everything
// stays nil, enforcing the clean schema's consistency invariant at the
// point of construction. Feed-provided values win over computed ones; the
// founding date is approximated as Jan 1 of founded_year when a day-level
// computation is needed.
func derive(rec *domain.CleanStartup, raw domain.RawStartup) {
	if rec.FundingRounds <= 0 {
		return
	}

	var lastFundingDate *time.Time
	if raw.LastFundingDate != nil {
		if t, ok := parseDate(*raw.LastFundingDate); ok {
			lastFundingDate = &t
		}
	}
	rec.LastFundingDate = lastFundingDate

	rec.FirstFundingYear = raw.FirstFundingYear
	rec.TimeToFirstFundingDays = raw.TimeToFirstFundingDays

	switch {
	case raw.LastFundingYear != nil:
		rec.LastFundingYear = raw.LastFundingYear
	case lastFundingDate != nil:
		year := lastFundingDate.Year()
		rec.LastFundingYear = &year
	}

	switch {
	case raw.TimeToLastFundingDays != nil:
		rec.TimeToLastFundingDays = raw.TimeToLastFundingDays
	case lastFundingDate != nil:
		founded := time.Date(rec.FoundedYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		days := int(lastFundingDate.Sub(founded).Hours() / 24)
		if days >= 0 {
			rec.TimeToLastFundingDays = &days
		}
	}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
