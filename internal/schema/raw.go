package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"marketmind/internal/domain"
)

// Plausible-year bounds shared by the raw and clean schemas.
const (
	MinYear = 1900
	MaxYear = 2030
)

// ValidateRaw checks an untyped feed record against the raw schema and, on
// success, returns the typed RawStartup carrying every field the input
// provided. The raw schema is deliberately loose: only name and sector are
// required, numeric fields accept numeric strings, and no cross-field
// invariants are enforced. The caller assigns ID and IngestedAt.
func ValidateRaw(rec map[string]any) (domain.RawStartup, error) {
	var out domain.RawStartup
	var violations []FieldError

	requireString := func(field string) string {
		v, ok := rec[field]
		if !ok || v == nil {
			violations = append(violations, FieldError{Field: field, Reason: ReasonMissing})
			return ""
		}
		s, err := asString(v)
		if err != nil {
			violations = append(violations, FieldError{Field: field, Reason: ReasonWrongType, Detail: err.Error()})
			return ""
		}
		if strings.TrimSpace(s) == "" {
			violations = append(violations, FieldError{Field: field, Reason: ReasonMissing, Detail: "empty"})
			return ""
		}
		return s
	}

	optionalString := func(field string) *string {
		v, ok := rec[field]
		if !ok || v == nil {
			return nil
		}
		s, err := asString(v)
		if err != nil {
			violations = append(violations, FieldError{Field: field, Reason: ReasonWrongType, Detail: err.Error()})
			return nil
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return &s
	}

	optionalInt := func(field string, min, max int) *int {
		v, ok := rec[field]
		if !ok || v == nil {
			return nil
		}
		n, err := asInt(v)
		if err != nil {
			violations = append(violations, FieldError{Field: field, Reason: ReasonWrongType, Detail: err.Error()})
			return nil
		}
		if n < min || n > max {
			violations = append(violations, FieldError{
				Field:  field,
				Reason: ReasonOutOfRange,
				Detail: fmt.Sprintf("%d not in [%d, %d]", n, min, max),
			})
			return nil
		}
		return &n
	}

	optionalFloat := func(field string, min float64) *float64 {
		v, ok := rec[field]
		if !ok || v == nil {
			return nil
		}
		f, err := asFloat(v)
		if err != nil {
			violations = append(violations, FieldError{Field: field, Reason: ReasonWrongType, Detail: err.Error()})
			return nil
		}
		if f < min {
			violations = append(violations, FieldError{
				Field:  field,
				Reason: ReasonOutOfRange,
				Detail: fmt.Sprintf("%g below %g", f, min),
			})
			return nil
		}
		return &f
	}

	out.Name = requireString("name")
	out.Sector = requireString("sector")
	out.FoundedYear = optionalInt("founded_year", MinYear, MaxYear)
	out.FundingRounds = optionalInt("funding_rounds", 0, math.MaxInt32)
	out.TotalFunding = optionalFloat("total_funding", 0)
	out.LastFundingDate = optionalString("last_funding_date")
	out.Status = optionalString("status")
	out.Country = optionalString("country")
	out.City = optionalString("city")
	out.EmployeeCount = optionalInt("employee_count", 0, math.MaxInt32)
	out.FirstFundingYear = optionalInt("first_funding_year", MinYear, MaxYear)
	out.LastFundingYear = optionalInt("last_funding_year", MinYear, MaxYear)
	out.TimeToFirstFundingDays = optionalInt("time_to_first_funding_days", 0, math.MaxInt32)
	out.TimeToLastFundingDays = optionalInt("time_to_last_funding_days", 0, math.MaxInt32)

	if err := errorOrNil(violations); err != nil {
		return domain.RawStartup{}, err
	}
	return out, nil
}

// asString accepts string values only; everything else is a type error so
// that, e.g., a numeric name is surfaced instead of silently stringified.
func asString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

// asInt coerces the integer shapes a feed realistically produces: native
// ints, whole floats (JSON numbers), and numeric strings (CSV cells).
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %g", n)
		}
		return int(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, fmt.Errorf("expected integer, got empty string")
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			// CSV feeds commonly render integers as "3.0".
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != math.Trunc(f) {
				return 0, fmt.Errorf("expected integer, got %q", n)
			}
			return int(f), nil
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// asFloat coerces native numbers and numeric strings.
func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, fmt.Errorf("expected number, got empty string")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
