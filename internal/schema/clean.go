package schema

import (
	"fmt"

	"marketmind/internal/domain"
)

// ValidateClean checks every invariant of the clean schema. All fields are
// required; sector and status must be enum members, numeric fields must be
// in range, and the derived funding fields must be consistent with
// funding_rounds (zero rounds means all four are nil).
func ValidateClean(rec domain.CleanStartup) error {
	var violations []FieldError

	if rec.ID == "" {
		violations = append(violations, FieldError{Field: "_id", Reason: ReasonMissing})
	}
	if rec.Name == "" {
		violations = append(violations, FieldError{Field: "name", Reason: ReasonMissing})
	}
	if !rec.Sector.IsValid() {
		violations = append(violations, FieldError{
			Field:  "sector",
			Reason: ReasonNotInEnum,
			Detail: string(rec.Sector),
		})
	}
	if !rec.Status.IsValid() {
		violations = append(violations, FieldError{
			Field:  "status",
			Reason: ReasonNotInEnum,
			Detail: string(rec.Status),
		})
	}
	if rec.FoundedYear < MinYear || rec.FoundedYear > MaxYear {
		violations = append(violations, FieldError{
			Field:  "founded_year",
			Reason: ReasonOutOfRange,
			Detail: fmt.Sprintf("%d not in [%d, %d]", rec.FoundedYear, MinYear, MaxYear),
		})
	}
	if rec.FundingRounds < 0 {
		violations = append(violations, FieldError{Field: "funding_rounds", Reason: ReasonOutOfRange, Detail: "negative"})
	}
	if rec.TotalFunding < 0 {
		violations = append(violations, FieldError{Field: "total_funding", Reason: ReasonOutOfRange, Detail: "negative"})
	}
	if rec.EmployeeCount < 0 && rec.EmployeeCount != domain.EmployeeCountUnknown {
		violations = append(violations, FieldError{Field: "employee_count", Reason: ReasonOutOfRange, Detail: "negative"})
	}

	violations = append(violations, checkDerived(rec)...)
	violations = append(violations, checkYearField("first_funding_year", rec.FirstFundingYear)...)
	violations = append(violations, checkYearField("last_funding_year", rec.LastFundingYear)...)
	violations = append(violations, checkNonNegative("time_to_first_funding_days", rec.TimeToFirstFundingDays)...)
	violations = append(violations, checkNonNegative("time_to_last_funding_days", rec.TimeToLastFundingDays)...)

	return errorOrNil(violations)
}

// checkDerived enforces the funding-rounds consistency invariant: a startup
// with zero rounds cannot have any derived funding field set.
func checkDerived(rec domain.CleanStartup) []FieldError {
	if rec.FundingRounds > 0 {
		return nil
	}
	var violations []FieldError
	derived := map[string]bool{
		"first_funding_year":         rec.FirstFundingYear != nil,
		"last_funding_year":          rec.LastFundingYear != nil,
		"time_to_first_funding_days": rec.TimeToFirstFundingDays != nil,
		"time_to_last_funding_days":  rec.TimeToLastFundingDays != nil,
	}
	for field, set := range derived {
		if set {
			violations = append(violations, FieldError{
				Field:  field,
				Reason: ReasonOutOfRange,
				Detail: "set while funding_rounds is 0",
			})
		}
	}
	if rec.LastFundingDate != nil {
		violations = append(violations, FieldError{
			Field:  "last_funding_date",
			Reason: ReasonOutOfRange,
			Detail: "set while funding_rounds is 0",
		})
	}
	return violations
}

func checkYearField(field string, v *int) []FieldError {
	if v == nil || (*v >= MinYear && *v <= MaxYear) {
		return nil
	}
	return []FieldError{{
		Field:  field,
		Reason: ReasonOutOfRange,
		Detail: fmt.Sprintf("%d not in [%d, %d]", *v, MinYear, MaxYear),
	}}
}

func checkNonNegative(field string, v *int) []FieldError {
	if v == nil || *v >= 0 {
		return nil
	}
	return []FieldError{{Field: field, Reason: ReasonOutOfRange, Detail: "negative"}}
}
