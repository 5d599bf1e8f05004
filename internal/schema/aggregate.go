package schema

import (
	"fmt"

	"marketmind/internal/domain"
)

// Fixed scales for the derived sector metrics. growth_rate is a recent/prior
// founding-count ratio clamped to [0, GrowthRateMax]; risk_score and
// saturation_score are fractions in [0, 1].
const GrowthRateMax = 10.0

// ValidateAggregate checks a sector aggregate against its strict schema:
// counts non-negative and internally consistent, funding metrics
// non-negative, scores within their fixed scales.
func ValidateAggregate(agg domain.SectorAggregate) error {
	var violations []FieldError

	if !agg.Sector.IsValid() {
		violations = append(violations, FieldError{
			Field:  "sector",
			Reason: ReasonNotInEnum,
			Detail: string(agg.Sector),
		})
	}

	counts := map[string]int{
		"total_startups":    agg.TotalStartups,
		"active_startups":   agg.ActiveStartups,
		"closed_startups":   agg.ClosedStartups,
		"acquired_startups": agg.AcquiredStartups,
	}
	for field, n := range counts {
		if n < 0 {
			violations = append(violations, FieldError{Field: field, Reason: ReasonOutOfRange, Detail: "negative"})
		}
	}
	if agg.ActiveStartups+agg.ClosedStartups+agg.AcquiredStartups > agg.TotalStartups {
		violations = append(violations, FieldError{
			Field:  "total_startups",
			Reason: ReasonOutOfRange,
			Detail: "status counts exceed total",
		})
	}

	funding := map[string]float64{
		"total_funding":           agg.TotalFunding,
		"avg_funding_per_startup": agg.AvgFundingPerStartup,
		"median_funding":          agg.MedianFunding,
		"avg_funding_rounds":      agg.AvgFundingRounds,
	}
	for field, f := range funding {
		if f < 0 {
			violations = append(violations, FieldError{Field: field, Reason: ReasonOutOfRange, Detail: "negative"})
		}
	}

	if agg.GrowthRate < 0 || agg.GrowthRate > GrowthRateMax {
		violations = append(violations, FieldError{
			Field:  "growth_rate",
			Reason: ReasonOutOfRange,
			Detail: fmt.Sprintf("%g not in [0, %g]", agg.GrowthRate, GrowthRateMax),
		})
	}
	for field, score := range map[string]float64{
		"risk_score":       agg.RiskScore,
		"saturation_score": agg.SaturationScore,
	} {
		if score < 0 || score > 1 {
			violations = append(violations, FieldError{
				Field:  field,
				Reason: ReasonOutOfRange,
				Detail: fmt.Sprintf("%g not in [0, 1]", score),
			})
		}
	}

	return errorOrNil(violations)
}
