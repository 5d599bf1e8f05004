package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// EmployeeCountUnknown is the sentinel for a missing employee count. It is
// deliberately distinct from 0, which would mean "known to have no
// employees".
const EmployeeCountUnknown = -1

// RawStartup is an as-ingested record. Loose by design: beyond name and
// sector everything is optional and may be missing from the feed. Raw
// documents are append-only; downstream stages never mutate or delete them.
type RawStartup struct {
	ID                     string     `bson:"_id" json:"id"`
	Name                   string     `bson:"name" json:"name"`
	Sector                 string     `bson:"sector" json:"sector"`
	FoundedYear            *int       `bson:"founded_year,omitempty" json:"founded_year,omitempty"`
	FundingRounds          *int       `bson:"funding_rounds,omitempty" json:"funding_rounds,omitempty"`
	TotalFunding           *float64   `bson:"total_funding,omitempty" json:"total_funding,omitempty"`
	LastFundingDate        *string    `bson:"last_funding_date,omitempty" json:"last_funding_date,omitempty"`
	Status                 *string    `bson:"status,omitempty" json:"status,omitempty"`
	Country                *string    `bson:"country,omitempty" json:"country,omitempty"`
	City                   *string    `bson:"city,omitempty" json:"city,omitempty"`
	EmployeeCount          *int       `bson:"employee_count,omitempty" json:"employee_count,omitempty"`
	FirstFundingYear       *int       `bson:"first_funding_year,omitempty" json:"first_funding_year,omitempty"`
	LastFundingYear        *int       `bson:"last_funding_year,omitempty" json:"last_funding_year,omitempty"`
	TimeToFirstFundingDays *int       `bson:"time_to_first_funding_days,omitempty" json:"time_to_first_funding_days,omitempty"`
	TimeToLastFundingDays  *int       `bson:"time_to_last_funding_days,omitempty" json:"time_to_last_funding_days,omitempty"`
	IngestedAt             time.Time  `bson:"ingested_at" json:"ingested_at"`
}

// CleanStartup is a validated, normalized record. Every invariant the clean
// schema enforces holds by the time a value of this type is stored: sector
// and status are enum members, numeric fields are in range, and the derived
// funding fields are all nil exactly when FundingRounds is zero.
type CleanStartup struct {
	ID                     string       `bson:"_id" json:"id"`
	Name                   string       `bson:"name" json:"name"`
	Sector                 Sector       `bson:"sector" json:"sector"`
	FoundedYear            int          `bson:"founded_year" json:"founded_year"`
	FundingRounds          int          `bson:"funding_rounds" json:"funding_rounds"`
	TotalFunding           float64      `bson:"total_funding" json:"total_funding"`
	LastFundingDate        *time.Time   `bson:"last_funding_date,omitempty" json:"last_funding_date,omitempty"`
	Status                 Status       `bson:"status" json:"status"`
	Country                string       `bson:"country,omitempty" json:"country,omitempty"`
	City                   string       `bson:"city,omitempty" json:"city,omitempty"`
	EmployeeCount          int          `bson:"employee_count" json:"employee_count"`
	FirstFundingYear       *int         `bson:"first_funding_year,omitempty" json:"first_funding_year,omitempty"`
	LastFundingYear        *int         `bson:"last_funding_year,omitempty" json:"last_funding_year,omitempty"`
	TimeToFirstFundingDays *int         `bson:"time_to_first_funding_days,omitempty" json:"time_to_first_funding_days,omitempty"`
	TimeToLastFundingDays  *int         `bson:"time_to_last_funding_days,omitempty" json:"time_to_last_funding_days,omitempty"`
	FundingStage           FundingStage `bson:"funding_stage" json:"funding_stage"`
	CapitalRange           CapitalRange `bson:"capital_range" json:"capital_range"`
	ProcessedAt            time.Time    `bson:"processed_at" json:"processed_at"`
}

// DedupKey identifies a logical startup across duplicate raw records. At
// most one clean record exists per key.
type DedupKey struct {
	Name        string
	Sector      Sector
	FoundedYear int
}

// Key returns the record's dedup key.
func (c CleanStartup) Key() DedupKey {
	return DedupKey{Name: c.Name, Sector: c.Sector, FoundedYear: c.FoundedYear}
}

// DocumentID is a stable digest of the dedup key, used as the clean
// document's _id. Re-cleaning the same logical startup always targets the
// same document, which is what makes the upsert idempotent.
func (k DedupKey) DocumentID() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", k.Name, k.Sector, k.FoundedYear)))
	return hex.EncodeToString(sum[:16])
}

// Completeness counts the non-nil derived funding fields. Used by the
// cleaning stage's dedup tie-break: a candidate only replaces an existing
// record when it is strictly more complete.
func (c CleanStartup) Completeness() int {
	n := 0
	for _, p := range []*int{c.FirstFundingYear, c.LastFundingYear, c.TimeToFirstFundingDays, c.TimeToLastFundingDays} {
		if p != nil {
			n++
		}
	}
	return n
}

// SectorAggregate is one summary row per sector, fully recomputed from the
// clean collection on every aggregation run.
type SectorAggregate struct {
	Sector                 Sector           `bson:"sector" json:"sector"`
	TotalStartups          int              `bson:"total_startups" json:"total_startups"`
	ActiveStartups         int              `bson:"active_startups" json:"active_startups"`
	ClosedStartups         int              `bson:"closed_startups" json:"closed_startups"`
	AcquiredStartups       int              `bson:"acquired_startups" json:"acquired_startups"`
	TotalFunding           float64          `bson:"total_funding" json:"total_funding"`
	AvgFundingPerStartup   float64          `bson:"avg_funding_per_startup" json:"avg_funding_per_startup"`
	MedianFunding          float64          `bson:"median_funding" json:"median_funding"`
	AvgFundingRounds       float64          `bson:"avg_funding_rounds" json:"avg_funding_rounds"`
	AvgTimeToFirstFunding  *float64         `bson:"avg_time_to_first_funding_days,omitempty" json:"avg_time_to_first_funding_days,omitempty"`
	AvgEmployeeCount       *float64         `bson:"avg_employee_count,omitempty" json:"avg_employee_count,omitempty"`
	FoundedYearMin         *int             `bson:"founded_year_min,omitempty" json:"founded_year_min,omitempty"`
	FoundedYearMax         *int             `bson:"founded_year_max,omitempty" json:"founded_year_max,omitempty"`
	GrowthRate             float64          `bson:"growth_rate" json:"growth_rate"`
	SaturationScore        float64          `bson:"saturation_score" json:"saturation_score"`
	RiskScore              float64          `bson:"risk_score" json:"risk_score"`
	StatusBreakdown        map[string]int   `bson:"status_breakdown" json:"status_breakdown"`
	FundingRoundHistogram  map[string]int   `bson:"funding_round_histogram" json:"funding_round_histogram"`
	TopCountries           []string         `bson:"top_countries" json:"top_countries"`
	CapitalDistribution    map[string]int   `bson:"capital_distribution" json:"capital_distribution"`
	ComputedAt             time.Time        `bson:"computed_at" json:"computed_at"`
}
