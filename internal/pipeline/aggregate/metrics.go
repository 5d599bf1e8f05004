package aggregate

import (
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"marketmind/internal/domain"
	"marketmind/internal/schema"
)

// Fixed formula parameters. These are business constants, not tunables:
// changing them changes the meaning of every stored aggregate.
//
// Growth rate compares founding counts in the sector's most recent
// growthWindow calendar years against the growthWindow years before that,
// clamped to [0, schema.GrowthRateMax]. A prior window with no foundings
// yields 0 rather than an unbounded ratio.
//
// Risk score in [0, 1] blends the closed fraction (weight riskClosedWeight)
// with funding concentration, expressed as 1/(1+avg rounds): sectors whose
// startups raise few rounds are treated as riskier capital environments.
const (
	growthWindow      = 3
	riskClosedWeight  = 0.7
	riskFundingWeight = 0.3
)

// accumulator collects one sector's records during the streaming pass.
type accumulator struct {
	sector domain.Sector

	total    int
	statuses map[domain.Status]int

	fundings  []float64
	rounds    []float64
	histogram map[string]int

	foundedCounts map[int]int

	timeToFirstSum   float64
	timeToFirstCount int

	employeeSum   float64
	employeeCount int

	countries map[string]int
	capital   map[string]int
}

func newAccumulator(sector domain.Sector) *accumulator {
	return &accumulator{
		sector:        sector,
		statuses:      make(map[domain.Status]int),
		histogram:     make(map[string]int),
		foundedCounts: make(map[int]int),
		countries:     make(map[string]int),
		capital:       make(map[string]int),
	}
}

func (a *accumulator) add(rec domain.CleanStartup) {
	a.total++
	a.statuses[rec.Status]++
	a.fundings = append(a.fundings, rec.TotalFunding)
	a.rounds = append(a.rounds, float64(rec.FundingRounds))
	a.histogram[strconv.Itoa(rec.FundingRounds)]++
	a.foundedCounts[rec.FoundedYear]++
	a.capital[string(rec.CapitalRange)]++

	if rec.TimeToFirstFundingDays != nil {
		a.timeToFirstSum += float64(*rec.TimeToFirstFundingDays)
		a.timeToFirstCount++
	}
	if rec.EmployeeCount != domain.EmployeeCountUnknown {
		a.employeeSum += float64(rec.EmployeeCount)
		a.employeeCount++
	}
	if rec.Country != "" {
		a.countries[rec.Country]++
	}
}

// finalize turns the accumulator into a SectorAggregate. maxSectorTotal is
// the largest record count of any sector this run, the denominator of the
// saturation score. Every division below is guarded: a sector with a single
// record produces defined values for every metric.
func (a *accumulator) finalize(maxSectorTotal int) domain.SectorAggregate {
	agg := domain.SectorAggregate{
		Sector:                a.sector,
		TotalStartups:         a.total,
		ActiveStartups:        a.statuses[domain.StatusActive],
		ClosedStartups:        a.statuses[domain.StatusClosed],
		AcquiredStartups:      a.statuses[domain.StatusAcquired],
		FundingRoundHistogram: a.histogram,
		CapitalDistribution:   a.capital,
		StatusBreakdown:       statusBreakdown(a.statuses),
		TopCountries:          topCountries(a.countries, 5),
	}

	// stats errors only on empty input; accumulators exist only for
	// sectors with at least one record.
	agg.TotalFunding, _ = stats.Sum(a.fundings)
	if a.total > 0 {
		agg.AvgFundingPerStartup, _ = stats.Mean(a.fundings)
		agg.MedianFunding, _ = stats.Median(a.fundings)
		agg.AvgFundingRounds, _ = stats.Mean(a.rounds)
	}
	if a.timeToFirstCount > 0 {
		avg := a.timeToFirstSum / float64(a.timeToFirstCount)
		agg.AvgTimeToFirstFunding = &avg
	}
	if a.employeeCount > 0 {
		avg := a.employeeSum / float64(a.employeeCount)
		agg.AvgEmployeeCount = &avg
	}
	if minYear, maxYear, ok := yearRange(a.foundedCounts); ok {
		agg.FoundedYearMin = &minYear
		agg.FoundedYearMax = &maxYear
	}

	agg.GrowthRate = growthRate(a.foundedCounts)
	agg.RiskScore = riskScore(agg.ClosedStartups, a.total, agg.AvgFundingRounds)
	agg.SaturationScore = saturationScore(a.total, maxSectorTotal)
	return agg
}

// growthRate is the founding-count ratio of the recent window over the
// prior window, anchored at the sector's most recent founding year.
func growthRate(foundedCounts map[int]int) float64 {
	_, maxYear, ok := yearRange(foundedCounts)
	if !ok {
		return 0
	}

	recent, prior := 0, 0
	for offset := 0; offset < growthWindow; offset++ {
		recent += foundedCounts[maxYear-offset]
		prior += foundedCounts[maxYear-growthWindow-offset]
	}
	if prior == 0 {
		return 0
	}

	rate := float64(recent) / float64(prior)
	if rate > schema.GrowthRateMax {
		return schema.GrowthRateMax
	}
	return rate
}

func riskScore(closed, total int, avgRounds float64) float64 {
	if total == 0 {
		return 0
	}
	closedFraction := float64(closed) / float64(total)
	concentration := 1 / (1 + avgRounds)
	score := riskClosedWeight*closedFraction + riskFundingWeight*concentration
	return clamp01(score)
}

func saturationScore(total, maxSectorTotal int) float64 {
	if maxSectorTotal == 0 {
		return 0
	}
	return clamp01(float64(total) / float64(maxSectorTotal))
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func yearRange(counts map[int]int) (minYear, maxYear int, ok bool) {
	for year := range counts {
		if !ok {
			minYear, maxYear, ok = year, year, true
			continue
		}
		if year < minYear {
			minYear = year
		}
		if year > maxYear {
			maxYear = year
		}
	}
	return minYear, maxYear, ok
}

func statusBreakdown(statuses map[domain.Status]int) map[string]int {
	out := make(map[string]int, len(statuses))
	for status, n := range statuses {
		out[string(status)] = n
	}
	return out
}

func topCountries(counts map[string]int, n int) []string {
	countries := make([]string, 0, len(counts))
	for country := range counts {
		countries = append(countries, country)
	}
	// Count descending, name ascending as the deterministic tie-break.
	sort.Slice(countries, func(i, j int) bool {
		if counts[countries[i]] != counts[countries[j]] {
			return counts[countries[i]] > counts[countries[j]]
		}
		return countries[i] < countries[j]
	})
	if len(countries) > n {
		countries = countries[:n]
	}
	return countries
}
