package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"marketmind/internal/domain"
	"marketmind/internal/store/memory"
)

type AggregateSuite struct {
	suite.Suite
	clean *memory.CleanStore
	aggs  *memory.AggregateStore
	ctx   context.Context
}

func TestAggregateSuite(t *testing.T) {
	suite.Run(t, new(AggregateSuite))
}

func (s *AggregateSuite) SetupTest() {
	s.clean = memory.NewCleanStore()
	s.aggs = memory.NewAggregateStore()
	s.ctx = context.Background()
}

func (s *AggregateSuite) newService() *Service {
	svc, err := New(s.clean, s.aggs)
	s.Require().NoError(err)
	return svc
}

var cleanSeq int

func (s *AggregateSuite) store(recs ...domain.CleanStartup) {
	for _, rec := range recs {
		cleanSeq++
		if rec.Name == "" {
			rec.Name = fmt.Sprintf("Startup_%04d", cleanSeq)
		}
		if rec.Status == "" {
			rec.Status = domain.StatusActive
		}
		if rec.EmployeeCount == 0 {
			rec.EmployeeCount = domain.EmployeeCountUnknown
		}
		if rec.FundingStage == "" {
			rec.FundingStage = domain.FundingStageFor(rec.FundingRounds, rec.TotalFunding)
		}
		if rec.CapitalRange == "" {
			rec.CapitalRange = domain.CapitalRangeFor(rec.TotalFunding)
		}
		rec.ProcessedAt = time.Now().UTC()
		rec.ID = rec.Key().DocumentID()
		s.Require().NoError(s.clean.Upsert(s.ctx, rec))
	}
}

func (s *AggregateSuite) listAggregates() []domain.SectorAggregate {
	aggs, err := s.aggs.List(s.ctx)
	s.Require().NoError(err)
	return aggs
}

// ============================================================
// Funding summaries
// ============================================================

func (s *AggregateSuite) TestSectorFundingSummary() {
	s.store(
		domain.CleanStartup{Sector: domain.SectorFinance, FoundedYear: 2018, FundingRounds: 1, TotalFunding: 100},
		domain.CleanStartup{Sector: domain.SectorFinance, FoundedYear: 2019, FundingRounds: 2, TotalFunding: 200},
		domain.CleanStartup{Sector: domain.SectorFinance, FoundedYear: 2020, FundingRounds: 3, TotalFunding: 300},
	)

	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, report.Records)
	s.Equal(1, report.Sectors)

	aggs := s.listAggregates()
	s.Require().Len(aggs, 1)
	agg := aggs[0]

	s.Equal(domain.SectorFinance, agg.Sector)
	s.Equal(3, agg.TotalStartups)
	s.InDelta(600, agg.TotalFunding, 0.001)
	s.InDelta(200, agg.AvgFundingPerStartup, 0.001)
	s.InDelta(200, agg.MedianFunding, 0.001)
	s.InDelta(2, agg.AvgFundingRounds, 0.001)

	s.Require().NotNil(agg.FoundedYearMin)
	s.Require().NotNil(agg.FoundedYearMax)
	s.Equal(2018, *agg.FoundedYearMin)
	s.Equal(2020, *agg.FoundedYearMax)
}

func (s *AggregateSuite) TestSingleRecordSector() {
	s.store(domain.CleanStartup{Sector: domain.SectorEnergy, FoundedYear: 2022})

	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	aggs := s.listAggregates()
	s.Require().Len(aggs, 1)
	agg := aggs[0]

	s.Equal(1, agg.TotalStartups)
	s.Zero(agg.TotalFunding)
	s.Zero(agg.MedianFunding)
	s.Zero(agg.GrowthRate, "no prior-window foundings means no measurable growth")
	s.InDelta(1.0, agg.SaturationScore, 0.001, "the only sector is the largest sector")
	s.Nil(agg.AvgTimeToFirstFunding)
	s.Nil(agg.AvgEmployeeCount)
}

func (s *AggregateSuite) TestEmptyCleanCollection() {
	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Zero(report.Records)
	s.Zero(report.Sectors)
	s.Empty(s.listAggregates())
}

func (s *AggregateSuite) TestRunReplacesStaleAggregates() {
	s.store(domain.CleanStartup{Sector: domain.SectorRetail, FoundedYear: 2020})
	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Len(s.listAggregates(), 1)

	// A fresh clean population in a different sector fully replaces the
	// previous run's output.
	s.clean = memory.NewCleanStore()
	s.store(domain.CleanStartup{Sector: domain.SectorEducation, FoundedYear: 2021})
	_, err = s.newService().Run(s.ctx)
	s.Require().NoError(err)

	aggs := s.listAggregates()
	s.Require().Len(aggs, 1)
	s.Equal(domain.SectorEducation, aggs[0].Sector)
}

// ============================================================
// Status and distribution fields
// ============================================================

func (s *AggregateSuite) TestStatusBreakdown() {
	s.store(
		domain.CleanStartup{Sector: domain.SectorTechnology, FoundedYear: 2018, Status: domain.StatusActive},
		domain.CleanStartup{Sector: domain.SectorTechnology, FoundedYear: 2018, Status: domain.StatusActive},
		domain.CleanStartup{Sector: domain.SectorTechnology, FoundedYear: 2019, Status: domain.StatusClosed},
		domain.CleanStartup{Sector: domain.SectorTechnology, FoundedYear: 2020, Status: domain.StatusAcquired},
	)

	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	agg := s.listAggregates()[0]
	s.Equal(4, agg.TotalStartups)
	s.Equal(2, agg.ActiveStartups)
	s.Equal(1, agg.ClosedStartups)
	s.Equal(1, agg.AcquiredStartups)
	s.Equal(map[string]int{"active": 2, "closed": 1, "acquired": 1}, agg.StatusBreakdown)
}

func (s *AggregateSuite) TestTopCountriesOrdering() {
	mk := func(country string, year int) domain.CleanStartup {
		return domain.CleanStartup{Sector: domain.SectorMedia, FoundedYear: year, Country: country}
	}
	s.store(
		mk("USA", 2015), mk("USA", 2016), mk("USA", 2017),
		mk("Germany", 2015), mk("Germany", 2016),
		mk("Brazil", 2015), mk("Brazil", 2016),
		mk("India", 2015),
		mk("Japan", 2015),
		mk("Kenya", 2015),
	)

	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	agg := s.listAggregates()[0]
	// Count descending, then name ascending, capped at five.
	s.Equal([]string{"USA", "Brazil", "Germany", "India", "Japan"}, agg.TopCountries)
}

func (s *AggregateSuite) TestFundingRoundHistogramAndCapitalDistribution() {
	s.store(
		domain.CleanStartup{Sector: domain.SectorFinance, FoundedYear: 2018},
		domain.CleanStartup{Sector: domain.SectorFinance, FoundedYear: 2019, FundingRounds: 2, TotalFunding: 3_000_000},
		domain.CleanStartup{Sector: domain.SectorFinance, FoundedYear: 2020, FundingRounds: 2, TotalFunding: 60_000_000},
	)

	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	agg := s.listAggregates()[0]
	s.Equal(map[string]int{"0": 1, "2": 2}, agg.FundingRoundHistogram)
	s.Equal(map[string]int{
		string(domain.CapitalRangeNone):     1,
		string(domain.CapitalRange1MTo10M):  1,
		string(domain.CapitalRangeOver50M):  1,
	}, agg.CapitalDistribution)
}

// ============================================================
// Scores
// ============================================================

func (s *AggregateSuite) TestGrowthRate() {
	s.Run("recent over prior window", func() {
		counts := map[int]int{
			2025: 3, 2024: 2, 2023: 1, // recent window: 6
			2022: 1, 2021: 1, 2020: 1, // prior window: 3
		}
		s.InDelta(2.0, growthRate(counts), 0.001)
	})

	s.Run("empty prior window yields zero", func() {
		s.Zero(growthRate(map[int]int{2025: 4, 2024: 2}))
	})

	s.Run("clamped at the maximum", func() {
		counts := map[int]int{2025: 50, 2022: 1}
		s.InDelta(10.0, growthRate(counts), 0.001)
	})

	s.Run("no records", func() {
		s.Zero(growthRate(map[int]int{}))
	})
}

func (s *AggregateSuite) TestRiskScore() {
	s.Run("all closed, no rounds", func() {
		// 0.7*1 + 0.3*(1/(1+0)) = 1.0
		s.InDelta(1.0, riskScore(4, 4, 0), 0.001)
	})

	s.Run("none closed, heavy rounds", func() {
		// 0.7*0 + 0.3*(1/(1+4)) = 0.06
		s.InDelta(0.06, riskScore(0, 10, 4), 0.001)
	})

	s.Run("empty sector guard", func() {
		s.Zero(riskScore(0, 0, 0))
	})
}

func (s *AggregateSuite) TestSaturationScore() {
	s.InDelta(0.5, saturationScore(5, 10), 0.001)
	s.InDelta(1.0, saturationScore(10, 10), 0.001)
	s.Zero(saturationScore(0, 0))
}

func (s *AggregateSuite) TestSaturationAcrossSectors() {
	mk := func(sector domain.Sector, year int) domain.CleanStartup {
		return domain.CleanStartup{Sector: sector, FoundedYear: year}
	}
	s.store(
		mk(domain.SectorTechnology, 2018), mk(domain.SectorTechnology, 2019),
		mk(domain.SectorTechnology, 2020), mk(domain.SectorTechnology, 2021),
		mk(domain.SectorFinance, 2018), mk(domain.SectorFinance, 2019),
	)

	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	aggs := s.listAggregates()
	s.Require().Len(aggs, 2)
	bySector := make(map[domain.Sector]domain.SectorAggregate, len(aggs))
	for _, agg := range aggs {
		bySector[agg.Sector] = agg
	}

	s.InDelta(1.0, bySector[domain.SectorTechnology].SaturationScore, 0.001)
	s.InDelta(0.5, bySector[domain.SectorFinance].SaturationScore, 0.001)
}

func (s *AggregateSuite) TestAveragesSkipUnknowns() {
	days := func(n int) *int { return &n }
	s.store(
		domain.CleanStartup{
			Sector: domain.SectorFinance, FoundedYear: 2018, FundingRounds: 1,
			TotalFunding: 100, EmployeeCount: 30, TimeToFirstFundingDays: days(100),
		},
		domain.CleanStartup{
			Sector: domain.SectorFinance, FoundedYear: 2019, FundingRounds: 1,
			TotalFunding: 100, EmployeeCount: 10, TimeToFirstFundingDays: days(300),
		},
		domain.CleanStartup{Sector: domain.SectorFinance, FoundedYear: 2020},
	)

	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	agg := s.listAggregates()[0]
	s.Require().NotNil(agg.AvgEmployeeCount)
	s.InDelta(20, *agg.AvgEmployeeCount, 0.001, "unknown counts excluded from the mean")
	s.Require().NotNil(agg.AvgTimeToFirstFunding)
	s.InDelta(200, *agg.AvgTimeToFirstFunding, 0.001)
}
