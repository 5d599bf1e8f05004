package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"marketmind/internal/domain"
	"marketmind/internal/pipeline/aggregate"
	"marketmind/internal/pipeline/clean"
	"marketmind/internal/pipeline/ingest"
	"marketmind/internal/pipeline/source"
	"marketmind/internal/store/memory"
)

type RunnerSuite struct {
	suite.Suite
	raw     *memory.RawStore
	cleanSt *memory.CleanStore
	aggSt   *memory.AggregateStore
	meta    *memory.MetaStore
	ctx     context.Context
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	s.raw = memory.NewRawStore()
	s.cleanSt = memory.NewCleanStore()
	s.aggSt = memory.NewAggregateStore()
	s.meta = memory.NewMetaStore()
	s.ctx = context.Background()
}

func (s *RunnerSuite) newRunner(opts ...Option) *Runner {
	ing, err := ingest.New(s.raw)
	s.Require().NoError(err)
	cln, err := clean.New(s.raw, s.cleanSt, s.meta)
	s.Require().NoError(err)
	agg, err := aggregate.New(s.cleanSt, s.aggSt)
	s.Require().NoError(err)

	runner, err := New(ing, cln, agg, opts...)
	s.Require().NoError(err)
	return runner
}

func (s *RunnerSuite) TestNewRequiresAllStages() {
	_, err := New(nil, nil, nil)
	s.Error(err)
}

// ============================================================
// Full runs
// ============================================================

func (s *RunnerSuite) TestEndToEnd() {
	feed := source.FromRecords([]map[string]any{
		{"name": "Acme", "sector": "Technology", "founded_year": 2018, "status": "active",
			"funding_rounds": 2, "total_funding": 4_000_000.0, "country": "USA"},
		{"name": "Beacon", "sector": "Technology", "founded_year": 2019, "status": "closed"},
		{"name": "Castle", "sector": "fintech", "founded_year": 2020, "status": "active"},
		{"sector": "Technology"}, // missing name, rejected at ingest
		{"name": "Echo", "sector": "Pottery", "founded_year": 2021}, // unknown sector, rejected at clean
	})

	report, err := s.newRunner().Run(s.ctx, feed)
	s.Require().NoError(err)

	s.Equal(4, report.Ingest.Accepted)
	s.Equal(1, report.Ingest.Rejected)
	s.Equal(4, report.Ingest.Inserted)

	s.Equal(4, report.Clean.Processed)
	s.Equal(3, report.Clean.Upserted)
	s.Equal(1, report.Clean.Rejected)

	s.Equal(3, report.Aggregate.Records)
	s.Equal(2, report.Aggregate.Sectors)

	aggs, err := s.aggSt.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(aggs, 2)

	bySector := make(map[domain.Sector]domain.SectorAggregate)
	for _, agg := range aggs {
		bySector[agg.Sector] = agg
	}
	tech := bySector[domain.SectorTechnology]
	s.Equal(2, tech.TotalStartups)
	s.Equal(1, tech.ActiveStartups)
	s.Equal(1, tech.ClosedStartups)
	s.InDelta(4_000_000, tech.TotalFunding, 0.001)
	s.Equal([]string{"USA"}, tech.TopCountries)

	fin := bySector[domain.SectorFinance]
	s.Equal(1, fin.TotalStartups, "alias-matched record lands in its canonical sector")
}

func (s *RunnerSuite) TestRunIsIncremental() {
	runner := s.newRunner()

	first := source.FromRecords([]map[string]any{
		{"name": "Acme", "sector": "Technology", "founded_year": 2018},
	})
	report, err := runner.Run(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(1, report.Clean.Processed)

	second := source.FromRecords([]map[string]any{
		{"name": "Beacon", "sector": "Finance", "founded_year": 2019},
	})
	report, err = runner.Run(s.ctx, second)
	s.Require().NoError(err)
	s.Equal(1, report.Clean.Processed, "only the newly ingested record is cleaned")
	s.Equal(2, report.Aggregate.Records, "aggregation always recomputes from the full clean set")
	s.Equal(2, report.Aggregate.Sectors)
}

// ============================================================
// Flagged runs
// ============================================================

func (s *RunnerSuite) TestFlagsIngestRejectRatio() {
	feed := source.FromRecords([]map[string]any{
		{"name": "OK", "sector": "Technology", "founded_year": 2018},
		{"sector": "Technology"},
		{"name": "Bad"},
		{"founded_year": 2020},
	})

	_, err := s.newRunner().Run(s.ctx, feed)
	s.Require().Error(err)

	var flagged *ErrFlagged
	s.Require().ErrorAs(err, &flagged)
	s.Equal("ingest", flagged.Stage)
	s.InDelta(0.75, flagged.Ratio, 0.001)

	count, err := s.cleanSt.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count, "cleaning never ran")
}

func (s *RunnerSuite) TestFlagsCleanRejectRatio() {
	// Well-formed at ingest, but most records miss founded_year and fall at
	// the clean stage.
	feed := source.FromRecords([]map[string]any{
		{"name": "OK", "sector": "Technology", "founded_year": 2018},
		{"name": "NoYear1", "sector": "Technology"},
		{"name": "NoYear2", "sector": "Finance"},
	})

	_, err := s.newRunner().Run(s.ctx, feed)
	s.Require().Error(err)

	var flagged *ErrFlagged
	s.Require().ErrorAs(err, &flagged)
	s.Equal("clean", flagged.Stage)

	aggs, err := s.aggSt.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(aggs, "aggregation never ran")
}

func (s *RunnerSuite) TestMaxRejectRatioOverride() {
	feed := source.FromRecords([]map[string]any{
		{"name": "OK1", "sector": "Technology", "founded_year": 2018},
		{"name": "OK2", "sector": "Technology", "founded_year": 2019},
		{"name": "OK3", "sector": "Technology", "founded_year": 2020},
		{"sector": "Technology"},
	})

	// 25% rejection passes the default threshold but not a stricter one.
	_, err := s.newRunner(WithMaxRejectRatio(0.2)).Run(s.ctx, feed)
	var flagged *ErrFlagged
	s.Require().ErrorAs(err, &flagged)
	s.Equal("ingest", flagged.Stage)
}
