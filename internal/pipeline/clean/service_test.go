package clean

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"marketmind/internal/domain"
	"marketmind/internal/store/memory"
)

type CleanSuite struct {
	suite.Suite
	raw   *memory.RawStore
	clean *memory.CleanStore
	meta  *memory.MetaStore
	ctx   context.Context
}

func TestCleanSuite(t *testing.T) {
	suite.Run(t, new(CleanSuite))
}

func (s *CleanSuite) SetupTest() {
	s.raw = memory.NewRawStore()
	s.clean = memory.NewCleanStore()
	s.meta = memory.NewMetaStore()
	s.ctx = context.Background()
}

func (s *CleanSuite) newService() *Service {
	svc, err := New(s.raw, s.clean, s.meta)
	s.Require().NoError(err)
	return svc
}

func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }
func strPtr(v string) *string    { return &v }

var ingestSeq int

func (s *CleanSuite) ingest(recs ...domain.RawStartup) {
	for i := range recs {
		ingestSeq++
		recs[i].ID = fmt.Sprintf("raw-%04d", ingestSeq)
		if recs[i].IngestedAt.IsZero() {
			recs[i].IngestedAt = time.Date(2026, 8, 1, 0, 0, 0, ingestSeq, time.UTC)
		}
	}
	_, _, err := s.raw.InsertBatch(s.ctx, recs)
	s.Require().NoError(err)
}

func (s *CleanSuite) findOnly() domain.CleanStartup {
	var out []domain.CleanStartup
	s.Require().NoError(s.clean.Iterate(s.ctx, func(rec domain.CleanStartup) error {
		out = append(out, rec)
		return nil
	}))
	s.Require().Len(out, 1)
	return out[0]
}

// ============================================================
// Normalization
// ============================================================

func (s *CleanSuite) TestNormalizesWellFormedRecord() {
	s.ingest(domain.RawStartup{
		Name:            "  Acme AI  ",
		Sector:          "fintech",
		FoundedYear:     intPtr(2019),
		FundingRounds:   intPtr(2),
		TotalFunding:    floatPtr(5_000_000),
		LastFundingDate: strPtr("2023-06-15"),
		Status:          strPtr("Active"),
		Country:         strPtr("USA"),
		City:            strPtr("Austin"),
		EmployeeCount:   intPtr(40),
	})

	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Equal(1, report.Upserted)
	s.Zero(report.Rejected)

	rec := s.findOnly()
	s.Equal("Acme AI", rec.Name)
	s.Equal(domain.SectorFinance, rec.Sector, "alias resolves to the canonical sector")
	s.Equal(2019, rec.FoundedYear)
	s.Equal(domain.StatusActive, rec.Status)
	s.Equal("USA", rec.Country)
	s.Equal(40, rec.EmployeeCount)
	s.Equal(domain.FundingStageSeriesA, rec.FundingStage)
	s.Equal(domain.CapitalRange1MTo10M, rec.CapitalRange)
	s.Equal(rec.Key().DocumentID(), rec.ID)

	s.Require().NotNil(rec.LastFundingDate)
	s.Equal(2023, rec.LastFundingDate.Year())
	s.Require().NotNil(rec.LastFundingYear, "derived from last_funding_date")
	s.Equal(2023, *rec.LastFundingYear)
	s.Require().NotNil(rec.TimeToLastFundingDays, "computed from Jan 1 of founded_year")
	s.Greater(*rec.TimeToLastFundingDays, 0)
}

func (s *CleanSuite) TestDescriptiveFieldsDegradeToDefaults() {
	s.ingest(domain.RawStartup{
		Name:        "Bare Minimum",
		Sector:      "Technology",
		FoundedYear: intPtr(2020),
		Status:      strPtr("something-else"),
	})

	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Upserted)

	rec := s.findOnly()
	s.Equal(domain.StatusUnknown, rec.Status)
	s.Zero(rec.TotalFunding, "missing funding defaults to zero")
	s.Equal(domain.EmployeeCountUnknown, rec.EmployeeCount)
	s.Equal(domain.FundingStagePreSeed, rec.FundingStage)
	s.Equal(domain.CapitalRangeNone, rec.CapitalRange)
	s.Nil(rec.LastFundingYear)
	s.Nil(rec.TimeToLastFundingDays)
}

func (s *CleanSuite) TestRejectsUnknownSectorAndMissingYear() {
	s.ingest(
		domain.RawStartup{Name: "No Sector Match", Sector: "Underwater Basket Weaving", FoundedYear: intPtr(2018)},
		domain.RawStartup{Name: "No Year", Sector: "Finance"},
	)

	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, report.Processed)
	s.Equal(2, report.Rejected)
	s.Zero(report.Upserted)

	count, err := s.clean.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *CleanSuite) TestZeroRoundsCarriesNoDerivedFields() {
	s.ingest(domain.RawStartup{
		Name:            "Unfunded",
		Sector:          "Retail",
		FoundedYear:     intPtr(2021),
		LastFundingDate: strPtr("2024-01-01"),
		LastFundingYear: intPtr(2024),
	})

	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	rec := s.findOnly()
	s.Zero(rec.FundingRounds)
	s.Nil(rec.LastFundingDate)
	s.Nil(rec.FirstFundingYear)
	s.Nil(rec.LastFundingYear)
	s.Nil(rec.TimeToFirstFundingDays)
	s.Nil(rec.TimeToLastFundingDays)
}

// ============================================================
// Deduplication
// ============================================================

func (s *CleanSuite) TestDedupKeepsOneRecordPerKey() {
	base := domain.RawStartup{
		Name:        "Twin",
		Sector:      "Technology",
		FoundedYear: intPtr(2017),
	}
	sparse := base
	richer := base
	richer.FundingRounds = intPtr(3)
	richer.TotalFunding = floatPtr(12_000_000)
	richer.FirstFundingYear = intPtr(2018)
	richer.LastFundingYear = intPtr(2022)

	s.ingest(sparse, richer)

	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, report.Processed)
	s.Equal(1, report.Upserted)
	s.Equal(1, report.Replaced, "equal-or-better completeness replaces")

	rec := s.findOnly()
	s.Equal(3, rec.FundingRounds)
	s.Require().NotNil(rec.FirstFundingYear)
	s.Equal(2018, *rec.FirstFundingYear)
}

func (s *CleanSuite) TestDedupKeepsMoreCompleteExisting() {
	richer := domain.RawStartup{
		Name:             "Twin",
		Sector:           "Technology",
		FoundedYear:      intPtr(2017),
		FundingRounds:    intPtr(3),
		TotalFunding:     floatPtr(12_000_000),
		FirstFundingYear: intPtr(2018),
		LastFundingYear:  intPtr(2022),
	}
	s.ingest(richer)
	_, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)

	// A later, sparser duplicate of the same logical startup must not
	// overwrite the derived fields already on file.
	sparse := domain.RawStartup{
		Name:        "Twin",
		Sector:      "Technology",
		FoundedYear: intPtr(2017),
		IngestedAt:  time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
	}
	s.ingest(sparse)

	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Equal(1, report.Kept)
	s.Zero(report.Replaced)

	rec := s.findOnly()
	s.Require().NotNil(rec.FirstFundingYear)
	s.Equal(2018, *rec.FirstFundingYear)
}

func (s *CleanSuite) TestDifferentKeysCoexist() {
	s.ingest(
		domain.RawStartup{Name: "Twin", Sector: "Technology", FoundedYear: intPtr(2017)},
		domain.RawStartup{Name: "Twin", Sector: "Technology", FoundedYear: intPtr(2018)},
		domain.RawStartup{Name: "Twin", Sector: "Finance", FoundedYear: intPtr(2017)},
	)

	report, err := s.newService().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, report.Upserted)

	count, err := s.clean.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(3, count)
}

// ============================================================
// Watermark and convergence
// ============================================================

func (s *CleanSuite) TestWatermarkAdvancesAndSkipsProcessedRecords() {
	s.ingest(domain.RawStartup{
		Name:        "First",
		Sector:      "Energy",
		FoundedYear: intPtr(2015),
		IngestedAt:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	})

	svc := s.newService()
	report, err := svc.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)

	mark, err := s.meta.CleanWatermark(s.ctx)
	s.Require().NoError(err)
	s.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), mark)

	// A second pass with no new raw input touches nothing.
	report, err = svc.Run(s.ctx)
	s.Require().NoError(err)
	s.Zero(report.Processed)

	// Newer raw records are picked up; older ones stay behind the mark.
	s.ingest(domain.RawStartup{
		Name:        "Second",
		Sector:      "Energy",
		FoundedYear: intPtr(2016),
		IngestedAt:  time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
	})
	report, err = svc.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Equal(1, report.Upserted)
}

func (s *CleanSuite) TestRepeatedPassesConverge() {
	s.ingest(domain.RawStartup{
		Name:          "Stable",
		Sector:        "Travel",
		FoundedYear:   intPtr(2019),
		FundingRounds: intPtr(1),
		TotalFunding:  floatPtr(800_000),
	})

	svc := s.newService()
	_, err := svc.Run(s.ctx)
	s.Require().NoError(err)
	first := s.findOnly()

	// Reset the watermark to force re-consideration of the same raw input,
	// as an interrupted pass would on its next run.
	s.Require().NoError(s.meta.SetCleanWatermark(s.ctx, time.Time{}))
	report, err := svc.Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Replaced)

	second := s.findOnly()
	s.Equal(first.ID, second.ID)
	s.Equal(first.Key(), second.Key())
	s.Equal(first.FundingRounds, second.FundingRounds)

	count, err := s.clean.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count, "re-cleaning never duplicates")
}

func (s *CleanSuite) TestRejectRatio() {
	s.Zero(Report{}.RejectRatio())
	s.InDelta(0.25, Report{Processed: 4, Rejected: 1}.RejectRatio(), 0.001)
}
