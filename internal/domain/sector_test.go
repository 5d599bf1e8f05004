package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSector(t *testing.T) {
	tests := []struct {
		in   string
		want Sector
		ok   bool
	}{
		{"Technology", SectorTechnology, true},
		{"technology", SectorTechnology, true},
		{"  TECHNOLOGY  ", SectorTechnology, true},
		{"fintech", SectorFinance, true},
		{"HealthTech", SectorHealthcare, true},
		{"ecommerce", SectorECommerce, true},
		{"Food & Beverage", SectorFoodAndBeverage, true},
		{"telecom", SectorTelecommunications, true},
		{"", "", false},
		{"Underwater Basket Weaving", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSector(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusActive, ParseStatus(" Active "))
	assert.Equal(t, StatusIPO, ParseStatus("IPO"))
	assert.Equal(t, StatusUnknown, ParseStatus(""))
	assert.Equal(t, StatusUnknown, ParseStatus("doing great"))
}

func TestDedupKeyDocumentID(t *testing.T) {
	k := DedupKey{Name: "Acme", Sector: SectorTechnology, FoundedYear: 2018}

	// Same key, same digest: the clean upsert depends on it.
	require.Equal(t, k.DocumentID(), k.DocumentID())

	other := DedupKey{Name: "Acme", Sector: SectorTechnology, FoundedYear: 2019}
	require.NotEqual(t, k.DocumentID(), other.DocumentID())
}

func TestCompleteness(t *testing.T) {
	year := 2020
	rec := CleanStartup{}
	assert.Equal(t, 0, rec.Completeness())

	rec.FirstFundingYear = &year
	rec.LastFundingYear = &year
	assert.Equal(t, 2, rec.Completeness())
}

func TestFundingStageFor(t *testing.T) {
	assert.Equal(t, FundingStagePreSeed, FundingStageFor(0, 0))
	assert.Equal(t, FundingStagePreSeed, FundingStageFor(3, 0))
	assert.Equal(t, FundingStageSeed, FundingStageFor(1, 100_000))
	assert.Equal(t, FundingStageSeriesB, FundingStageFor(3, 5_000_000))
	assert.Equal(t, FundingStageSeriesCPlus, FundingStageFor(7, 80_000_000))
}

func TestCapitalRangeFor(t *testing.T) {
	assert.Equal(t, CapitalRangeNone, CapitalRangeFor(0))
	assert.Equal(t, CapitalRangeUnder1M, CapitalRangeFor(999_999))
	assert.Equal(t, CapitalRange1MTo10M, CapitalRangeFor(1_000_000))
	assert.Equal(t, CapitalRange10MTo50M, CapitalRangeFor(49_999_999))
	assert.Equal(t, CapitalRangeOver50M, CapitalRangeFor(50_000_000))
}
