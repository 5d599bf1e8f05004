package domain

// FundingStage buckets a startup by how many funding rounds it has closed.
type FundingStage string

const (
	FundingStagePreSeed     FundingStage = "pre-seed"
	FundingStageSeed        FundingStage = "seed"
	FundingStageSeriesA     FundingStage = "series-a"
	FundingStageSeriesB     FundingStage = "series-b"
	FundingStageSeriesCPlus FundingStage = "series-c-plus"
)

// FundingStageFor derives the stage from round count and total raised.
// Zero rounds or zero raised always means pre-seed regardless of the other
// value.
func FundingStageFor(rounds int, totalFunding float64) FundingStage {
	if rounds <= 0 || totalFunding <= 0 {
		return FundingStagePreSeed
	}
	switch rounds {
	case 1:
		return FundingStageSeed
	case 2:
		return FundingStageSeriesA
	case 3:
		return FundingStageSeriesB
	default:
		return FundingStageSeriesCPlus
	}
}

// CapitalRange buckets a startup by total funding raised, in USD.
type CapitalRange string

const (
	CapitalRangeNone      CapitalRange = "0-0"
	CapitalRangeUnder1M   CapitalRange = "0-1M"
	CapitalRange1MTo10M   CapitalRange = "1M-10M"
	CapitalRange10MTo50M  CapitalRange = "10M-50M"
	CapitalRangeOver50M   CapitalRange = "50M+"
)

// CapitalRangeFor derives the capital range from total funding.
func CapitalRangeFor(totalFunding float64) CapitalRange {
	switch {
	case totalFunding <= 0:
		return CapitalRangeNone
	case totalFunding < 1_000_000:
		return CapitalRangeUnder1M
	case totalFunding < 10_000_000:
		return CapitalRange1MTo10M
	case totalFunding < 50_000_000:
		return CapitalRange10MTo50M
	default:
		return CapitalRangeOver50M
	}
}
