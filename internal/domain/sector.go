package domain

import "strings"

// Sector is the enumerated startup-industry category. Every clean record
// carries exactly one canonical sector value; the aggregate collection is
// keyed by it.
//
// Invariant: the value must be one of the canonical sectors below.
// Construct via ParseSector at trust boundaries; direct casting bypasses
// validation.
type Sector string

// Canonical sectors. The clean collection's shard key leads with this value,
// so the set is closed: adding a sector is a deliberate schema decision, not
// a side effect of dirty input.
const (
	SectorTechnology         Sector = "Technology"
	SectorHealthcare         Sector = "Healthcare"
	SectorFinance            Sector = "Finance"
	SectorECommerce          Sector = "E-commerce"
	SectorEducation          Sector = "Education"
	SectorRealEstate         Sector = "Real Estate"
	SectorTransportation     Sector = "Transportation"
	SectorEnergy             Sector = "Energy"
	SectorFoodAndBeverage    Sector = "Food & Beverage"
	SectorEntertainment      Sector = "Entertainment"
	SectorManufacturing      Sector = "Manufacturing"
	SectorAgriculture        Sector = "Agriculture"
	SectorRetail             Sector = "Retail"
	SectorTelecommunications Sector = "Telecommunications"
	SectorMedia              Sector = "Media"
	SectorConsulting         Sector = "Consulting"
	SectorTravel             Sector = "Travel"
	SectorFitness            Sector = "Fitness"
	SectorLegal              Sector = "Legal"
	SectorConstruction       Sector = "Construction"
)

// Sectors lists every canonical sector in a stable order.
var Sectors = []Sector{
	SectorTechnology,
	SectorHealthcare,
	SectorFinance,
	SectorECommerce,
	SectorEducation,
	SectorRealEstate,
	SectorTransportation,
	SectorEnergy,
	SectorFoodAndBeverage,
	SectorEntertainment,
	SectorManufacturing,
	SectorAgriculture,
	SectorRetail,
	SectorTelecommunications,
	SectorMedia,
	SectorConsulting,
	SectorTravel,
	SectorFitness,
	SectorLegal,
	SectorConstruction,
}

// sectorAliases maps normalized (trimmed, lowercased) input to a canonical
// sector. Exact-match only; fuzzy matching would make cleaning
// non-deterministic.
var sectorAliases = map[string]Sector{
	"tech":                   SectorTechnology,
	"information technology": SectorTechnology,
	"fintech":                SectorFinance,
	"financial services":     SectorFinance,
	"healthtech":             SectorHealthcare,
	"health":                 SectorHealthcare,
	"ecommerce":              SectorECommerce,
	"e commerce":             SectorECommerce,
	"edtech":                 SectorEducation,
	"food and beverage":      SectorFoodAndBeverage,
	"food":                   SectorFoodAndBeverage,
	"telecom":                SectorTelecommunications,
	"transport":              SectorTransportation,
	"property":               SectorRealEstate,
}

var validSectors = func() map[string]Sector {
	m := make(map[string]Sector, len(Sectors))
	for _, s := range Sectors {
		m[strings.ToLower(string(s))] = s
	}
	return m
}()

// ParseSector maps free-form feed text onto a canonical sector. Matching is
// case-insensitive and goes through the alias table; anything else is
// reported as unknown so the caller can reject the record.
func ParseSector(s string) (Sector, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", false
	}
	if sector, ok := validSectors[key]; ok {
		return sector, true
	}
	if sector, ok := sectorAliases[key]; ok {
		return sector, true
	}
	return "", false
}

// IsValid checks that the sector is one of the canonical enum values.
func (s Sector) IsValid() bool {
	_, ok := validSectors[strings.ToLower(string(s))]
	return ok
}

func (s Sector) String() string { return string(s) }
