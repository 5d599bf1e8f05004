package source

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"marketmind/internal/domain"
)

// Generator produces synthetic startup records in the raw feed shape. The
// distributions mirror real-world skews loosely: most startups are funded,
// funding grows with round count, status correlates with age. A fixed seed
// makes a run reproducible end to end.
type Generator struct {
	rng       *rand.Rand
	remaining int
	seq       int
}

var generatorCountries = []string{
	"USA", "UK", "Canada", "Germany", "France", "India", "China", "Australia", "Japan", "Brazil",
}

var generatorCities = map[string][]string{
	"USA":       {"San Francisco", "New York", "Austin", "Seattle", "Boston", "Los Angeles"},
	"UK":        {"London", "Manchester", "Edinburgh"},
	"Canada":    {"Toronto", "Vancouver", "Montreal"},
	"Germany":   {"Berlin", "Munich", "Hamburg"},
	"France":    {"Paris", "Lyon", "Marseille"},
	"India":     {"Bangalore", "Mumbai", "Delhi"},
	"China":     {"Beijing", "Shanghai", "Shenzhen"},
	"Australia": {"Sydney", "Melbourne"},
	"Japan":     {"Tokyo", "Osaka"},
	"Brazil":    {"São Paulo", "Rio de Janeiro"},
}

// NewGenerator builds a generator yielding n records from the given seed.
func NewGenerator(n int, seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), remaining: n}
}

func (g *Generator) Next(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.remaining <= 0 {
		return nil, io.EOF
	}
	g.remaining--
	g.seq++
	return g.record(), nil
}

func (g *Generator) record() map[string]any {
	sector := domain.Sectors[g.rng.Intn(len(domain.Sectors))]
	country := generatorCountries[g.rng.Intn(len(generatorCountries))]
	cities := generatorCities[country]
	city := cities[g.rng.Intn(len(cities))]

	foundedYear := 2010 + g.rng.Intn(14)
	foundedDate := time.Date(foundedYear, time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)

	rec := map[string]any{
		"name":         fmt.Sprintf("Startup_%06d", g.seq),
		"sector":       string(sector),
		"founded_year": foundedYear,
		"country":      country,
		"city":         city,
	}

	hasFunding := g.rng.Float64() > 0.2
	if hasFunding {
		rounds := 1 + g.rng.Intn(8)
		base := 10_000 + g.rng.Float64()*50_000_000
		total := base * (1 + float64(rounds)*0.3)

		firstFunding := foundedDate.AddDate(0, 0, g.rng.Intn(731))
		lastFunding := firstFunding
		if rounds > 1 {
			lastFunding = firstFunding.AddDate(0, 0, 90+g.rng.Intn(365*3-90))
		}

		rec["funding_rounds"] = rounds
		rec["total_funding"] = float64(int(total*100)) / 100
		rec["last_funding_date"] = lastFunding.Format("2006-01-02")
		rec["first_funding_year"] = firstFunding.Year()
		rec["last_funding_year"] = lastFunding.Year()
		rec["time_to_first_funding_days"] = int(firstFunding.Sub(foundedDate).Hours() / 24)
		rec["time_to_last_funding_days"] = int(lastFunding.Sub(foundedDate).Hours() / 24)
	}

	rec["status"] = string(g.status(hasFunding, foundedYear))

	if hasFunding {
		total := rec["total_funding"].(float64)
		maxEmployees := int(total / 50_000)
		if maxEmployees > 1000 {
			maxEmployees = 1000
		}
		if maxEmployees < 2 {
			maxEmployees = 2
		}
		rec["employee_count"] = 1 + g.rng.Intn(maxEmployees)
	} else {
		rec["employee_count"] = 1 + g.rng.Intn(20)
	}

	return rec
}

func (g *Generator) status(hasFunding bool, foundedYear int) domain.Status {
	if !hasFunding {
		if g.rng.Intn(2) == 0 {
			return domain.StatusClosed
		}
		return domain.StatusUnknown
	}
	roll := g.rng.Float64()
	if foundedYear < 2015 {
		switch {
		case roll < 0.4:
			return domain.StatusActive
		case roll < 0.7:
			return domain.StatusClosed
		case roll < 0.9:
			return domain.StatusAcquired
		default:
			return domain.StatusIPO
		}
	}
	switch {
	case roll < 0.7:
		return domain.StatusActive
	case roll < 0.9:
		return domain.StatusClosed
	default:
		return domain.StatusAcquired
	}
}
