// Package validate estimates competitive pressure for generated candidates.
// It is the built-in validator; an external competitor-search service can
// replace it through the pipeline's Validator port.
package validate

import (
	"context"
	"strings"

	"github.com/okian/prospector/internal/domain/model"
)

// Expected competitor count keyed by the candidate's market size. Bigger
// markets already attract more builders.
var competitorsByMarket = map[string]int{
	"large":  2,
	"medium": 1,
	"small":  0,
	"niche":  0,
}

const defaultCompetitors = 1

// A signal this hot means the space is already being built in.
const hotSignalScore = 90

// Competition bands by competitor count.
type band struct {
	maxCompetitors int
	level          string
	score          int
	gap            string
}

var bands = []band{
	{maxCompetitors: 0, level: "low", score: 90, gap: "wide"},
	{maxCompetitors: 2, level: "medium", score: 70, gap: "moderate"},
	{maxCompetitors: 5, level: "high", score: 40, gap: "narrow"},
}

var crowdedBand = band{level: "very_high", score: 20, gap: "crowded"}

// Heuristic derives a competition estimate from the candidate itself instead
// of searching for live competitors.
type Heuristic struct{}

// NewHeuristic creates the built-in heuristic validator.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Validate estimates competitors from market size and signal heat, then maps
// the count onto a competition band. It never fails; a candidate without
// usable attributes gets the default estimate.
func (h *Heuristic) Validate(_ context.Context, candidate model.Candidate) (model.Validation, error) {
	competitors := estimateCompetitors(candidate)
	b := bandFor(competitors)

	return model.Validation{
		CompetitorsFound: competitors,
		CompetitionLevel: b.level,
		CompetitionScore: b.score,
		Differentiation:  differentiation(candidate),
		MarketGap:        b.gap,
		Status:           "validated",
	}, nil
}

func estimateCompetitors(c model.Candidate) int {
	competitors := defaultCompetitors
	if market, ok := c.Attributes["market_size"].(string); ok {
		if n, found := competitorsByMarket[strings.ToLower(market)]; found {
			competitors = n
		}
	}
	if c.SignalScore >= hotSignalScore {
		competitors++
	}
	return competitors
}

func bandFor(competitors int) band {
	for _, b := range bands {
		if competitors <= b.maxCompetitors {
			return b
		}
	}
	return crowdedBand
}

// differentiation grades the candidate's angle by how specific its pitch is.
func differentiation(c model.Candidate) string {
	pitch, _ := c.Attributes["pitch"].(string)
	pitch = strings.TrimSpace(pitch)
	switch {
	case len(pitch) > 50:
		return "strong"
	case pitch != "":
		return "moderate"
	default:
		return "weak"
	}
}
