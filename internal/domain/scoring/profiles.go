package scoring

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okian/prospector/internal/domain/model"
)

// Factor weights for the signal profile. Sum to 100.
const (
	weightPopularity = 30
	weightEngagement = 25
	weightMarketSize = 20
	weightCategory   = 15
	weightNovelty    = 10
)

// Factor weights for the candidate profile. Sum to 100.
const (
	weightRevenue       = 30
	weightFeasibility   = 25
	weightCompetition   = 20
	weightMarket        = 15
	weightTrendStrength = 10
)

// Normalization scale constants per source: the raw value at which a
// volume metric saturates to 100.
const (
	redditUpvoteScale          = 1000
	redditCommentScale         = 100
	productHuntVoteScale       = 500
	productHuntEngagementScale = 300
	relatedQueryScale          = 10
	interestScale              = 100
)

// Categories with above-average business potential.
var highPotentialCategories = []string{
	"technology",
	"health",
	"finance",
	"education",
	"productivity",
}

// SignalProfile returns the scoring profile for raw signals from the given
// source. Popularity and engagement normalization is source-specific; the
// remaining factors are shared.
func SignalProfile(src model.Source) *Profile {
	var popularity, engagement Normalizer

	switch src {
	case model.SourceTrends:
		popularity = LinearCapped("interest", interestScale)
		engagement = LinearCapped("related_queries", relatedQueryScale)
	case model.SourceReddit:
		popularity = LinearCapped("upvotes", redditUpvoteScale)
		engagement = LinearCapped("comments", redditCommentScale)
	case model.SourceProductHunt:
		popularity = LinearCapped("votes", productHuntVoteScale)
		engagement = LinearCapped("votes", productHuntEngagementScale)
	default:
		popularity = Fixed(NeutralScore)
		engagement = Fixed(NeutralScore)
	}

	category := map[string]int{"unknown": 50}
	for _, c := range highPotentialCategories {
		category[c] = 90
	}

	return MustProfile("signal",
		Factor{Name: "popularity", Weight: weightPopularity, Normalize: popularity},
		Factor{Name: "engagement", Weight: weightEngagement, Normalize: engagement},
		Factor{Name: "market_size", Weight: weightMarketSize, Normalize: Bucketed("market_size", map[string]int{
			"large":   100,
			"medium":  70,
			"small":   40,
			"unknown": 50,
		}, NeutralScore)},
		Factor{Name: "category", Weight: weightCategory, Normalize: Bucketed("category", category, 70)},
		Factor{Name: "novelty", Weight: weightNovelty, Normalize: freshness("age_hours")},
	)
}

// freshness decays a signal's novelty sub-score with its age in hours.
// Signals with no observation timestamp count as recent, not unknown.
func freshness(key string) Normalizer {
	rungs := []Rung{
		{UpperBound: 24, Score: 100},
		{UpperBound: 48, Score: 90},
		{UpperBound: 7 * 24, Score: 70},
	}
	ladder := Ladder(key, rungs, 40)
	return func(metrics map[string]any) int {
		if _, ok := asFloat(metrics[key]); !ok {
			return 80
		}
		return ladder(metrics)
	}
}

// CandidateProfile returns the scoring profile used to prioritize generated
// candidates.
func CandidateProfile() *Profile {
	return MustProfile("candidate",
		Factor{Name: "revenue_potential", Weight: weightRevenue, Normalize: revenuePotential("revenue_potential")},
		Factor{Name: "feasibility", Weight: weightFeasibility, Normalize: feasibility("technical_complexity", "time_to_mvp_weeks")},
		Factor{Name: "competition", Weight: weightCompetition, Normalize: competition("competition_score", "competition_level")},
		Factor{Name: "market_size", Weight: weightMarket, Normalize: Bucketed("market_size", map[string]int{
			"large":   100,
			"medium":  70,
			"small":   40,
			"niche":   30,
			"unknown": 50,
		}, NeutralScore)},
		Factor{Name: "trend_strength", Weight: weightTrendStrength, Normalize: LinearCapped("signal_score", 100)},
	)
}

var revenueRe = regexp.MustCompile(`(\d+)k`)

// revenuePotential parses an estimate like "$20k-100k/mo" and scores the
// upper bound of the range.
func revenuePotential(key string) Normalizer {
	return func(metrics map[string]any) int {
		raw, ok := asString(metrics[key])
		if !ok {
			return NeutralScore
		}
		matches := revenueRe.FindAllStringSubmatch(strings.ToLower(raw), -1)
		if len(matches) == 0 {
			return NeutralScore
		}
		maxK := 0
		for _, m := range matches {
			if v, err := strconv.Atoi(m[1]); err == nil && v > maxK {
				maxK = v
			}
		}
		switch {
		case maxK >= 100:
			return 100
		case maxK >= 50:
			return 80
		case maxK >= 20:
			return 65
		case maxK >= 10:
			return 50
		case maxK >= 5:
			return 30
		default:
			return 20
		}
	}
}

// feasibility blends implementation complexity (60%) with estimated time to
// MVP (40%).
func feasibility(complexityKey, weeksKey string) Normalizer {
	complexityScores := map[string]int{
		"low":    90,
		"medium": 70,
		"high":   40,
	}
	return func(metrics map[string]any) int {
		complexityScore := 60
		if c, ok := asString(metrics[complexityKey]); ok {
			if s, found := complexityScores[strings.ToLower(c)]; found {
				complexityScore = s
			}
		} else {
			complexityScore = NeutralScore
		}

		timeScore := NeutralScore
		if weeks, ok := asFloat(metrics[weeksKey]); ok {
			switch {
			case weeks <= 2:
				timeScore = 100
			case weeks <= 4:
				timeScore = 80
			case weeks <= 6:
				timeScore = 65
			case weeks <= 8:
				timeScore = 50
			default:
				timeScore = 30
			}
		}

		return clamp(roundHalfUp(float64(complexityScore)*0.6 + float64(timeScore)*0.4))
	}
}

// competition prefers the validator's numeric competition score; when the
// validator left the neutral default it falls back to the reported level.
func competition(scoreKey, levelKey string) Normalizer {
	levelScores := map[string]int{
		"low":       90,
		"medium":    70,
		"high":      40,
		"very_high": 20,
		"unknown":   50,
	}
	return func(metrics map[string]any) int {
		if s, ok := asFloat(metrics[scoreKey]); ok && int(s) != NeutralScore {
			return clamp(int(s))
		}
		if level, ok := asString(metrics[levelKey]); ok {
			if s, found := levelScores[strings.ToLower(level)]; found {
				return s
			}
		}
		return NeutralScore
	}
}

// SignalMetrics flattens a signal into the raw metric map its profile reads.
func SignalMetrics(s model.Signal, now time.Time) map[string]any {
	raw := make(map[string]any, len(s.RawMetrics)+2)
	for k, v := range s.RawMetrics {
		raw[k] = v
	}
	if s.Category != "" {
		raw["category"] = s.Category
	}
	if !s.ObservedAt.IsZero() {
		raw["age_hours"] = now.Sub(s.ObservedAt).Hours()
	}
	return raw
}

// CandidateMetrics flattens a candidate and its validation enrichment into
// the raw metric map the candidate profile reads.
func CandidateMetrics(c model.Candidate) map[string]any {
	raw := make(map[string]any, len(c.Attributes)+3)
	for k, v := range c.Attributes {
		raw[k] = v
	}
	raw["signal_score"] = c.SignalScore
	if c.Validation != nil {
		raw["competition_score"] = c.Validation.CompetitionScore
		raw["competition_level"] = c.Validation.CompetitionLevel
	}
	return raw
}
