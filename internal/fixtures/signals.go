// Package fixtures generates deterministic demo data and drives a running
// prospector instance end to end. It backs the cmd/demo tool.
package fixtures

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/prospector/internal/domain/model"
)

// Topic seeds the corpus draws from. Titles and categories are chosen so a
// default-threshold scan always retains something.
var topics = []struct {
	title    string
	category string
	market   string
}{
	{"AI changelog writer for release teams", "productivity", "large"},
	{"automated invoice reconciliation", "finance", "large"},
	{"on-call handover summarizer", "technology", "medium"},
	{"flashcard generator from lecture notes", "education", "medium"},
	{"sleep trend tracker for shift workers", "health", "medium"},
	{"local event discovery for families", "lifestyle", "small"},
	{"collectible card price alerts", "hobby", "small"},
}

// Corpus is a deterministic set of feed entries per source.
type Corpus struct {
	Reddit      []model.Signal
	Trends      []model.Signal
	ProductHunt []model.Signal
}

// NewCorpus builds a corpus of roughly count entries per source from seed.
// The same seed always yields the same corpus.
func NewCorpus(seed int64, count int, now time.Time) *Corpus {
	rng := rand.New(rand.NewSource(seed))

	c := &Corpus{}
	for i := 0; i < count; i++ {
		topic := topics[rng.Intn(len(topics))]
		age := time.Duration(rng.Intn(7*24)) * time.Hour
		observed := now.Add(-age)

		c.Reddit = append(c.Reddit, model.Signal{
			ID:       fmt.Sprintf("reddit-%d", i),
			Source:   model.SourceReddit,
			Title:    topic.title,
			Category: topic.category,
			RawMetrics: map[string]any{
				"upvotes":     float64(rng.Intn(1200)),
				"comments":    float64(rng.Intn(150)),
				"market_size": topic.market,
			},
			ObservedAt: observed,
		})

		c.Trends = append(c.Trends, model.Signal{
			ID:       fmt.Sprintf("trends-%d", i),
			Source:   model.SourceTrends,
			Title:    topic.title,
			Category: topic.category,
			RawMetrics: map[string]any{
				"interest":        float64(rng.Intn(100)),
				"related_queries": float64(rng.Intn(12)),
				"market_size":     topic.market,
			},
			ObservedAt: observed,
		})

		c.ProductHunt = append(c.ProductHunt, model.Signal{
			ID:       fmt.Sprintf("ph-%d", i),
			Source:   model.SourceProductHunt,
			Title:    topic.title,
			Category: topic.category,
			RawMetrics: map[string]any{
				"votes":       float64(rng.Intn(600)),
				"market_size": topic.market,
			},
			ObservedAt: observed,
		})
	}
	return c
}
