// Package generate derives product candidates from retained signals using
// delivery-shape templates. It is the built-in generator; an external
// service can replace it through the pipeline's Generator port.
package generate

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/okian/prospector/internal/domain/model"
)

// template is one delivery shape a signal can be turned into.
type template struct {
	angle      string
	suffix     string
	complexity string
	mvpWeeks   int
}

// Ordered from fastest to ship to most involved. Generation walks the list
// so small counts get the quickest shapes first.
var templates = []template{
	{angle: "browser extension for", suffix: "ext", complexity: "low", mvpWeeks: 2},
	{angle: "niche SaaS for", suffix: "app", complexity: "medium", mvpWeeks: 4},
	{angle: "API service for", suffix: "api", complexity: "medium", mvpWeeks: 5},
	{angle: "marketplace for", suffix: "hub", complexity: "high", mvpWeeks: 8},
}

// revenue bands keyed by the signal's reported market size.
var revenueByMarket = map[string]string{
	"large":  "$20k-100k/mo",
	"medium": "$5k-50k/mo",
	"small":  "$1k-10k/mo",
}

// Templater generates candidates deterministically from signal content.
type Templater struct{}

// NewTemplater creates the template-based generator.
func NewTemplater() *Templater {
	return &Templater{}
}

// Generate derives up to count candidates for the signal, one per template.
func (t *Templater) Generate(_ context.Context, signal model.Signal, count int) ([]model.Candidate, error) {
	if count <= 0 || strings.TrimSpace(signal.Title) == "" {
		return nil, fmt.Errorf("nothing to generate for signal %s", signal.ID)
	}
	if count > len(templates) {
		count = len(templates)
	}

	market := "unknown"
	if m, ok := signal.RawMetrics["market_size"].(string); ok {
		market = strings.ToLower(m)
	}
	revenue, ok := revenueByMarket[market]
	if !ok {
		revenue = "$1k-10k/mo"
	}

	slug := slugify(signal.Title)

	candidates := make([]model.Candidate, 0, count)
	for _, tpl := range templates[:count] {
		candidates = append(candidates, model.Candidate{
			Name: fmt.Sprintf("%s-%s", slug, tpl.suffix),
			Attributes: map[string]any{
				"pitch":                fmt.Sprintf("%s %s", tpl.angle, signal.Title),
				"revenue_potential":    revenue,
				"technical_complexity": tpl.complexity,
				"time_to_mvp_weeks":    tpl.mvpWeeks,
				"market_size":          market,
			},
		})
	}
	return candidates, nil
}

// slugify reduces a title to a short lowercase identifier.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	const maxLen = 32
	if len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	if slug == "" {
		slug = "candidate"
	}
	return slug
}
