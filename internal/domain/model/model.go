// Package model contains domain models passed between pipeline stages.
package model

import "time"

// Source identifies where a raw signal was observed.
type Source string

const (
	SourceTrends      Source = "trends"
	SourceReddit      Source = "reddit"
	SourceProductHunt Source = "product_hunt"
)

// Signal is a raw opportunity observation ingested from an external source.
// RawMetrics holds source-specific factor inputs (numeric or categorical);
// Score is computed once during the scan stage and read-only downstream.
type Signal struct {
	ID         string         `json:"id"`
	Source     Source         `json:"source"`
	Title      string         `json:"title"`
	Category   string         `json:"category"`
	RawMetrics map[string]any `json:"raw_metrics"`
	Score      int            `json:"score"`
	Breakdown  *Breakdown     `json:"breakdown,omitempty"`
	ObservedAt time.Time      `json:"observed_at"`
}

// Validation is the enrichment attached to a candidate by the validator
// collaborator. A zero value means the candidate was never validated.
type Validation struct {
	CompetitorsFound int    `json:"competitors_found"`
	CompetitionLevel string `json:"competition_level"`
	CompetitionScore int    `json:"competition_score"`
	Differentiation  string `json:"differentiation"`
	MarketGap        string `json:"market_gap"`
	Status           string `json:"status"`
}

// Candidate is a generated opportunity proposal derived from one signal.
// Attributes is an opaque bag produced by the generator collaborator
// (name, tagline, feature list and so on); the core only reads the keys
// its scoring profile names.
type Candidate struct {
	ID             string         `json:"id"`
	SourceSignalID string         `json:"source_signal_id"`
	Name           string         `json:"name"`
	Attributes     map[string]any `json:"attributes"`
	SignalScore    int            `json:"signal_score"`
	Validation     *Validation    `json:"validation,omitempty"`
	PriorityScore  int            `json:"priority_score"`
	Breakdown      *Breakdown     `json:"breakdown,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// Component is one factor's contribution to a total score.
type Component struct {
	RawScore int     `json:"raw_score"`
	Weight   int     `json:"weight"`
	Weighted float64 `json:"weighted_score"`
}

// Breakdown explains how a total score was computed. Weighted contributions
// sum to Total within one point of rounding tolerance.
type Breakdown struct {
	Components map[string]Component `json:"components"`
	Total      int                  `json:"total_score"`
}

// StageOutput is the opaque result a downstream stage collaborator returns.
// URL carries the field the next stage keys off; an empty URL ends the chain.
type StageOutput struct {
	Stage   string         `json:"stage"`
	URL     string         `json:"url,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Run is one persisted pipeline run: the retained signals and the ranked
// candidates generated from them.
type Run struct {
	ID         string      `json:"id"`
	SavedAt    time.Time   `json:"saved_at"`
	Signals    []Signal    `json:"signals,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}
