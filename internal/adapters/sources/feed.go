// Package sources adapts external trend feeds into signal sources.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/pkg/logger"
)

const (
	defaultTimeout = 15 * time.Second

	// maxFeedBytes caps how much of a feed response is read. Feeds are
	// small; anything larger is a misbehaving endpoint.
	maxFeedBytes = 4 << 20
)

// feedItem is the wire shape one feed entry arrives in.
type feedItem struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Category   string         `json:"category"`
	Metrics    map[string]any `json:"metrics"`
	ObservedAt time.Time      `json:"observed_at"`
}

// Feed fetches signals from one HTTP JSON endpoint and tags them with a
// source identity for scoring.
type Feed struct {
	source model.Source
	url    string
	client *http.Client
	logger logger.Logger
}

// FeedOption applies a configuration option to the Feed.
type FeedOption func(*Feed)

// WithHTTPClient sets a custom HTTP client, for timeouts or test transports.
func WithHTTPClient(c *http.Client) FeedOption {
	return func(f *Feed) {
		if c != nil {
			f.client = c
		}
	}
}

// WithFeedLogger sets a custom logger for the feed.
func WithFeedLogger(l logger.Logger) FeedOption {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFeed creates a feed for the given source identity and endpoint URL.
func NewFeed(source model.Source, url string, opts ...FeedOption) *Feed {
	f := &Feed{
		source: source,
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger.Get().Named("feed"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name identifies the feed in logs and metrics.
func (f *Feed) Name() string { return string(f.source) }

// Fetch pulls the feed and converts entries into raw, unscored signals.
func (f *Feed) Fetch(ctx context.Context) ([]model.Signal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s feed: %w", f.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s feed returned %d", ErrBadStatus, f.source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s feed: %w", f.source, err)
	}

	var items []feedItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %s feed: %v", ErrBadPayload, f.source, err)
	}

	signals := make([]model.Signal, 0, len(items))
	for _, item := range items {
		signals = append(signals, model.Signal{
			ID:         item.ID,
			Source:     f.source,
			Title:      item.Title,
			Category:   item.Category,
			RawMetrics: item.Metrics,
			ObservedAt: item.ObservedAt,
		})
	}

	f.logger.Debug(ctx, "fetched feed",
		logger.String("source", string(f.source)),
		logger.Int("count", len(signals)),
	)

	return signals, nil
}
