package fixtures

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/prospector/internal/domain/model"
)

// feedEntry mirrors the wire shape the sources adapter expects.
type feedEntry struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Category   string         `json:"category"`
	Metrics    map[string]any `json:"metrics"`
	ObservedAt time.Time      `json:"observed_at"`
}

// FeedHandler serves the corpus as JSON feeds under /reddit, /trends and
// /product_hunt. Point the service's feed URLs at it for a self-contained
// demo.
func FeedHandler(c *Corpus) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/reddit", serveFeed(c.Reddit))
	mux.HandleFunc("/trends", serveFeed(c.Trends))
	mux.HandleFunc("/product_hunt", serveFeed(c.ProductHunt))
	return mux
}

func serveFeed(signals []model.Signal) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		entries := make([]feedEntry, len(signals))
		for i, s := range signals {
			entries[i] = feedEntry{
				ID:         s.ID,
				Title:      s.Title,
				Category:   s.Category,
				Metrics:    s.RawMetrics,
				ObservedAt: s.ObservedAt,
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(entries)
	}
}
