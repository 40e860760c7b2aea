package fixtures_test

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prospector/internal/adapters/sources"
	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/internal/fixtures"
	"github.com/okian/prospector/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func TestNewCorpus(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	Convey("Given the same seed", t, func() {
		a := fixtures.NewCorpus(42, 10, now)
		b := fixtures.NewCorpus(42, 10, now)

		Convey("Then the corpus is deterministic", func() {
			So(a.Reddit, ShouldHaveLength, 10)
			So(a.Reddit[3].Title, ShouldEqual, b.Reddit[3].Title)
			So(a.Reddit[3].RawMetrics["upvotes"], ShouldEqual, b.Reddit[3].RawMetrics["upvotes"])
			So(a.Trends[7].RawMetrics["interest"], ShouldEqual, b.Trends[7].RawMetrics["interest"])
		})

		Convey("Then every entry carries the metrics its source is scored on", func() {
			for _, s := range a.Reddit {
				So(s.Source, ShouldEqual, model.SourceReddit)
				So(s.RawMetrics, ShouldContainKey, "upvotes")
				So(s.RawMetrics, ShouldContainKey, "comments")
			}
			for _, s := range a.Trends {
				So(s.RawMetrics, ShouldContainKey, "interest")
			}
			for _, s := range a.ProductHunt {
				So(s.RawMetrics, ShouldContainKey, "votes")
			}
		})
	})

	Convey("Given different seeds", t, func() {
		a := fixtures.NewCorpus(1, 50, now)
		b := fixtures.NewCorpus(2, 50, now)

		Convey("Then the corpora differ somewhere", func() {
			same := true
			for i := range a.Reddit {
				if a.Reddit[i].RawMetrics["upvotes"] != b.Reddit[i].RawMetrics["upvotes"] {
					same = false
					break
				}
			}
			So(same, ShouldBeFalse)
		})
	})
}

func TestFeedHandler(t *testing.T) {
	Convey("Given fixture feeds served over HTTP", t, func() {
		now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		srv := httptest.NewServer(fixtures.FeedHandler(fixtures.NewCorpus(42, 5, now)))
		defer srv.Close()

		Convey("When the sources adapter fetches the reddit feed", func() {
			feed := sources.NewFeed(model.SourceReddit, srv.URL+"/reddit")
			signals, err := feed.Fetch(context.Background())

			Convey("Then the corpus round-trips through the wire format", func() {
				So(err, ShouldBeNil)
				So(signals, ShouldHaveLength, 5)
				So(signals[0].ID, ShouldEqual, "reddit-0")
				So(signals[0].Source, ShouldEqual, model.SourceReddit)
				So(signals[0].RawMetrics, ShouldContainKey, "market_size")
				So(signals[0].ObservedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When all three feeds are fetched", func() {
			for _, path := range []string{"/reddit", "/trends", "/product_hunt"} {
				feed := sources.NewFeed(model.SourceTrends, srv.URL+path)
				signals, err := feed.Fetch(context.Background())
				So(err, ShouldBeNil)
				So(signals, ShouldHaveLength, 5)
			}
		})
	})
}
