package validate_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/internal/domain/validate"
)

func TestHeuristicValidate(t *testing.T) {
	Convey("Given the heuristic validator", t, func() {
		v := validate.NewHeuristic()

		Convey("When validating a large-market candidate", func() {
			result, err := v.Validate(context.Background(), model.Candidate{
				Name:        "changelog-saas",
				SignalScore: 81,
				Attributes: map[string]any{
					"market_size": "large",
					"pitch":       "niche SaaS for AI Changelog Writer",
				},
			})

			Convey("Then the crowded market lands in the medium band", func() {
				So(err, ShouldBeNil)
				So(result.CompetitorsFound, ShouldEqual, 2)
				So(result.CompetitionLevel, ShouldEqual, "medium")
				So(result.CompetitionScore, ShouldEqual, 70)
				So(result.MarketGap, ShouldEqual, "moderate")
				So(result.Differentiation, ShouldEqual, "moderate")
				So(result.Status, ShouldEqual, "validated")
			})
		})

		Convey("When validating a small-market candidate with no pitch", func() {
			result, err := v.Validate(context.Background(), model.Candidate{
				Name:        "niche-tool",
				SignalScore: 65,
				Attributes: map[string]any{
					"market_size": "small",
				},
			})

			Convey("Then an open niche scores low competition", func() {
				So(err, ShouldBeNil)
				So(result.CompetitorsFound, ShouldEqual, 0)
				So(result.CompetitionLevel, ShouldEqual, "low")
				So(result.CompetitionScore, ShouldEqual, 90)
				So(result.MarketGap, ShouldEqual, "wide")
				So(result.Differentiation, ShouldEqual, "weak")
			})
		})

		Convey("When the source signal is very hot", func() {
			result, err := v.Validate(context.Background(), model.Candidate{
				Name:        "hot-space-app",
				SignalScore: 95,
				Attributes: map[string]any{
					"market_size": "large",
					"pitch":       "browser extension for a space everyone is already building in",
				},
			})

			Convey("Then the extra builder pressure pushes it into the high band", func() {
				So(err, ShouldBeNil)
				So(result.CompetitorsFound, ShouldEqual, 3)
				So(result.CompetitionLevel, ShouldEqual, "high")
				So(result.CompetitionScore, ShouldEqual, 40)
				So(result.MarketGap, ShouldEqual, "narrow")
				So(result.Differentiation, ShouldEqual, "strong")
			})
		})

		Convey("When the candidate carries no usable attributes", func() {
			result, err := v.Validate(context.Background(), model.Candidate{Name: "bare"})

			Convey("Then the default estimate keeps the medium band", func() {
				So(err, ShouldBeNil)
				So(result.CompetitorsFound, ShouldEqual, 1)
				So(result.CompetitionLevel, ShouldEqual, "medium")
				So(result.CompetitionScore, ShouldEqual, 70)
				So(result.Status, ShouldEqual, "validated")
			})
		})
	})
}
