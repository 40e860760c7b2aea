package service_test

import (
	"context"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/prospector/internal/app"
	"github.com/okian/prospector/internal/config"
	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/internal/jobs"
	"github.com/okian/prospector/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

type staticSource struct {
	name    string
	signals []model.Signal
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(context.Context) ([]model.Signal, error) {
	return s.signals, nil
}

func strongSignal() model.Signal {
	return model.Signal{
		ID:       "sig-1",
		Source:   model.SourceReddit,
		Title:    "AI Changelog Writer",
		Category: "productivity",
		RawMetrics: map[string]any{
			"upvotes":     float64(800),
			"comments":    float64(60),
			"market_size": "large",
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.DataDir = t.TempDir()
	return cfg
}

// awaitJob polls until the job reaches a terminal status.
func awaitJob(t *testing.T, svc *service.Service, id string) jobs.Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		job, err := svc.GetJob(context.Background(), id)
		if err != nil {
			t.Fatalf("job %s: %v", id, err)
		}
		if job.Status.Terminal() {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job %s stuck in %s", id, job.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service built from config", t, func() {
		svc := service.New(testConfig(t),
			service.WithSources(&staticSource{name: "reddit", signals: []model.Signal{strongSignal()}}),
		)

		Convey("When started twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()

			Convey("Then stats report a started service", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["sources"], ShouldEqual, 1)
			})
		})

		Convey("When stopped before start", func() {
			svc.Stop()

			Convey("Then nothing breaks", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

func TestServiceScanAndGenerate(t *testing.T) {
	Convey("Given a started service with a static source", t, func() {
		svc := service.New(testConfig(t),
			service.WithSources(&staticSource{name: "reddit", signals: []model.Signal{strongSignal()}}),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When a scan job runs", func() {
			id, err := svc.StartScan(context.Background())
			So(err, ShouldBeNil)
			job := awaitJob(t, svc, id)

			Convey("Then it completes and retains the signal", func() {
				So(job.Status, ShouldEqual, jobs.StatusCompleted)
				So(job.Stage, ShouldEqual, jobs.StageScan)
			})

			Convey("And a follow-up generate job ranks candidates from it", func() {
				genID, err := svc.StartGenerate(context.Background())
				So(err, ShouldBeNil)
				genJob := awaitJob(t, svc, genID)

				So(genJob.Status, ShouldEqual, jobs.StatusCompleted)

				candidates, err := svc.LatestCandidates(context.Background())
				So(err, ShouldBeNil)
				So(len(candidates), ShouldBeGreaterThan, 0)
				So(candidates[0].PriorityScore, ShouldBeGreaterThanOrEqualTo, 70)

				Convey("And the built-in validator enriched them", func() {
					So(candidates[0].Validation, ShouldNotBeNil)
					So(candidates[0].Validation.Status, ShouldEqual, "validated")
					So(candidates[0].Validation.CompetitionLevel, ShouldEqual, "medium")
				})
			})
		})

		Convey("When jobs are listed", func() {
			id, err := svc.StartScan(context.Background())
			So(err, ShouldBeNil)
			awaitJob(t, svc, id)

			listed := svc.ListJobs(context.Background(), jobs.StageScan, 0)

			Convey("Then the scan job is visible", func() {
				So(len(listed), ShouldBeGreaterThan, 0)
				So(listed[0].Stage, ShouldEqual, jobs.StageScan)
			})
		})
	})
}
