package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When created with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then all collectors should be initialized", func() {
				So(manager, ShouldNotBeNil)
				So(manager.jobsCreated, ShouldNotBeNil)
				So(manager.jobsCompleted, ShouldNotBeNil)
				So(manager.jobsFailed, ShouldNotBeNil)
				So(manager.stageDuration, ShouldNotBeNil)
				So(manager.scoringLatency, ShouldNotBeNil)
				So(manager.batchItemsProcessed, ShouldNotBeNil)
				So(manager.httpRequests, ShouldNotBeNil)
			})
		})

		Convey("When created with custom namespace and buckets", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("custom"),
				WithSubsystem("stages"),
				WithHistogramBuckets([]float64{1, 5, 10}),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "custom")
				So(manager.subsystem, ShouldEqual, "stages")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording through the package helpers", func() {
			record := func() {
				RecordJobCreated("pipeline")
				RecordJobCompleted("pipeline")
				RecordJobFailed("scan")
				UpdateJobsRunning(2)
				RecordStageDuration("scan", 12.5)
				RecordStageFailure("generate")
				RecordEntityScored()
				RecordScoringLatency(0.3)
				RecordBatchItemProcessed()
				RecordBatchItemDegraded()
				RecordSignalsFetched("reddit", 10)
				UpdateSignalsRetained(4)
				RecordRunPersisted()
				UpdateCandidatesPersisted(3)
				RecordHTTPRequest("/pipeline", "POST", "202")
				RecordHTTPRequestDuration("/pipeline", "POST", "202", 1.2)
			}

			Convey("Then no recorder should panic", func() {
				So(record, ShouldNotPanic)
			})
		})

		Convey("When fetching the registry", func() {
			Convey("Then it should be non-nil and gatherable", func() {
				reg := GetRegistry()
				So(reg, ShouldNotBeNil)
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
