package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/okian/prospector/internal/adapters/repository"
	"github.com/okian/prospector/internal/jobs"
	"github.com/okian/prospector/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func newRegistry() *jobs.Registry {
	return jobs.NewRegistry(repository.NewMemStore())
}

func TestRegistryCreate(t *testing.T) {
	Convey("Given a job registry", t, func() {
		reg := newRegistry()
		ctx := context.Background()

		Convey("When creating a job", func() {
			id, err := reg.Create(ctx, jobs.StageScan)

			Convey("Then the job should start pending", func() {
				So(err, ShouldBeNil)
				So(id, ShouldNotBeEmpty)
				job, err := reg.Get(ctx, id)
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, jobs.StatusPending)
				So(job.Stage, ShouldEqual, jobs.StageScan)
				So(job.CompletedAt, ShouldBeNil)
			})
		})

		Convey("When creating many jobs within the same wall-clock second", func() {
			seen := make(map[string]bool)
			for i := 0; i < 50; i++ {
				id, err := reg.Create(ctx, jobs.StagePipeline)
				So(err, ShouldBeNil)
				seen[id] = true
			}

			Convey("Then every id should be distinct", func() {
				So(len(seen), ShouldEqual, 50)
			})
		})

		Convey("When fetching an unknown job", func() {
			_, err := reg.Get(ctx, "pipeline-unknown")

			Convey("Then it should fail with ErrNotFound", func() {
				So(err, ShouldWrap, jobs.ErrNotFound)
			})
		})
	})
}

func TestRegistryDispatch(t *testing.T) {
	Convey("Given a job registry", t, func() {
		reg := newRegistry()
		ctx := context.Background()

		Convey("When dispatching work that succeeds", func() {
			id, err := reg.Create(ctx, jobs.StageScan)
			So(err, ShouldBeNil)

			h, err := reg.Dispatch(ctx, id, func(context.Context) (any, error) {
				return map[string]int{"signals": 3}, nil
			})
			So(err, ShouldBeNil)
			So(h.Wait(ctx), ShouldBeNil)

			Convey("Then the job should be completed with its result set", func() {
				job, err := reg.Get(ctx, id)
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, jobs.StatusCompleted)
				So(job.Result, ShouldResemble, map[string]int{"signals": 3})
				So(job.Error, ShouldBeEmpty)
				So(job.CompletedAt, ShouldNotBeNil)
			})
		})

		Convey("When dispatching work that fails with a partial result", func() {
			id, err := reg.Create(ctx, jobs.StageGenerate)
			So(err, ShouldBeNil)

			h, err := reg.Dispatch(ctx, id, func(context.Context) (any, error) {
				return map[string]int{"signals": 1}, errors.New("generate stage produced no candidates")
			})
			So(err, ShouldBeNil)
			So(h.Wait(ctx), ShouldNotBeNil)

			Convey("Then the job should be failed, keeping the partial payload", func() {
				job, err := reg.Get(ctx, id)
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, jobs.StatusFailed)
				So(job.Error, ShouldContainSubstring, "no candidates")
				So(job.Result, ShouldResemble, map[string]int{"signals": 1})
			})
		})

		Convey("When the work panics", func() {
			id, err := reg.Create(ctx, jobs.StagePipeline)
			So(err, ShouldBeNil)

			h, err := reg.Dispatch(ctx, id, func(context.Context) (any, error) {
				panic("boom")
			})
			So(err, ShouldBeNil)
			<-h.Done()

			Convey("Then the panic should surface as a failed job", func() {
				job, err := reg.Get(ctx, id)
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, jobs.StatusFailed)
				So(job.Error, ShouldContainSubstring, "panicked")
			})
		})

		Convey("When dispatching the same job twice", func() {
			id, err := reg.Create(ctx, jobs.StageScan)
			So(err, ShouldBeNil)

			block := make(chan struct{})
			h, err := reg.Dispatch(ctx, id, func(context.Context) (any, error) {
				<-block
				return nil, nil
			})
			So(err, ShouldBeNil)

			_, err = reg.Dispatch(ctx, id, func(context.Context) (any, error) { return nil, nil })
			close(block)
			<-h.Done()

			Convey("Then the second dispatch should be rejected", func() {
				So(err, ShouldWrap, jobs.ErrInvalidTransition)
			})
		})

		Convey("When a caller cancels while waiting", func() {
			id, err := reg.Create(ctx, jobs.StageScan)
			So(err, ShouldBeNil)

			block := make(chan struct{})
			h, err := reg.Dispatch(ctx, id, func(context.Context) (any, error) {
				<-block
				return nil, nil
			})
			So(err, ShouldBeNil)

			waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			waitErr := h.Wait(waitCtx)
			close(block)
			<-h.Done()

			Convey("Then Wait should return the context error, not abort the job", func() {
				So(waitErr, ShouldWrap, context.DeadlineExceeded)
				job, err := reg.Get(ctx, id)
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, jobs.StatusCompleted)
			})
		})
	})
}

func TestRegistryList(t *testing.T) {
	Convey("Given a registry with a few jobs", t, func() {
		reg := newRegistry()
		ctx := context.Background()

		var ids []string
		for i := 0; i < 3; i++ {
			id, err := reg.Create(ctx, jobs.StageScan)
			So(err, ShouldBeNil)
			ids = append(ids, id)
			time.Sleep(2 * time.Millisecond)
		}
		genID, err := reg.Create(ctx, jobs.StageGenerate)
		So(err, ShouldBeNil)

		Convey("When listing without a filter", func() {
			got := reg.List(ctx, "", 0)

			Convey("Then all jobs should be returned newest-first", func() {
				So(got, ShouldHaveLength, 4)
				So(got[0].ID, ShouldEqual, genID)
				for i := 0; i < len(got)-1; i++ {
					So(got[i].CreatedAt.Before(got[i+1].CreatedAt), ShouldBeFalse)
				}
			})
		})

		Convey("When filtering by stage type", func() {
			got := reg.List(ctx, jobs.StageGenerate, 0)

			Convey("Then only matching jobs should be returned", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, genID)
			})
		})

		Convey("When applying a limit", func() {
			got := reg.List(ctx, jobs.StageScan, 2)

			Convey("Then the newest jobs within the limit should be returned", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, ids[2])
			})
		})
	})
}
