package repository_test

import (
	"testing"
	"time"

	repository "github.com/okian/prospector/internal/adapters/repository"
	"github.com/okian/prospector/internal/jobs"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore(t *testing.T) {
	Convey("Given an in-memory job store", t, func() {
		store := repository.NewMemStore()

		job := jobs.Job{
			ID:        "scan-20260901-100000-ab12cd34",
			Stage:     jobs.StageScan,
			Status:    jobs.StatusPending,
			CreatedAt: time.Now().UTC(),
		}

		Convey("When inserting and fetching a job", func() {
			So(store.Insert(job), ShouldBeNil)
			got, err := store.Get(job.ID)

			Convey("Then the stored record should come back", func() {
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, job.ID)
				So(got.Status, ShouldEqual, jobs.StatusPending)
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When inserting the same id twice", func() {
			So(store.Insert(job), ShouldBeNil)
			err := store.Insert(job)

			Convey("Then the duplicate should be rejected", func() {
				So(err, ShouldWrap, jobs.ErrDuplicateID)
			})
		})

		Convey("When fetching an unknown id", func() {
			_, err := store.Get("nope")

			Convey("Then it should fail with ErrNotFound", func() {
				So(err, ShouldWrap, jobs.ErrNotFound)
			})
		})

		Convey("When updating a running job", func() {
			So(store.Insert(job), ShouldBeNil)
			job.Status = jobs.StatusRunning
			err := store.Update(job)

			Convey("Then the update should be applied", func() {
				So(err, ShouldBeNil)
				got, _ := store.Get(job.ID)
				So(got.Status, ShouldEqual, jobs.StatusRunning)
			})
		})

		Convey("When updating a job already in a terminal state", func() {
			job.Status = jobs.StatusCompleted
			So(store.Insert(job), ShouldBeNil)
			job.Status = jobs.StatusFailed
			err := store.Update(job)

			Convey("Then the terminal record should be immutable", func() {
				So(err, ShouldWrap, jobs.ErrInvalidTransition)
				got, _ := store.Get(job.ID)
				So(got.Status, ShouldEqual, jobs.StatusCompleted)
			})
		})

		Convey("When listing jobs", func() {
			So(store.Insert(job), ShouldBeNil)
			other := job
			other.ID = "generate-20260901-100001-ef56ab78"
			other.Stage = jobs.StageGenerate
			So(store.Insert(other), ShouldBeNil)

			Convey("Then all records should be returned", func() {
				So(store.List(), ShouldHaveLength, 2)
			})
		})
	})
}
