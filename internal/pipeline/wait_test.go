package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prospector/internal/pipeline"
)

func TestWaitFor(t *testing.T) {
	Convey("Given a probe that succeeds on the third attempt", t, func() {
		var attempts atomic.Int32
		probe := func(context.Context) (bool, error) {
			return attempts.Add(1) >= 3, nil
		}

		Convey("When waiting with a generous deadline", func() {
			ok, err := pipeline.WaitFor(context.Background(), 5*time.Millisecond, time.Second, probe)

			Convey("Then it reports readiness after polling", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(attempts.Load(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a probe that is never ready", t, func() {
		probe := func(context.Context) (bool, error) { return false, nil }

		Convey("When the deadline passes", func() {
			ok, err := pipeline.WaitFor(context.Background(), 5*time.Millisecond, 30*time.Millisecond, probe)

			Convey("Then exhaustion is a normal outcome, not an error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a probe that fails outright", t, func() {
		probeErr := errors.New("status endpoint gone")
		probe := func(context.Context) (bool, error) { return false, probeErr }

		Convey("When waiting", func() {
			ok, err := pipeline.WaitFor(context.Background(), 5*time.Millisecond, time.Second, probe)

			Convey("Then the failure surfaces immediately", func() {
				So(ok, ShouldBeFalse)
				So(errors.Is(err, probeErr), ShouldBeTrue)
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		probe := func(context.Context) (bool, error) { return false, nil }

		Convey("When waiting", func() {
			ok, err := pipeline.WaitFor(ctx, 5*time.Millisecond, time.Second, probe)

			Convey("Then cancellation is reported", func() {
				So(ok, ShouldBeFalse)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
