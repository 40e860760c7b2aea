package stages_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prospector/internal/adapters/stages"
	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func topCandidate() model.Candidate {
	return model.Candidate{ID: "cand-1", Name: "changelog-saas", PriorityScore: 89}
}

func TestWebhookRun(t *testing.T) {
	Convey("Given a build service that completes after two polls", t, func(c C) {
		var polls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost:
				var req struct {
					Candidate model.Candidate `json:"candidate"`
				}
				c.So(json.NewDecoder(r.Body).Decode(&req), ShouldBeNil)
				c.So(req.Candidate.Name, ShouldEqual, "changelog-saas")
				fmt.Fprint(w, `{"task_id":"t-1","state":"running"}`)
			case strings.HasSuffix(r.URL.Path, "/t-1"):
				if polls.Add(1) < 2 {
					fmt.Fprint(w, `{"task_id":"t-1","state":"running"}`)
					return
				}
				fmt.Fprint(w, `{"task_id":"t-1","state":"completed",
					"url":"https://app.example.com","details":{"region":"eu-west"}}`)
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		stage := stages.NewWebhook("build", srv.URL,
			stages.WithPolling(5*time.Millisecond, time.Second),
		)

		Convey("When the stage runs", func() {
			out, err := stage.Run(context.Background(), topCandidate(), model.StageOutput{})

			Convey("Then the deployment output is returned", func() {
				So(err, ShouldBeNil)
				So(out.Stage, ShouldEqual, "build")
				So(out.URL, ShouldEqual, "https://app.example.com")
				So(out.Details["region"], ShouldEqual, "eu-west")
				So(polls.Load(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a service that completes synchronously", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"state":"completed","url":"https://promo.example.com"}`)
		}))
		defer srv.Close()

		stage := stages.NewWebhook("promote", srv.URL)

		Convey("When the stage runs", func() {
			out, err := stage.Run(context.Background(), topCandidate(), model.StageOutput{URL: "https://app.example.com"})

			Convey("Then no polling happens and the output is returned", func() {
				So(err, ShouldBeNil)
				So(out.URL, ShouldEqual, "https://promo.example.com")
			})
		})
	})

	Convey("Given a task that never finishes", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"task_id":"t-2","state":"running"}`)
		}))
		defer srv.Close()

		stage := stages.NewWebhook("build", srv.URL,
			stages.WithPolling(5*time.Millisecond, 30*time.Millisecond),
		)

		Convey("When the deadline passes", func() {
			out, err := stage.Run(context.Background(), topCandidate(), model.StageOutput{})

			Convey("Then an empty output is a valid outcome, not an error", func() {
				So(err, ShouldBeNil)
				So(out.Stage, ShouldEqual, "build")
				So(out.URL, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a task that fails remotely", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				fmt.Fprint(w, `{"task_id":"t-3","state":"running"}`)
				return
			}
			fmt.Fprint(w, `{"task_id":"t-3","state":"failed"}`)
		}))
		defer srv.Close()

		stage := stages.NewWebhook("sell", srv.URL,
			stages.WithPolling(5*time.Millisecond, time.Second),
		)

		Convey("When the stage runs", func() {
			_, err := stage.Run(context.Background(), topCandidate(), model.StageOutput{})

			Convey("Then the remote failure surfaces as an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "task t-3 failed")
			})
		})
	})

	Convey("Given a service that rejects the trigger", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad payload", http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		stage := stages.NewWebhook("build", srv.URL)

		Convey("When the stage runs", func() {
			_, err := stage.Run(context.Background(), topCandidate(), model.StageOutput{})

			Convey("Then the status error is reported", func() {
				So(errors.Is(err, stages.ErrBadStatus), ShouldBeTrue)
			})
		})
	})
}
