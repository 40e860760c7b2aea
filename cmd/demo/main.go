// Command demo exercises a running prospector instance end to end: it serves
// deterministic JSON feeds, triggers a pipeline run over HTTP, and prints the
// terminal job.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/okian/prospector/internal/fixtures"
	"github.com/okian/prospector/pkg/logger"
)

const (
	defaultSignals  = 20
	defaultSeed     = 1
	defaultTimeout  = 30 * time.Second
	defaultDeadline = 2 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		feedAddr = flag.String("feeds", "", "Also serve fixture feeds on this address, e.g. :9090")
		signals  = flag.Int("signals", defaultSignals, "Feed entries to generate per source")
		seed     = flag.Int64("seed", defaultSeed, "Corpus seed")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		deadline = flag.Duration("deadline", defaultDeadline, "How long to wait for the pipeline job")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get().Named("demo")
	ctx := context.Background()

	if *feedAddr != "" {
		corpus := fixtures.NewCorpus(*seed, *signals, time.Now())
		go func() {
			log.Info(ctx, "serving fixture feeds", logger.String("addr", *feedAddr))
			srv := &http.Server{
				Addr:              *feedAddr,
				Handler:           fixtures.FeedHandler(corpus),
				ReadHeaderTimeout: 5 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				os.Stderr.WriteString("feed server failed: " + err.Error() + "\n")
			}
		}()
	}

	driver := fixtures.NewDriver(*baseURL, *timeout)

	log.Info(ctx, "triggering pipeline run", logger.String("url", *baseURL))
	job, err := driver.RunPipeline(ctx, *deadline)
	if err != nil {
		os.Stderr.WriteString("pipeline run failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	log.Info(ctx, "pipeline job finished",
		logger.String("job_id", job.ID),
		logger.String("status", string(job.Status)),
	)

	out, _ := json.MarshalIndent(job, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	if stats, err := driver.Stats(ctx); err == nil {
		statsOut, _ := json.MarshalIndent(stats, "", "  ")
		os.Stdout.Write(append(statsOut, '\n'))
	}
}
