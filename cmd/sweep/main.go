// Command sweep runs one reconciliation sweep from the command line, without
// connecting to the gateway. Useful after an outage or a botched deploy.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/suggestbox/internal/adapter/discord"
	"github.com/pscheid92/suggestbox/internal/adapter/metrics"
	"github.com/pscheid92/suggestbox/internal/adapter/postgres"
	"github.com/pscheid92/suggestbox/internal/app"
	"github.com/pscheid92/suggestbox/internal/platform/config"
	"github.com/pscheid92/suggestbox/internal/platform/logging"
)

func main() {
	var (
		pollID  = flag.String("poll", "", "Sweep only this poll (message ID)")
		timeout = flag.Duration("timeout", 10*time.Minute, "Give up after this long")
		verbose = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	slog.Info("Connected to database", "url", sanitizeURL(cfg.DatabaseURL))

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Failed to create discord session: %v", err)
	}

	// Metrics are collected but never exported from a one-shot run.
	reg := prometheus.NewRegistry()
	surface := discord.NewSurface(session, cfg.SuggestChannelID, discord.DefaultRetryPolicy, metrics.NewChatMetrics(reg))
	scheduler := app.NewScheduler(postgres.NewPollStore(pool), surface, surface, nil, metrics.NewSweepMetrics(reg), clockwork.NewRealClock(), app.SchedulerConfig{
		FrequentInterval: cfg.FrequentSweepInterval,
		FullInterval:     cfg.FullSweepInterval,
		Concurrency:      cfg.SweepConcurrency,
		RateLimit:        cfg.SweepRateLimit,
	})

	var report app.SweepReport
	if *pollID != "" {
		report, err = scheduler.SweepPoll(ctx, *pollID)
	} else {
		report, err = scheduler.ForceRefresh(ctx)
	}
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	// Per-poll failures are retried by the next sweep, so they are reported
	// but do not fail the run.
	if report.Failed > 0 {
		slog.Warn("Some polls could not be reconciled", "failed", report.Failed)
	}
	if err := printReport(os.Stdout, report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

func printReport(w io.Writer, r app.SweepReport) error {
	_, err := fmt.Fprintf(w, "trigger=%s polls=%d finalized=%d missing=%d failed=%d\n",
		r.Trigger, r.Polls, r.Finalized, r.Missing, r.Failed)
	return err
}

// sanitizeURL hides the password of a connection URL for logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
