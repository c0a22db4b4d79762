package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/suggestbox/internal/adapter/metrics"
	"github.com/pscheid92/suggestbox/internal/app"
	"github.com/pscheid92/suggestbox/internal/platform/config"
)

const testAdminToken = "s3cret-admin-token"

type mockSweeper struct {
	forceRefreshFn func(ctx context.Context) (app.SweepReport, error)
	sweepPollFn    func(ctx context.Context, pollID string) (app.SweepReport, error)
}

func (m *mockSweeper) ForceRefresh(ctx context.Context) (app.SweepReport, error) {
	if m.forceRefreshFn != nil {
		return m.forceRefreshFn(ctx)
	}
	return app.SweepReport{Trigger: app.TriggerManual}, nil
}

func (m *mockSweeper) SweepPoll(ctx context.Context, pollID string) (app.SweepReport, error) {
	if m.sweepPollFn != nil {
		return m.sweepPollFn(ctx, pollID)
	}
	return app.SweepReport{Trigger: app.TriggerTargeted, Polls: 1}, nil
}

type testServerOption func(*testServerOptions)

type testServerOptions struct {
	cfg            *config.Config
	healthChecks   []HealthCheck
	clock          clockwork.Clock
	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
}

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(o *testServerOptions) { o.healthChecks = checks }
}

func withConfig(cfg *config.Config) testServerOption {
	return func(o *testServerOptions) { o.cfg = cfg }
}

func withClock(clock clockwork.Clock) testServerOption {
	return func(o *testServerOptions) { o.clock = clock }
}

func withMetrics(reg *prometheus.Registry) testServerOption {
	return func(o *testServerOptions) {
		o.metricsHandler = metrics.Handler(reg)
		o.httpMetrics = metrics.NewHTTPMetrics(reg)
	}
}

func newTestServer(t *testing.T, sweeper sweeper, opts ...testServerOption) *Server {
	t.Helper()

	o := &testServerOptions{
		cfg: &config.Config{
			AppEnv:     "development",
			Port:       "8080",
			AdminToken: testAdminToken,
		},
		clock: clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	for _, opt := range opts {
		opt(o)
	}

	return NewServer(o.cfg, sweeper, o.metricsHandler, o.httpMetrics, o.healthChecks, o.clock)
}
