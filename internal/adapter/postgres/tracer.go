package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pscheid92/suggestbox/internal/adapter/metrics"
)

// QueryTracer records per-statement duration and errors.
type QueryTracer struct {
	metrics *metrics.StoreMetrics
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(m *metrics.StoreMetrics) *QueryTracer {
	return &QueryTracer{metrics: m}
}

type traceKey struct{}

type traceData struct {
	start time.Time
	query string
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceData{start: time.Now(), query: statementKind(data.SQL)})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	td, ok := ctx.Value(traceKey{}).(traceData)
	if !ok {
		return
	}

	t.metrics.QueryDuration.WithLabelValues(td.query).Observe(time.Since(td.start).Seconds())
	if data.Err != nil {
		t.metrics.QueryErrors.WithLabelValues(td.query).Inc()
	}
}

// statementKind keeps the label set small: the leading SQL keyword, lowercased.
func statementKind(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
