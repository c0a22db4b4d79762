package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/suggestbox/internal/platform/version"
)

func TestNewRegistry_RegistersAllSubsystems(t *testing.T) {
	reg := NewRegistry()

	sweep := NewSweepMetrics(reg)
	NewStoreMetrics(reg)
	NewChatMetrics(reg)
	NewCacheMetrics(reg)
	NewHTTPMetrics(reg)

	sweep.SweepsTotal.WithLabelValues("frequent").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(sweep.SweepsTotal.WithLabelValues("frequent")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/version", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/version", "/version", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/version", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
}

func TestBuildInfo(t *testing.T) {
	info := version.Info{Version: "v1.4.0", Commit: "abc123", GoVersion: "go1.25.0"}

	expected := `
# HELP suggestbox_build_info Build information of the running bot.
# TYPE suggestbox_build_info gauge
suggestbox_build_info{commit="abc123",go_version="go1.25.0",version="v1.4.0"} 1
`
	require.NoError(t, testutil.CollectAndCompare(newBuildInfo(info), strings.NewReader(expected)))
}

func TestNewRegistry_ExposesBuildInfo(t *testing.T) {
	families, err := NewRegistry().Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "suggestbox_build_info" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, 1.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}
