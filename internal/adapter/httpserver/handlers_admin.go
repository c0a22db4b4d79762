package httpserver

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pscheid92/suggestbox/internal/app"
	"github.com/pscheid92/suggestbox/internal/platform/correlation"
	apperrors "github.com/pscheid92/suggestbox/internal/platform/errors"
)

const (
	adminRatePerSecond = 1
	adminBurst         = 5
)

type sweepResponse struct {
	Trigger       app.Trigger `json:"trigger"`
	Polls         int         `json:"polls"`
	Finalized     int         `json:"finalized"`
	Missing       int         `json:"missing"`
	Failed        int         `json:"failed"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

func (s *Server) registerAdminRoutes() {
	admin := s.echo.Group("/admin", newRateLimiter(adminRatePerSecond, adminBurst), s.requireAdminToken())
	admin.POST("/sweep", s.handleForceRefresh)
	admin.POST("/polls/:id/sweep", s.handleSweepPoll)
}

func (s *Server) requireAdminToken() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(s.config.AdminToken)) == 1, nil
		},
		ErrorHandler: func(_ error, _ echo.Context) error {
			return apperrors.UnauthorizedError("missing or invalid admin token")
		},
	})
}

func (s *Server) handleForceRefresh(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := s.sweeper.ForceRefresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to run manual sweep: %w", err)
	}

	slog.InfoContext(ctx, "Manual sweep requested over HTTP", "polls", report.Polls, "failed", report.Failed)
	return s.writeReport(c, report)
}

func (s *Server) handleSweepPoll(c echo.Context) error {
	pollID := strings.TrimSpace(c.Param("id"))
	if pollID == "" {
		return apperrors.ValidationError("poll id is required")
	}

	report, err := s.sweeper.SweepPoll(c.Request().Context(), pollID)
	if err != nil {
		structured := apperrors.AsStructuredError(err)
		return structured.WithField("poll_id", pollID)
	}

	return s.writeReport(c, report)
}

func (s *Server) writeReport(c echo.Context, report app.SweepReport) error {
	id, _ := correlation.ID(c.Request().Context())
	resp := sweepResponse{
		Trigger:       report.Trigger,
		Polls:         report.Polls,
		Finalized:     report.Finalized,
		Missing:       report.Missing,
		Failed:        report.Failed,
		CorrelationID: id,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write sweep report: %w", err)
	}
	return nil
}
