package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/pscheid92/suggestbox/internal/domain"
	"github.com/pscheid92/suggestbox/internal/platform/retry"
)

// rateLimited adapts discordgo's rate limit error to retry.RetryAfterError.
type rateLimited struct {
	err *discordgo.RateLimitError
}

func (e *rateLimited) Error() string { return e.err.Error() }
func (e *rateLimited) Unwrap() error { return e.err }

func (e *rateLimited) RetryAfter() time.Duration {
	if e.err.RateLimit == nil || e.err.TooManyRequests == nil {
		return 0
	}
	return e.err.RetryAfter
}

func normalize(err error) error {
	var rle *discordgo.RateLimitError
	if errors.As(err, &rle) {
		return &rateLimited{err: rle}
	}
	return err
}

func apiCode(err error) (int, bool) {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		return rest.Message.Code, true
	}
	return 0, false
}

func statusCode(err error) (int, bool) {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode, true
	}
	return 0, false
}

// classify decides whether a failed API call is worth repeating. Client
// errors are final except for 429; server and transport errors are retried.
func classify(err error) retry.Action {
	var rl *rateLimited
	if errors.As(err, &rl) {
		return retry.After
	}

	status, ok := statusCode(err)
	switch {
	case !ok:
		return retry.Retry
	case status == http.StatusTooManyRequests:
		return retry.After
	case status >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

// mapError translates platform error codes into domain sentinels.
func mapError(op string, err error) error {
	code, _ := apiCode(err)
	switch code {
	case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
		return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrMessageNotFound, err)
	case discordgo.ErrCodeUnknownUser:
		return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrUserNotFound, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
