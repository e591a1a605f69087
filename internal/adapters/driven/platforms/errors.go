package platforms

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// classify converts a transport or OAuth error into a *domain.PlatformError.
// Response bodies are dropped so nothing token-like ends up in error strings.
func (a *Adapter) classify(op string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		perr := a.platformError(op, status, errors.New(statusText(status)), transientStatus(status))
		perr.Code = rerr.ErrorCode
		return perr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return a.platformError(op, 0, context.Canceled, false)
	case errors.Is(err, context.DeadlineExceeded):
		return a.platformError(op, 0, context.DeadlineExceeded, true)
	}

	var (
		uerr *url.Error
		nerr net.Error
	)
	if errors.As(err, &uerr) || errors.As(err, &nerr) {
		return a.platformError(op, 0, err, true)
	}

	// Anything else is a malformed response, e.g. a token response without access_token.
	return a.platformError(op, 0, err, false)
}

func (a *Adapter) platformError(op string, status int, err error, transient bool) *domain.PlatformError {
	return &domain.PlatformError{
		Platform:   a.def.Platform,
		Op:         op,
		StatusCode: status,
		Transient:  transient,
		Err:        err,
	}
}

// transientStatus reports whether a failure with this status leaves the grant intact.
// 429 is transient but, like every 4xx, it is never retried automatically.
func transientStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// retryable reports whether err may be retried: transient, and not a client error.
func retryable(err error) bool {
	if !domain.IsTemporary(err) {
		return false
	}
	var perr *domain.PlatformError
	if errors.As(err, &perr) && perr.StatusCode >= 400 && perr.StatusCode < 500 {
		return false
	}
	return true
}

func statusText(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected response"
}

// withRetry runs fn and retries it once after retryWait if it fails with a 5xx or a network error.
// Client errors, 429 included, are returned immediately.
func (a *Adapter) withRetry(ctx context.Context, op string, fn func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.retryWait), 1),
		ctx,
	)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		if attempt == 1 {
			a.logger.Warn("transient platform failure, retrying", "op", op, "error", err)
		}
		return err
	}, policy)
}
