// Package httpx holds the retry policy shared by both provider clients: a
// bounded attempt loop with a linear backoff table (attempt × base delay),
// where 5xx responses, timeouts, aborts, and transport failures are
// retryable and every 4xx is terminal.
package httpx

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrTransient marks timeouts, aborts, connection failures, and 5xx
// responses that survived the retry budget.
var ErrTransient = errors.New("transient provider failure")

// LinearBackoff returns a backoff whose nth delay is n × base: 1s, 2s, 3s
// for the default base. No jitter; the schedule must stay trivially testable.
func LinearBackoff(base time.Duration) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}

// Policy caps LinearBackoff at maxRetries, giving maxRetries+1 total attempts.
func Policy(maxRetries uint64, base time.Duration) retry.Backoff {
	return retry.WithMaxRetries(maxRetries, LinearBackoff(base))
}

// RetryableStatus reports whether an HTTP status should be retried. Only
// server-side failures qualify; client errors are terminal no matter what.
func RetryableStatus(code int) bool {
	return code >= http.StatusInternalServerError
}

// DrainAndClose discards any unread body so the transport can reuse the
// connection across retry attempts.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
