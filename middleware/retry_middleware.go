package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/flogvit/rbm-request/message"
	"go.uber.org/zap"
)

// RetryMiddleware re-runs next while it answers with a retryable error:
// CodeTimeout, or an error text mentioning a timeout or a refused
// connection. Attempts back off exponentially from baseDelay and stop early
// when ctx is done. Each attempt gets its own clone of req.
func RetryMiddleware(maxRetries int, baseDelay time.Duration, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Request {
			resp := next(ctx, req.Clone())
			for i := 0; i < maxRetries; i++ {
				if !retryable(resp) {
					return resp // Success or non-retryable error
				}
				logger.Info("retrying request",
					zap.String("command", req.Command),
					zap.Int("attempt", i+1),
					zap.Any("error", resp.GetError()),
				)
				select {
				case <-time.After(baseDelay * time.Duration(1<<i)): // Exponential backoff
				case <-ctx.Done():
					return resp
				}
				resp = next(ctx, req.Clone())
			}
			return resp // Return last response after retries
		}
	}
}

func retryable(resp *message.Request) bool {
	if resp == nil || !resp.IsError() {
		return false
	}
	if resp.GetError() == CodeTimeout {
		return true
	}
	text := resp.ErrorText.Value()
	return strings.Contains(text, "timeout") || strings.Contains(text, "connection refused")
}
