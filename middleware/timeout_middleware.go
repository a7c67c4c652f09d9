package middleware

import (
	"context"
	"time"

	"github.com/flogvit/rbm-request/message"
)

func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Request {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			// The handler may keep running past the deadline, so it works on a copy.
			work := req.Clone()
			done := make(chan *message.Request, 1)
			go func() {
				done <- next(ctx, work)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return req.CreateError(CodeTimeout, "request timed out")
			}
		}
	}
}
