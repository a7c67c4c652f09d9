package middleware

import (
	"context"

	"github.com/flogvit/rbm-request/message"
)

// HopGuardMiddleware records self in the hops of every envelope passing
// through and rejects envelopes that already visited self, breaking
// routing loops between nodes.
func HopGuardMiddleware(self string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Request {
			if req.HasHop(self) {
				return req.CreateError(CodeLoop, "routing loop detected at "+self)
			}
			req.AddHop(self)
			return next(ctx, req)
		}
	}
}
