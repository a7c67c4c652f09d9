// Package middleware wraps service handlers that answer envelopes.
//
// A HandlerFunc is the service executor: it reads the command and params of
// an incoming envelope and returns the reply built from it (CreateResponse,
// CreateError or Acknowledge), or nil when there is nothing to send back.
// Middlewares never return Go errors; failures are answered with
// req.CreateError so the reply keeps the caller's routing and reqid.
package middleware

import (
	"context"

	"github.com/flogvit/rbm-request/message"
)

// Error codes set by the middlewares in this package.
const (
	CodeTimeout     = "timeout"
	CodeRateLimited = "rate_limited"
	CodeLoop        = "loop"
)

type HandlerFunc func(ctx context.Context, req *message.Request) *message.Request

type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
