package middleware

import (
	"context"

	"github.com/flogvit/rbm-request/message"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware 创建一个基于令牌桶算法的限流中间件
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Request {
			if !limiter.Allow() {
				return req.CreateError(CodeRateLimited, "rate limit exceeded")
			}
			return next(ctx, req)
		}
	}

}
