package middleware

import (
	"context"
	"time"

	"github.com/flogvit/rbm-request/message"
	"go.uber.org/zap"
)

// LoggingMiddleware logs one entry per handled envelope. Error replies are
// logged at Warn with their code and text. A nil logger disables logging.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Request {
			start := time.Now()
			resp := next(ctx, req)
			fields := requestFields(req)
			fields = append(fields, zap.Duration("duration", time.Since(start)))
			if resp != nil && resp.IsError() {
				fields = append(fields, zap.Any("error", resp.GetError()))
				if text, ok := resp.ErrorText.Get(); ok {
					fields = append(fields, zap.String("errorText", text))
				}
				logger.Warn("request failed", fields...)
				return resp
			}
			logger.Info("request handled", fields...)
			return resp
		}
	}
}

func requestFields(req *message.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("command", req.Command),
		zap.Int64("reqid", req.ReqID),
	}
	if rid, ok := req.RID.Get(); ok {
		fields = append(fields, zap.String("rid", rid))
	}
	if sid, ok := req.SID.Get(); ok {
		fields = append(fields, zap.String("sid", sid))
	}
	return fields
}
