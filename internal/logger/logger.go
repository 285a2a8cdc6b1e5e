// Package logger builds the process-wide zap logger and the Echo middleware
// that attaches a request-scoped child logger to every request.
package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const contextKey = "logger"

// New builds a logger for the given environment.  Production gets JSON
// output; anything else gets the colored console encoder.  An unparsable
// level falls back to info.  The result is also installed as zap's global
// logger.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}

// Middleware logs one line per request and stores a logger tagged with the
// request id in the Echo context.
func Middleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			l := base.With(zap.String("request_id", requestID))
			c.Set(contextKey, l)

			err := next(c)
			if err != nil {
				// let Echo write the response so the logged status is final
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if err != nil {
				l.Warn("request failed", append(fields, zap.Error(err))...)
			} else {
				l.Info("request completed", fields...)
			}
			return nil
		}
	}
}

// FromContext returns the request-scoped logger, or the global one when the
// middleware did not run.
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(contextKey).(*zap.Logger); ok {
		return l
	}
	return zap.L()
}

// With adds fields to the request-scoped logger.
func With(c echo.Context, fields ...zap.Field) {
	c.Set(contextKey, FromContext(c).With(fields...))
}
