package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/infrastructure/logger"
)

// RequestLogger attaches a request-scoped logger (req_id, method, path) to
// the request context and logs one line per request once it completes.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			if reqID == "" {
				reqID = uuid.NewString()
				c.Response().Header().Set(echo.HeaderXRequestID, reqID)
			}

			log := base.With(
				"req_id", reqID,
				"method", req.Method,
				"path", req.URL.Path,
				"remote_addr", c.RealIP(),
			)
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			lvl := slog.LevelInfo
			if status >= 500 {
				lvl = slog.LevelError
			}
			log.Log(c.Request().Context(), lvl, "http_request",
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", req.UserAgent(),
			)
			return nil
		}
	}
}
