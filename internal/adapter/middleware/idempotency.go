package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/infrastructure/logger"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	// How long we hold the "in-progress" lock before it must be refreshed by finishing the handler.
	provisionalLockTTL = 60 * time.Second
)

var (
	errMissingKey  = apperr.Validation("missing " + HeaderIdempotencyKey + " header")
	errInvalidKey  = apperr.Validation(HeaderIdempotencyKey + " must be a UUID or ULID")
	errKeyReused   = apperr.Conflict(HeaderIdempotencyKey + " reused with a different body")
	errInProgress  = apperr.Conflict("request is already in progress")
	errStoreFailed = apperr.New(apperr.KindExternal, "idempotency store unavailable")
)

// ---- Data types ----
type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	Key        string    `json:"key"`
	CreatedAt  time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// Scope returns the caller identity the key is scoped to.
type Scope func(c echo.Context) string

// Idempotency records the response of a mutating request under
// method + route + scope + Idempotency-Key and replays it for retries with the
// same body. Server errors are not recorded so the client may retry them.
func Idempotency(rdb *redis.Client, ttl time.Duration, scope Scope) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			method := req.Method

			// Only enforce on mutating methods
			switch method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			idemKey := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if idemKey == "" {
				return errMissingKey
			}
			if !validKey(idemKey) {
				return errInvalidKey
			}

			// Buffer & hash body
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := buildKey(method, c.Path(), scope(c), idemKey)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			log := logger.FromContext(req.Context())

			entry := idempEntry{InProgress: true, BodySHA256: bhash, Key: idemKey, CreatedAt: nowUTC()}
			ok, err := provisionalSet(ctx, rdb, key, entry)
			if err != nil {
				log.Error("idempotency lock failed", "key", key, "err", err)
				return errStoreFailed
			}
			if !ok {
				// Key exists: body must match, and we may be able to replay
				cur, errLoad := loadEntry(ctx, rdb, key)
				if errLoad != nil {
					log.Warn("idempotency entry not loaded", "key", key, "err", errLoad)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return errKeyReused
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					c.Response().Header().Set("Idempotent-Replayed", "true")
					return c.Blob(cur.Code, echo.MIMEApplicationJSONCharsetUTF8, cur.Body)
				}
				return errInProgress
			}

			// Call next and record final response
			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				_ = release(context.Background(), rdb, key)
				return nil
			}
			final := idempEntry{
				Code:       rec.code,
				Body:       rec.buf.Bytes(),
				BodySHA256: bhash,
				Key:        idemKey,
				CreatedAt:  nowUTC(),
			}
			if err := saveFinal(context.Background(), rdb, key, final, ttl); err != nil {
				log.Warn("idempotency result not saved", "key", key, "err", err)
			}
			return nil
		}
	}
}
