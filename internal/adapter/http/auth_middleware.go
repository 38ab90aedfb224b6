package http

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/logger"
)

const ctxUser = "user"

var (
	errNoToken   = apperr.Authentication("authentication required")
	errAdminOnly = apperr.Authorization("admin access required")
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// RequireAuth loads the caller from the bearer token and adds user_id to the
// request logger.
func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			tok, found := strings.CutPrefix(h, "Bearer ")
			if !found || strings.TrimSpace(tok) == "" {
				return errNoToken
			}
			u, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(tok))
			if err != nil {
				return err
			}
			c.Set(ctxUser, u)

			req := c.Request()
			ctx := logger.WithContext(req.Context(), logger.FromContext(req.Context()).With("user_id", u.UserID))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := currentUser(c)
		if u == nil {
			return errNoToken
		}
		if !u.IsAdmin() {
			return errAdminOnly
		}
		return next(c)
	}
}

func RequireKYC(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := currentUser(c)
		if u == nil {
			return errNoToken
		}
		if u.KYCStatus != user.KYCApproved {
			return user.ErrKYCRequired
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *user.User {
	u, _ := c.Get(ctxUser).(*user.User)
	return u
}

// UserIDFromContext lets other middleware scope keys by caller.
func UserIDFromContext(c echo.Context) string {
	if u := currentUser(c); u != nil {
		return u.UserID
	}
	return ""
}

func bindValid(c echo.Context, in any) error {
	if err := c.Bind(in); err != nil {
		return apperr.Validation("invalid request body")
	}
	return c.Validate(in)
}
