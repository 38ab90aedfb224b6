package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/infrastructure/logger"
	"orbitlend-backend/internal/usecase/page"
)

// Envelope is the shape of every response body.
type Envelope struct {
	Success    bool         `json:"success"`
	Data       any          `json:"data,omitempty"`
	Error      string       `json:"error,omitempty"`
	Message    string       `json:"message,omitempty"`
	Details    []FieldError `json:"details,omitempty"`
	Warning    string       `json:"warning,omitempty"`
	Pagination *page.Info   `json:"pagination,omitempty"`
}

func ok(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func paged(c echo.Context, data any, p page.Info) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

func warn(c echo.Context, data any, message, warning string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Message: message, Warning: warning})
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:     http.StatusBadRequest,
	apperr.KindAuthentication: http.StatusUnauthorized,
	apperr.KindAuthorization:  http.StatusForbidden,
	apperr.KindNotFound:       http.StatusNotFound,
	apperr.KindConflict:       http.StatusConflict,
	apperr.KindExternal:       http.StatusInternalServerError,
	apperr.KindInternal:       http.StatusInternalServerError,
}

// ErrorHandler writes every error through the envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context()).Error("request failed", "status", status, "err", err)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.FromContext(c.Request().Context()).Error("error response not written", "err", err)
	}
}

func errorBody(err error) (int, Envelope) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, Envelope{Error: "validation failed", Message: string(apperr.KindValidation), Details: ToFieldErrors(err)}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, Envelope{Error: msg}
	}
	kind := apperr.KindOf(err)
	status := kindStatus[kind]
	return status, Envelope{Error: apperr.Message(err), Message: string(kind)}
}
