package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/loan"
)

func TestHealth_ReturnsOKWithRFC3339NanoUTC(t *testing.T) {
	e := echo.New()
	h := NewHandler(map[string]Check{
		"db": func(context.Context) error { return nil },
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	start := time.Now().UTC()

	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	ct := rec.Header().Get(echo.HeaderContentType)
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	var body struct {
		Status       string            `json:"status"`
		Time         string            `json:"time"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v; raw=%s", err, rec.Body.String())
	}

	if body.Status != "ok" {
		t.Fatalf(`expected status "ok", got %q`, body.Status)
	}
	if body.Dependencies["db"] != "ok" {
		t.Fatalf("dependencies = %+v", body.Dependencies)
	}

	// Time is RFC3339Nano and UTC (with 'Z')
	parsed, err := time.Parse(time.RFC3339Nano, body.Time)
	if err != nil {
		t.Fatalf("time not RFC3339Nano: %v (value=%q)", err, body.Time)
	}
	if parsed.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", parsed.Location())
	}
	now := time.Now().UTC()
	if parsed.Before(start.Add(-2*time.Second)) || parsed.After(now.Add(2*time.Second)) {
		t.Fatalf("time not within expected window: parsed=%v start=%v now=%v", parsed, start, now)
	}
}

func TestHealth_DegradedWhenDependencyFails(t *testing.T) {
	e := echo.New()
	h := NewHandler(map[string]Check{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"degraded"`) || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestErrorHandler_MapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apperr.Validation("bad input"), http.StatusBadRequest, "validation"},
		{apperr.Authentication("no token"), http.StatusUnauthorized, "authentication"},
		{apperr.Authorization("nope"), http.StatusForbidden, "authorization"},
		{loan.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("approve: %w", loan.ErrNotPending), http.StatusConflict, "conflict"},
		{apperr.External("minting", errors.New("timeout")), http.StatusInternalServerError, "external_service"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		ErrorHandler(tc.err, c)

		if rec.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		var env Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		if env.Success || env.Message != tc.kind || env.Error == "" {
			t.Fatalf("%v: envelope = %+v", tc.err, env)
		}
	}
}

func TestErrorHandler_HidesInternalDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(errors.New("dial tcp 10.0.0.3:3306: secret detail"), c)

	if strings.Contains(rec.Body.String(), "secret detail") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), c)

	if rec.Code != http.StatusTooManyRequests || !strings.Contains(rec.Body.String(), "slow down") {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestErrorHandler_ValidatorErrorsMatchValidationKind(t *testing.T) {
	type in struct {
		Reason string `json:"rejectionReason" validate:"required,min=10"`
	}
	verr := NewValidator().Validate(in{Reason: "short"})
	if verr == nil {
		t.Fatal("expected a validation error")
	}

	statuses := map[string]int{}
	for name, err := range map[string]error{"tag": verr, "usecase": apperr.Validation("bad input")} {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		ErrorHandler(err, c)
		statuses[name] = rec.Code

		var env Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		if env.Message != "validation" {
			t.Fatalf("%s: message = %q", name, env.Message)
		}
		if name == "tag" && !containsFieldMsg(env.Details, "rejectionReason", "at least 10") {
			t.Fatalf("details = %+v", env.Details)
		}
	}
	if statuses["tag"] != http.StatusBadRequest || statuses["usecase"] != http.StatusBadRequest {
		t.Fatalf("statuses = %v, want 400 for both", statuses)
	}
}
