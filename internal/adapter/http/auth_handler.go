package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/usecase/auth"
)

type AuthHandler struct{ uc *auth.Usecase }

func NewAuthHandler(uc *auth.Usecase) *AuthHandler { return &AuthHandler{uc: uc} }

func (h *AuthHandler) Register(c echo.Context) error {
	var in auth.RegisterInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	s, err := h.uc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, s, "registration successful")
}

func (h *AuthHandler) Login(c echo.Context) error {
	var in auth.LoginInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	s, err := h.uc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s, "login successful")
}

func (h *AuthHandler) WalletConnect(c echo.Context) error {
	var in auth.WalletConnectInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ch, err := h.uc.WalletConnect(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, ch, "sign the message with your wallet")
}

func (h *AuthHandler) WalletVerify(c echo.Context) error {
	var in auth.WalletVerifyInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	s, err := h.uc.WalletVerify(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s, "wallet verified")
}

func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.uc.Me(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u, "")
}
