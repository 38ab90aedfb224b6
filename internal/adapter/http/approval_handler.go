package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/usecase/approval"
)

type ApprovalHandler struct{ uc *approval.Usecase }

func NewApprovalHandler(uc *approval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

// ApproveLoan answers 200 even when minting failed; the failure is reported
// in the warning field.
func (h *ApprovalHandler) ApproveLoan(c echo.Context) error {
	var in approval.ApproveInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	res, err := h.uc.Approve(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		return warn(c, res, "loan approved", res.Warning)
	}
	return ok(c, http.StatusOK, res, "loan approved and NFT minted")
}

func (h *ApprovalHandler) RejectLoan(c echo.Context) error {
	var in approval.RejectInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	res, err := h.uc.Reject(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, res, "loan rejected")
}

func (h *ApprovalHandler) MarkDefaulted(c echo.Context) error {
	var in approval.DefaultInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	res, err := h.uc.MarkDefaulted(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, res, "loan marked as defaulted")
}

func (h *ApprovalHandler) RetryMint(c echo.Context) error {
	var in approval.RetryMintInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	res, err := h.uc.RetryMint(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, res, "NFT minted")
}

func (h *ApprovalHandler) Stats(c echo.Context) error {
	s, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, s, "")
}
