package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

func (h *LoanHandler) Calculate(c echo.Context) error {
	var in loan.CalculateInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	p, err := h.uc.Calculate(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, p, "")
}

func (h *LoanHandler) Submit(c echo.Context) error {
	var in loan.SubmitInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	l, err := h.uc.SubmitRequest(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, l, "loan request submitted")
}

func (h *LoanHandler) MyLoans(c echo.Context) error {
	var in loan.ListInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	res, err := h.uc.ListMine(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return paged(c, res.Items, res.Pagination)
}

func (h *LoanHandler) ListAll(c echo.Context) error {
	var in loan.ListInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	res, err := h.uc.ListAll(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return paged(c, res.Items, res.Pagination)
}

func (h *LoanHandler) Get(c echo.Context) error {
	v, err := h.uc.Get(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, v, "")
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	v, err := h.uc.Schedule(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, v, "")
}

func (h *LoanHandler) Repay(c echo.Context) error {
	var in loan.RepaymentInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	l, err := h.uc.RecordRepayment(c.Request().Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, l, "repayment recorded")
}
