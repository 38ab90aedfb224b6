package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/usecase/marketplace"
)

type NFTHandler struct{ uc *marketplace.Usecase }

func NewNFTHandler(uc *marketplace.Usecase) *NFTHandler { return &NFTHandler{uc: uc} }

func (h *NFTHandler) MyNFTs(c echo.Context) error {
	out, err := h.uc.ListMine(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out, "")
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.Validation(name + " must be a number")
	}
	return &d, nil
}

func (h *NFTHandler) Browse(c echo.Context) error {
	in := marketplace.BrowseInput{
		Purpose: c.QueryParam("purpose"),
		Sort:    marketplace.Sort(c.QueryParam("sort")),
	}
	if err := echo.QueryParamsBinder(c).
		Int("page", &in.Page).
		Int("limit", &in.Limit).
		BindError(); err != nil {
		return apperr.Validation("page and limit must be integers")
	}
	var err error
	if in.MinAmount, err = queryDecimal(c, "minAmount"); err != nil {
		return err
	}
	if in.MaxAmount, err = queryDecimal(c, "maxAmount"); err != nil {
		return err
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	in.Request = in.Request.Normalize()

	res, err := h.uc.Browse(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return paged(c, res.Items, res.Pagination)
}

func (h *NFTHandler) Get(c echo.Context) error {
	v, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, v, "")
}

func (h *NFTHandler) Ownership(c echo.Context) error {
	o, err := h.uc.Ownership(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, o, "")
}

func (h *NFTHandler) List(c echo.Context) error {
	var in marketplace.ListInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	n, err := h.uc.List(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, n, "NFT listed on marketplace")
}

func (h *NFTHandler) Unlist(c echo.Context) error {
	n, err := h.uc.Unlist(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, n, "NFT removed from marketplace")
}

func (h *NFTHandler) Transfer(c echo.Context) error {
	var in marketplace.TransferInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	n, err := h.uc.Transfer(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, n, "NFT transferred")
}

func (h *NFTHandler) TxStatus(c echo.Context) error {
	st, err := h.uc.TransactionStatus(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, st, "")
}
