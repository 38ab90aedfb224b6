package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/domain/apperr"
	ucuser "orbitlend-backend/internal/usecase/user"
)

const maxDocumentBytes = 10 << 20

type UserHandler struct{ uc *ucuser.Usecase }

func NewUserHandler(uc *ucuser.Usecase) *UserHandler { return &UserHandler{uc: uc} }

func (h *UserHandler) Profile(c echo.Context) error {
	u, err := h.uc.Profile(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u, "")
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var in ucuser.ProfileInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	u, err := h.uc.UpdateProfile(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u, "profile updated")
}

// UploadKYCDocument takes multipart fields "kind" and "document".
func (h *UserHandler) UploadKYCDocument(c echo.Context) error {
	fh, err := c.FormFile("document")
	if err != nil {
		return apperr.Validation("document file is required")
	}
	if fh.Size > maxDocumentBytes {
		return apperr.Validation("document must be at most 10MB")
	}
	in := ucuser.KYCDocumentInput{Kind: c.FormValue("kind"), FileName: fh.Filename}
	if err := c.Validate(&in); err != nil {
		return err
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	u, err := h.uc.UploadKYCDocument(c.Request().Context(), currentUser(c), in, f)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, u, "document uploaded")
}

func (h *UserHandler) DeactivateSelf(c echo.Context) error {
	caller := currentUser(c)
	u, err := h.uc.Deactivate(c.Request().Context(), caller, caller.UserID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u, "account deactivated")
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	u, err := h.uc.Deactivate(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u, "account deactivated")
}

func (h *UserHandler) List(c echo.Context) error {
	var in ucuser.ListInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	res, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return paged(c, res.Items, res.Pagination)
}

func (h *UserHandler) SetKYCStatus(c echo.Context) error {
	var in ucuser.KYCStatusInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	u, err := h.uc.SetKYCStatus(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u, "KYC status updated")
}
