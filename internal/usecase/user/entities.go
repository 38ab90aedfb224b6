package user

import (
	domain "orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/usecase/page"
)

// ProfileInput updates only the fields that are present.
type ProfileInput struct {
	FirstName      *string         `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName       *string         `json:"lastName" validate:"omitempty,min=1,max=100"`
	Phone          *string         `json:"phone" validate:"omitempty,max=32"`
	ProfilePicture *string         `json:"profilePicture" validate:"omitempty,url"`
	Address        *domain.Address `json:"address"`
}

type KYCDocumentInput struct {
	Kind     string `form:"kind" validate:"required,oneof=id_card passport drivers_license proof_of_address selfie other"`
	FileName string `validate:"required"`
}

type KYCStatusInput struct {
	UserID string           `param:"id" json:"-" validate:"required,ulid"`
	Status domain.KYCStatus `json:"status" validate:"required,oneof=approved rejected"`
	Reason string           `json:"reason" validate:"omitempty,max=1000"`
}

type ListInput struct {
	page.Request
	KYCStatus domain.KYCStatus `query:"kycStatus" validate:"omitempty,oneof=pending approved rejected"`
	Role      domain.Role      `query:"role" validate:"omitempty,oneof=user admin"`
}

type ListResult struct {
	Items      []domain.User `json:"items"`
	Pagination page.Info     `json:"pagination"`
}
