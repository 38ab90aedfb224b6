package usermock

import (
	"context"

	domain "orbitlend-backend/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, u *domain.User) error
	SaveFn             func(ctx context.Context, u *domain.User) error
	GetByUserIDFn      func(ctx context.Context, userID string) (*domain.User, error)
	GetByEmailFn       func(ctx context.Context, email string) (*domain.User, error)
	GetByWalletFn      func(ctx context.Context, address string) (*domain.User, error)
	GetByUserIDsFn     func(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
	ListFn             func(ctx context.Context, f domain.ListFilter) ([]domain.User, int64, error)
	CountByKYCStatusFn func(ctx context.Context, s domain.KYCStatus) (int64, error)
}

func (m *Repo) Create(ctx context.Context, u *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, u *domain.User) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, u)
	}
	return nil
}

func (m *Repo) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByWallet(ctx context.Context, address string) (*domain.User, error) {
	if m.GetByWalletFn != nil {
		return m.GetByWalletFn(ctx, address)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.User, error) {
	if m.GetByUserIDsFn != nil {
		return m.GetByUserIDsFn(ctx, userIDs)
	}
	return map[string]*domain.User{}, nil
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.User, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *Repo) CountByKYCStatus(ctx context.Context, s domain.KYCStatus) (int64, error) {
	if m.CountByKYCStatusFn != nil {
		return m.CountByKYCStatusFn(ctx, s)
	}
	return 0, nil
}
