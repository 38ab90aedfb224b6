package nftmock

import (
	"context"

	domain "orbitlend-backend/internal/domain/nftloan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn               func(ctx context.Context, n *domain.NFTLoan) error
	SaveFn                 func(ctx context.Context, n *domain.NFTLoan) error
	GetByNFTLoanIDFn       func(ctx context.Context, id string) (*domain.NFTLoan, error)
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.NFTLoan, error)
	ExistsForLoanFn        func(ctx context.Context, loanID string) (bool, error)
	ListByLoanIDsOrOwnerFn func(ctx context.Context, loanIDs []string, owner string) ([]domain.NFTLoan, error)
	ListListedFn           func(ctx context.Context) ([]domain.NFTLoan, error)
	CountListedFn          func(ctx context.Context) (int64, error)
}

func (m *Repo) Create(ctx context.Context, n *domain.NFTLoan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, n *domain.NFTLoan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, n)
	}
	return nil
}

func (m *Repo) GetByNFTLoanID(ctx context.Context, id string) (*domain.NFTLoan, error) {
	if m.GetByNFTLoanIDFn != nil {
		return m.GetByNFTLoanIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.NFTLoan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ExistsForLoan(ctx context.Context, loanID string) (bool, error) {
	if m.ExistsForLoanFn != nil {
		return m.ExistsForLoanFn(ctx, loanID)
	}
	return false, nil
}

func (m *Repo) ListByLoanIDsOrOwner(ctx context.Context, loanIDs []string, owner string) ([]domain.NFTLoan, error) {
	if m.ListByLoanIDsOrOwnerFn != nil {
		return m.ListByLoanIDsOrOwnerFn(ctx, loanIDs, owner)
	}
	return nil, nil
}

func (m *Repo) ListListed(ctx context.Context) ([]domain.NFTLoan, error) {
	if m.ListListedFn != nil {
		return m.ListListedFn(ctx)
	}
	return nil, nil
}

func (m *Repo) CountListed(ctx context.Context) (int64, error) {
	if m.CountListedFn != nil {
		return m.CountListedFn(ctx)
	}
	return 0, nil
}
