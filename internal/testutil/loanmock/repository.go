package loanmock

import (
	"context"

	domain "orbitlend-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDsFn         func(ctx context.Context, loanIDs []string) (map[string]*domain.Loan, error)
	SaveIfStatusFn         func(ctx context.Context, l *domain.Loan, from domain.Status) error
	ListFn                 func(ctx context.Context, f domain.ListFilter) ([]domain.Loan, int64, error)
	CountByUserStatusesFn  func(ctx context.Context, userID string, statuses ...domain.Status) (int64, error)
	StatsFn                func(ctx context.Context) (*domain.Stats, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDs(ctx context.Context, loanIDs []string) (map[string]*domain.Loan, error) {
	if m.GetByLoanIDsFn != nil {
		return m.GetByLoanIDsFn(ctx, loanIDs)
	}
	return map[string]*domain.Loan{}, nil
}

func (m *Repo) SaveIfStatus(ctx context.Context, l *domain.Loan, from domain.Status) error {
	if m.SaveIfStatusFn != nil {
		return m.SaveIfStatusFn(ctx, l, from)
	}
	l.Version++
	return nil
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Loan, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *Repo) CountByUserStatuses(ctx context.Context, userID string, statuses ...domain.Status) (int64, error) {
	if m.CountByUserStatusesFn != nil {
		return m.CountByUserStatusesFn(ctx, userID, statuses...)
	}
	return 0, nil
}

func (m *Repo) Stats(ctx context.Context) (*domain.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return &domain.Stats{ByStatus: map[domain.Status]int64{}}, nil
}
