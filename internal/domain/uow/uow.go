package uow

import (
	"context"

	"orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
	"orbitlend-backend/internal/domain/user"
)

type Repos struct {
	Users    user.Repository
	Loans    loan.Repository
	NFTLoans nftloan.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
