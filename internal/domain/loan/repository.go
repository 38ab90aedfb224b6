package loan

import "context"

type ListFilter struct {
	UserID string
	Status Status
	Offset int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate row-locks where the dialect supports it; call inside a tx.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDs(ctx context.Context, loanIDs []string) (map[string]*Loan, error)
	// SaveIfStatus persists l only if the stored row still has status from and
	// l's read version; otherwise ErrConcurrentUpdate. l.Version is bumped.
	SaveIfStatus(ctx context.Context, l *Loan, from Status) error
	List(ctx context.Context, f ListFilter) ([]Loan, int64, error)
	CountByUserStatuses(ctx context.Context, userID string, statuses ...Status) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
}
