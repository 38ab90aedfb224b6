package gormrepo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "orbitlend-backend/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error; err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanIDs(ctx context.Context, loanIDs []string) (map[string]*loanDomain.Loan, error) {
	out := make(map[string]*loanDomain.Loan, len(loanIDs))
	if len(loanIDs) == 0 {
		return out, nil
	}
	var rows []loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id IN ?", loanIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].LoanID] = &rows[i]
	}
	return out, nil
}

func (r *LoanRepository) SaveIfStatus(ctx context.Context, l *loanDomain.Loan, from loanDomain.Status) error {
	prev := l.Version
	l.Version = prev + 1
	res := r.db.WithContext(ctx).
		Model(l).
		Where("status = ? AND version = ?", from, prev).
		Select("*").
		Omit("id", "created_at").
		Updates(l)
	if res.Error != nil {
		l.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		l.Version = prev
		return loanDomain.ErrConcurrentUpdate
	}
	return nil
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.Loan, int64, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []loanDomain.Loan
	err := page(q, f.Offset, f.Limit).Order("requested_at DESC, id DESC").Find(&rows).Error
	return rows, total, err
}

func (r *LoanRepository) CountByUserStatuses(ctx context.Context, userID string, statuses ...loanDomain.Status) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *LoanRepository) Stats(ctx context.Context) (*loanDomain.Stats, error) {
	var groups []struct {
		Status loanDomain.Status
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}

	var sums struct {
		Amount decimal.Decimal
		Repaid decimal.Decimal
	}
	err = r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("COALESCE(SUM(amount), 0) AS amount, COALESCE(SUM(total_repaid), 0) AS repaid").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	out := &loanDomain.Stats{
		ByStatus:    make(map[loanDomain.Status]int64, len(groups)),
		TotalAmount: sums.Amount,
		TotalRepaid: sums.Repaid,
	}
	for _, g := range groups {
		out.ByStatus[g.Status] = g.N
		out.Total += g.N
	}
	return out, nil
}
