package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/event"
	domain "orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
	"orbitlend-backend/internal/domain/uow"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/logger"
	"orbitlend-backend/internal/usecase/page"
	"orbitlend-backend/pkg/id"
)

var errBorrowerOnly = apperr.Authorization("only borrowers can request loans")

type Usecase struct {
	loans  domain.Repository
	users  user.Repository
	nfts   nftloan.Repository
	uow    uow.UnitOfWork
	events event.Publisher
	now    func() time.Time
}

func NewUsecase(loans domain.Repository, users user.Repository, nfts nftloan.Repository, tx uow.UnitOfWork, events event.Publisher) *Usecase {
	if events == nil {
		events = event.Nop{}
	}
	return &Usecase{loans: loans, users: users, nfts: nfts, uow: tx, events: events, now: time.Now}
}

// Calculate previews a schedule without persisting anything.
func (u *Usecase) Calculate(_ context.Context, in CalculateInput) (*SchedulePreview, error) {
	if err := validateTerms(in.Amount, in.InterestRate, in.TermMonths); err != nil {
		return nil, err
	}
	s := BuildSchedule(in.Amount, in.InterestRate, in.TermMonths, u.now().UTC())
	principal, _, total := Totals(s)
	return &SchedulePreview{
		MonthlyPayment:    MonthlyPayment(in.Amount, in.InterestRate, in.TermMonths),
		TotalPayment:      total,
		TotalInterest:     total.Sub(principal),
		RepaymentSchedule: s,
	}, nil
}

func (u *Usecase) SubmitRequest(ctx context.Context, caller *user.User, in SubmitInput) (*domain.Loan, error) {
	if caller.Role != user.RoleUser {
		return nil, errBorrowerOnly
	}
	if caller.KYCStatus != user.KYCApproved {
		return nil, user.ErrKYCRequired
	}
	if err := validateTerms(in.Amount, in.InterestRate, in.TermMonths); err != nil {
		return nil, err
	}
	if !domain.ValidPurpose(in.Purpose) {
		return nil, apperr.Validation("purpose is not supported")
	}

	l := &domain.Loan{
		LoanID:       id.New(),
		UserID:       caller.UserID,
		Amount:       in.Amount,
		Purpose:      domain.Purpose(in.Purpose),
		InterestRate: in.InterestRate,
		TermMonths:   in.TermMonths,
		Collateral:   in.Collateral,
		Status:       domain.StatusPending,
		RequestedAt:  u.now().UTC(),
		TotalRepaid:  decimal.Zero,
	}
	l.Recompute()
	if err := u.loans.Create(ctx, l); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("loan requested", "loan_id", l.LoanID, "user_id", caller.UserID, "amount", l.Amount.String())
	u.events.Publish(ctx, event.New(event.LoanSubmitted, caller.UserID, map[string]any{
		"loanId":       l.LoanID,
		"amount":       l.Amount,
		"purpose":      l.Purpose,
		"termMonths":   l.TermMonths,
		"borrowerName": caller.FullName(),
	}))
	return l, nil
}

// Get returns a loan to its owner or an admin, joined with borrower and NFT.
func (u *Usecase) Get(ctx context.Context, caller *user.User, loanID string) (*LoanView, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && l.UserID != caller.UserID {
		return nil, domain.ErrNotOwner
	}
	view := &LoanView{Loan: l}

	borrower, err := u.users.GetByUserID(ctx, l.UserID)
	switch {
	case err == nil:
		s := borrower.Summary()
		view.Borrower = &s
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}

	if l.Minted() {
		n, err := u.nfts.GetByLoanID(ctx, l.LoanID)
		switch {
		case err == nil:
			view.NFT = n
		case apperr.KindOf(err) != apperr.KindNotFound:
			return nil, err
		}
	}
	return view, nil
}

func (u *Usecase) ListMine(ctx context.Context, caller *user.User, in ListInput) (*ListResult, error) {
	in.UserID = caller.UserID
	return u.list(ctx, in, false)
}

// ListAll is the admin view; borrowers are batch-joined.
func (u *Usecase) ListAll(ctx context.Context, in ListInput) (*ListResult, error) {
	return u.list(ctx, in, true)
}

func (u *Usecase) list(ctx context.Context, in ListInput, withBorrowers bool) (*ListResult, error) {
	req := in.Request.Normalize()
	rows, total, err := u.loans.List(ctx, domain.ListFilter{
		UserID: in.UserID,
		Status: in.Status,
		Offset: req.Offset(),
		Limit:  req.Limit,
	})
	if err != nil {
		return nil, err
	}

	var borrowers map[string]*user.User
	if withBorrowers && len(rows) > 0 {
		ids := make([]string, 0, len(rows))
		for _, l := range rows {
			ids = append(ids, l.UserID)
		}
		if borrowers, err = u.users.GetByUserIDs(ctx, ids); err != nil {
			return nil, err
		}
	}

	items := make([]LoanView, 0, len(rows))
	for i := range rows {
		v := LoanView{Loan: &rows[i]}
		if b, ok := borrowers[rows[i].UserID]; ok {
			s := b.Summary()
			v.Borrower = &s
		}
		items = append(items, v)
	}
	return &ListResult{Items: items, Pagination: page.NewInfo(req, total)}, nil
}

func (u *Usecase) Schedule(ctx context.Context, caller *user.User, loanID string) (*ScheduleView, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && l.UserID != caller.UserID {
		return nil, domain.ErrNotOwner
	}
	v := &ScheduleView{
		LoanID:            l.LoanID,
		Status:            l.Status,
		RepaymentSchedule: l.RepaymentSchedule,
		TotalRepaid:       l.TotalRepaid,
		RemainingBalance:  l.RemainingBalance,
	}
	for i := range l.RepaymentSchedule {
		if l.RepaymentSchedule[i].Status != domain.InstallmentPaid {
			v.NextDue = &l.RepaymentSchedule[i]
			break
		}
	}
	return v, nil
}

// RecordRepayment credits an active loan owned by caller. The write is
// conditional on the loan still being active at the version read.
func (u *Usecase) RecordRepayment(ctx context.Context, caller *user.User, loanID string, in RepaymentInput) (*domain.Loan, error) {
	var out *domain.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.UserID != caller.UserID {
			return domain.ErrNotOwner
		}
		if err := l.ApplyRepayment(in.Amount, in.InstallmentNumber, u.now().UTC()); err != nil {
			return err
		}
		if err := r.Loans.SaveIfStatus(ctx, l, domain.StatusActive); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("repayment recorded", "loan_id", out.LoanID, "amount", in.Amount.String(), "remaining", out.RemainingBalance.String())
	if out.Status == domain.StatusCompleted {
		u.events.Publish(ctx, event.New(event.LoanStatusChanged, out.UserID, map[string]any{
			"loanId":         out.LoanID,
			"status":         out.Status,
			"previousStatus": domain.StatusActive,
		}))
	}
	return out, nil
}

func validateTerms(amount, rate decimal.Decimal, term int) error {
	switch {
	case amount.LessThan(domain.MinAmount) || amount.GreaterThan(domain.MaxAmount):
		return apperr.Validation("amount must be between 1,000 and 1,000,000")
	case !amount.Equal(amount.Round(2)):
		return apperr.Validation("amount must have at most 2 decimal places")
	case rate.LessThan(domain.MinRate) || rate.GreaterThan(domain.MaxRate):
		return apperr.Validation("interest rate must be between 0.1 and 50")
	case !rate.Equal(rate.Round(2)):
		return apperr.Validation("interest rate must have at most 2 decimal places")
	case term < domain.MinTermMonths || term > domain.MaxTermMonths:
		return apperr.Validation("term must be between 1 and 360 months")
	}
	return nil
}
