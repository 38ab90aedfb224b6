package loan

import (
	"github.com/shopspring/decimal"

	domain "orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/usecase/page"
)

type CalculateInput struct {
	Amount       decimal.Decimal `json:"amount" validate:"dec_range=1000:1000000,dec2"`
	InterestRate decimal.Decimal `json:"interestRate" validate:"dec_range=0.1:50,dec2"`
	TermMonths   int             `json:"termMonths" validate:"required,gte=1,lte=360"`
}

type SchedulePreview struct {
	MonthlyPayment    decimal.Decimal      `json:"monthlyPayment"`
	TotalPayment      decimal.Decimal      `json:"totalPayment"`
	TotalInterest     decimal.Decimal      `json:"totalInterest"`
	RepaymentSchedule []domain.Installment `json:"repaymentSchedule"`
}

type SubmitInput struct {
	Amount       decimal.Decimal `json:"amount" validate:"dec_range=1000:1000000,dec2"`
	Purpose      string          `json:"purpose" validate:"required,purpose"`
	InterestRate decimal.Decimal `json:"interestRate" validate:"dec_range=0.1:50,dec2"`
	TermMonths   int             `json:"termMonths" validate:"required,gte=1,lte=360"`
	Collateral   string          `json:"collateral" validate:"omitempty,max=1000"`
}

type RepaymentInput struct {
	Amount            decimal.Decimal `json:"amount" validate:"dec_positive,dec2"`
	InstallmentNumber *int            `json:"installmentNumber" validate:"omitempty,gte=1"`
}

type ListInput struct {
	page.Request
	Status domain.Status `query:"status"`
	UserID string        `query:"userId"`
}

// LoanView is a loan with its borrower joined in explicitly.
type LoanView struct {
	*domain.Loan
	Borrower *user.Summary    `json:"borrower,omitempty"`
	NFT      *nftloan.NFTLoan `json:"nft,omitempty"`
}

type ListResult struct {
	Items      []LoanView `json:"items"`
	Pagination page.Info  `json:"pagination"`
}

type ScheduleView struct {
	LoanID            string               `json:"loanId"`
	Status            domain.Status        `json:"status"`
	RepaymentSchedule []domain.Installment `json:"repaymentSchedule"`
	TotalRepaid       decimal.Decimal      `json:"totalRepaid"`
	RemainingBalance  decimal.Decimal      `json:"remainingBalance"`
	NextDue           *domain.Installment  `json:"nextDue,omitempty"`
}
