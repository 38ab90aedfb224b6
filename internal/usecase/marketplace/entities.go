package marketplace

import (
	"github.com/shopspring/decimal"

	"orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
	"orbitlend-backend/internal/usecase/page"
)

type ListInput struct {
	NFTLoanID string          `param:"id" json:"-" validate:"required,ulid"`
	Price     decimal.Decimal `json:"price" validate:"dec_positive,dec2"`
}

type TransferInput struct {
	NFTLoanID   string `param:"id" json:"-" validate:"required,ulid"`
	FromAddress string `json:"fromAddress" validate:"required,eth_addr"`
	ToAddress   string `json:"toAddress" validate:"required,eth_addr,nefield=FromAddress"`
}

type Sort string

const (
	SortNewest     Sort = "newest"
	SortOldest     Sort = "oldest"
	SortPriceAsc   Sort = "price_asc"
	SortPriceDesc  Sort = "price_desc"
	SortAmountAsc  Sort = "amount_asc"
	SortAmountDesc Sort = "amount_desc"
	SortRateDesc   Sort = "rate_desc"
)

type BrowseInput struct {
	page.Request
	MinAmount *decimal.Decimal `query:"minAmount"`
	MaxAmount *decimal.Decimal `query:"maxAmount"`
	Purpose   string           `query:"purpose" validate:"omitempty,purpose"`
	Sort      Sort             `query:"sort" validate:"omitempty,oneof=newest oldest price_asc price_desc amount_asc amount_desc rate_desc"`
}

// LoanSummary is the slice of loan state shown next to an NFT.
type LoanSummary struct {
	LoanID           string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Purpose          loan.Purpose    `json:"purpose"`
	InterestRate     decimal.Decimal `json:"interestRate"`
	TermMonths       int             `json:"termMonths"`
	Status           loan.Status     `json:"status"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	TotalRepaid      decimal.Decimal `json:"totalRepaid"`
}

func summarize(l *loan.Loan) *LoanSummary {
	return &LoanSummary{
		LoanID:           l.LoanID,
		Amount:           l.Amount,
		Purpose:          l.Purpose,
		InterestRate:     l.InterestRate,
		TermMonths:       l.TermMonths,
		Status:           l.Status,
		RemainingBalance: l.RemainingBalance,
		TotalRepaid:      l.TotalRepaid,
	}
}

type NFTView struct {
	*nftloan.NFTLoan
	Loan *LoanSummary `json:"loan,omitempty"`
}

type BrowseResult struct {
	Items      []NFTView `json:"items"`
	Pagination page.Info `json:"pagination"`
}

type Ownership struct {
	NFTLoanID     string `json:"nftLoanId"`
	RecordedOwner string `json:"recordedOwner"`
	OnChainOwner  string `json:"onChainOwner"`
	InSync        bool   `json:"inSync"`
}
