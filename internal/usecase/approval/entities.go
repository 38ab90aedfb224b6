package approval

import (
	"orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
)

type ApproveInput struct {
	LoanID        string `param:"id" json:"-" validate:"required,ulid"`
	AdminNotes    string `json:"adminNotes" validate:"omitempty,max=2000"`
	WalletAddress string `json:"walletAddress" validate:"omitempty,eth_addr"`
}

type RejectInput struct {
	LoanID          string `param:"id" json:"-" validate:"required,ulid"`
	RejectionReason string `json:"rejectionReason" validate:"required,min=10,max=2000"`
	AdminNotes      string `json:"adminNotes" validate:"omitempty,max=2000"`
}

type RetryMintInput struct {
	LoanID        string `param:"loanId" json:"-" validate:"required,ulid"`
	WalletAddress string `json:"walletAddress" validate:"omitempty,eth_addr"`
}

type DefaultInput struct {
	LoanID string `param:"id" json:"-" validate:"required,ulid"`
	Notes  string `json:"notes" validate:"omitempty,max=2000"`
}

// Result carries the loan after a review action. Warning is set when the
// approval committed but minting did not.
type Result struct {
	Loan    *loan.Loan       `json:"loan"`
	NFT     *nftloan.NFTLoan `json:"nft,omitempty"`
	Warning string           `json:"-"`
}

type Stats struct {
	Loans      *loan.Stats `json:"loans"`
	ListedNFTs int64       `json:"listedNfts"`
	PendingKYC int64       `json:"pendingKyc"`
}
