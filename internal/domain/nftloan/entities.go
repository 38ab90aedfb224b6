package nftloan

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/loan"
)

type MarketStatus string

const (
	NotListed MarketStatus = "not_listed"
	Listed    MarketStatus = "listed"
	Sold      MarketStatus = "sold"
)

var (
	ErrNotFound      = apperr.NotFound("nft loan not found")
	ErrAlreadyMinted = apperr.Conflict("an NFT already exists for this loan")
	ErrAlreadyListed = apperr.Conflict("nft is already listed")
	ErrNotListed     = apperr.Conflict("nft is not listed")
	ErrNotListable   = apperr.Conflict("nft cannot be listed in its current state")
	ErrOwnerMismatch = apperr.Validation("fromAddress does not match the current owner")
	ErrNotOwner      = apperr.Authorization("you do not own this NFT")
	ErrInvalidPrice  = apperr.Validation("price must be greater than zero")
)

type PreviousOwner struct {
	Address         string    `json:"address"`
	TransferredAt   time.Time `json:"transferredAt"`
	TransactionHash string    `json:"transactionHash"`
}

// Metadata is the loan-terms snapshot taken at mint time.
type Metadata struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Image        string          `json:"image,omitempty"`
	Amount       decimal.Decimal `json:"loanAmount"`
	InterestRate decimal.Decimal `json:"interestRate"`
	TermMonths   int             `json:"termMonths"`
	Purpose      loan.Purpose    `json:"purpose"`
	Borrower     string          `json:"borrower"`
	IssuedAt     time.Time       `json:"issuedAt"`
}

type NFTLoan struct {
	ID        uint64 `gorm:"primaryKey;column:id" json:"-"`
	NFTLoanID string `gorm:"column:nft_loan_id;size:26;not null;uniqueIndex:ux_nft_loans_nft_loan_id" json:"id"`
	// LoanID is the public id of the loan; one NFT per loan.
	LoanID string `gorm:"column:loan_id;size:26;not null;uniqueIndex:ux_nft_loans_loan_id" json:"loanId"`

	TokenID         string `gorm:"column:token_id;size:100;not null" json:"tokenId"`
	ContractAddress string `gorm:"column:contract_address;size:42;not null" json:"contractAddress"`
	TransactionHash string `gorm:"column:transaction_hash;size:66" json:"transactionHash"`
	BlockNumber     *int64 `gorm:"column:block_number" json:"blockNumber,omitempty"`

	OwnerAddress   string          `gorm:"column:owner_address;size:42;not null;index" json:"ownerAddress"`
	PreviousOwners []PreviousOwner `gorm:"column:previous_owners;serializer:json;type:json" json:"previousOwners"`
	Metadata       Metadata        `gorm:"column:metadata;serializer:json;type:json" json:"metadata"`

	IPFSHash string    `gorm:"column:ipfs_hash;size:100" json:"ipfsHash,omitempty"`
	TokenURI string    `gorm:"column:token_uri;type:text" json:"tokenUri,omitempty"`
	Network  string    `gorm:"column:network;size:32" json:"network"`
	MintedAt time.Time `gorm:"column:minted_at" json:"mintedAt"`

	MarketplaceStatus MarketStatus     `gorm:"column:marketplace_status;size:16;not null;default:not_listed;index:idx_nft_loans_market" json:"marketplaceStatus"`
	ListingPrice      *decimal.Decimal `gorm:"column:listing_price;type:decimal(18,2)" json:"listingPrice,omitempty"`
	ListedAt          *time.Time       `gorm:"column:listed_at" json:"listedAt,omitempty"`
	IsActive          bool             `gorm:"column:is_active;not null;index:idx_nft_loans_market" json:"isActive"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (NFTLoan) TableName() string { return "nft_loans" }

func (n *NFTLoan) OwnedBy(addr string) bool {
	return addr != "" && strings.EqualFold(n.OwnerAddress, addr)
}

func (n *NFTLoan) List(price decimal.Decimal, now time.Time) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	switch n.MarketplaceStatus {
	case Listed:
		return ErrAlreadyListed
	case NotListed:
	default:
		return ErrNotListable
	}
	if !n.IsActive {
		return ErrNotListable
	}
	n.MarketplaceStatus = Listed
	n.ListingPrice = &price
	n.ListedAt = &now
	return nil
}

func (n *NFTLoan) Unlist() error {
	if n.MarketplaceStatus != Listed {
		return ErrNotListed
	}
	n.MarketplaceStatus = NotListed
	n.ListingPrice = nil
	n.ListedAt = nil
	return nil
}

// Transfer appends the current owner to history before replacing it. A listed
// NFT becomes sold.
func (n *NFTLoan) Transfer(to, txHash string, now time.Time) {
	n.PreviousOwners = append(n.PreviousOwners, PreviousOwner{
		Address:         n.OwnerAddress,
		TransferredAt:   now,
		TransactionHash: txHash,
	})
	n.OwnerAddress = to
	if n.MarketplaceStatus == Listed {
		n.MarketplaceStatus = Sold
	}
}
