package gormrepo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	nftDomain "orbitlend-backend/internal/domain/nftloan"
)

type NFTLoanRepository struct{ db *gorm.DB }

func NewNFTLoanRepository(db *gorm.DB) *NFTLoanRepository { return &NFTLoanRepository{db: db} }

// Create fails with ErrAlreadyMinted when the loan already has an NFT.
func (r *NFTLoanRepository) Create(ctx context.Context, n *nftDomain.NFTLoan) error {
	return duplicate(r.db.WithContext(ctx).Create(n).Error, nftDomain.ErrAlreadyMinted)
}

func (r *NFTLoanRepository) Save(ctx context.Context, n *nftDomain.NFTLoan) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *NFTLoanRepository) GetByNFTLoanID(ctx context.Context, id string) (*nftDomain.NFTLoan, error) {
	var out nftDomain.NFTLoan
	if err := r.db.WithContext(ctx).Where("nft_loan_id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err, nftDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *NFTLoanRepository) GetByLoanID(ctx context.Context, loanID string) (*nftDomain.NFTLoan, error) {
	var out nftDomain.NFTLoan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error; err != nil {
		return nil, notFound(err, nftDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *NFTLoanRepository) ExistsForLoan(ctx context.Context, loanID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&nftDomain.NFTLoan{}).Where("loan_id = ?", loanID).Count(&n).Error
	return n > 0, err
}

func (r *NFTLoanRepository) ListByLoanIDsOrOwner(ctx context.Context, loanIDs []string, owner string) ([]nftDomain.NFTLoan, error) {
	var rows []nftDomain.NFTLoan
	if len(loanIDs) == 0 && owner == "" {
		return rows, nil
	}
	q := r.db.WithContext(ctx)
	switch {
	case len(loanIDs) > 0 && owner != "":
		q = q.Where("loan_id IN ? OR LOWER(owner_address) = ?", loanIDs, strings.ToLower(owner))
	case len(loanIDs) > 0:
		q = q.Where("loan_id IN ?", loanIDs)
	default:
		q = q.Where("LOWER(owner_address) = ?", strings.ToLower(owner))
	}
	err := q.Order("minted_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *NFTLoanRepository) ListListed(ctx context.Context) ([]nftDomain.NFTLoan, error) {
	var rows []nftDomain.NFTLoan
	err := r.listed(ctx).Order("listed_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *NFTLoanRepository) CountListed(ctx context.Context) (int64, error) {
	var n int64
	err := r.listed(ctx).Model(&nftDomain.NFTLoan{}).Count(&n).Error
	return n, err
}

func (r *NFTLoanRepository) listed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("marketplace_status = ? AND is_active = ?", nftDomain.Listed, true)
}
