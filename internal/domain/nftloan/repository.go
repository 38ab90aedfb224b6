package nftloan

import "context"

type BrowseFilter struct {
	Offset int
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, n *NFTLoan) error
	Save(ctx context.Context, n *NFTLoan) error
	GetByNFTLoanID(ctx context.Context, id string) (*NFTLoan, error)
	GetByLoanID(ctx context.Context, loanID string) (*NFTLoan, error)
	ExistsForLoan(ctx context.Context, loanID string) (bool, error)
	// ListByLoanIDsOrOwner returns NFTs of the given loans or held by owner.
	ListByLoanIDsOrOwner(ctx context.Context, loanIDs []string, owner string) ([]NFTLoan, error)
	// ListListed returns every listed, active NFT.
	ListListed(ctx context.Context) ([]NFTLoan, error)
	CountListed(ctx context.Context) (int64, error)
}
