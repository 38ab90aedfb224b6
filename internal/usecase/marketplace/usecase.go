package marketplace

import (
	"context"
	"sort"
	"strings"
	"time"

	"orbitlend-backend/internal/adapter/external/minting"
	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/logger"
	"orbitlend-backend/internal/usecase/page"
)

// Chain is the slice of the minting provider the marketplace needs.
type Chain interface {
	Transfer(ctx context.Context, in minting.TransferRequest) (*minting.TransferResult, error)
	Owner(ctx context.Context, contract, tokenID string) (string, error)
	TransactionStatus(ctx context.Context, hash string) (*minting.TxStatus, error)
}

// myLoansCap bounds how many of a user's loans are scanned for their NFTs.
const myLoansCap = 500

type Usecase struct {
	nfts  nftloan.Repository
	loans loan.Repository
	chain Chain
	now   func() time.Time
}

func NewUsecase(nfts nftloan.Repository, loans loan.Repository, chain Chain) *Usecase {
	return &Usecase{nfts: nfts, loans: loans, chain: chain, now: time.Now}
}

// owns: the caller holds the NFT's wallet, or borrowed the loan and the NFT
// has never changed hands.
func (u *Usecase) owns(ctx context.Context, caller *user.User, n *nftloan.NFTLoan) (bool, error) {
	if caller.OwnsWallet(n.OwnerAddress) {
		return true, nil
	}
	if len(n.PreviousOwners) > 0 {
		return false, nil
	}
	l, err := u.loans.GetByLoanID(ctx, n.LoanID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return l.UserID == caller.UserID, nil
}

func (u *Usecase) loadOwned(ctx context.Context, caller *user.User, nftID string) (*nftloan.NFTLoan, error) {
	n, err := u.nfts.GetByNFTLoanID(ctx, nftID)
	if err != nil {
		return nil, err
	}
	ok, err := u.owns(ctx, caller, n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nftloan.ErrNotOwner
	}
	return n, nil
}

func (u *Usecase) List(ctx context.Context, caller *user.User, in ListInput) (*nftloan.NFTLoan, error) {
	n, err := u.loadOwned(ctx, caller, in.NFTLoanID)
	if err != nil {
		return nil, err
	}
	if err := n.List(in.Price, u.now().UTC()); err != nil {
		return nil, err
	}
	if err := u.nfts.Save(ctx, n); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("nft listed", "nft_loan_id", n.NFTLoanID, "price", in.Price.String())
	return n, nil
}

func (u *Usecase) Unlist(ctx context.Context, caller *user.User, nftID string) (*nftloan.NFTLoan, error) {
	n, err := u.loadOwned(ctx, caller, nftID)
	if err != nil {
		return nil, err
	}
	if err := n.Unlist(); err != nil {
		return nil, err
	}
	if err := u.nfts.Save(ctx, n); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("nft unlisted", "nft_loan_id", n.NFTLoanID)
	return n, nil
}

// Transfer moves the token on chain first; nothing is recorded unless that
// succeeds.
func (u *Usecase) Transfer(ctx context.Context, caller *user.User, in TransferInput) (*nftloan.NFTLoan, error) {
	n, err := u.loadOwned(ctx, caller, in.NFTLoanID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(n.OwnerAddress, in.FromAddress) {
		return nil, nftloan.ErrOwnerMismatch
	}

	res, err := u.chain.Transfer(ctx, minting.TransferRequest{
		ContractAddress: n.ContractAddress,
		TokenID:         n.TokenID,
		From:            n.OwnerAddress,
		To:              in.ToAddress,
	})
	if err != nil {
		return nil, err
	}

	n.Transfer(user.NormalizeWallet(in.ToAddress), res.TransactionHash, u.now().UTC())
	if err := u.nfts.Save(ctx, n); err != nil {
		logger.FromContext(ctx).Error("transferred nft could not be recorded", "nft_loan_id", n.NFTLoanID, "tx_hash", res.TransactionHash, "err", err)
		return nil, err
	}
	logger.FromContext(ctx).Info("nft transferred", "nft_loan_id", n.NFTLoanID, "to", in.ToAddress, "tx_hash", res.TransactionHash)
	return n, nil
}

// Browse lists marketplace NFTs joined to their loans. NFTs whose loan is
// missing are dropped rather than reported.
func (u *Usecase) Browse(ctx context.Context, in BrowseInput) (*BrowseResult, error) {
	listed, err := u.nfts.ListListed(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(listed))
	for _, n := range listed {
		ids = append(ids, n.LoanID)
	}
	loans, err := u.loans.GetByLoanIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]NFTView, 0, len(listed))
	for i := range listed {
		l, ok := loans[listed[i].LoanID]
		if !ok {
			continue
		}
		if in.MinAmount != nil && l.Amount.LessThan(*in.MinAmount) {
			continue
		}
		if in.MaxAmount != nil && l.Amount.GreaterThan(*in.MaxAmount) {
			continue
		}
		if in.Purpose != "" && string(l.Purpose) != in.Purpose {
			continue
		}
		items = append(items, NFTView{NFTLoan: &listed[i], Loan: summarize(l)})
	}

	sortViews(items, in.Sort)
	return &BrowseResult{
		Items:      page.Slice(items, in.Request),
		Pagination: page.NewInfo(in.Request, int64(len(items))),
	}, nil
}

func sortViews(items []NFTView, s Sort) {
	listedAt := func(v NFTView) time.Time {
		if v.ListedAt == nil {
			return time.Time{}
		}
		return *v.ListedAt
	}
	less := map[Sort]func(a, b NFTView) bool{
		SortOldest:     func(a, b NFTView) bool { return listedAt(a).Before(listedAt(b)) },
		SortPriceAsc:   func(a, b NFTView) bool { return a.ListingPrice.LessThan(*b.ListingPrice) },
		SortPriceDesc:  func(a, b NFTView) bool { return a.ListingPrice.GreaterThan(*b.ListingPrice) },
		SortAmountAsc:  func(a, b NFTView) bool { return a.Loan.Amount.LessThan(b.Loan.Amount) },
		SortAmountDesc: func(a, b NFTView) bool { return a.Loan.Amount.GreaterThan(b.Loan.Amount) },
		SortRateDesc:   func(a, b NFTView) bool { return a.Loan.InterestRate.GreaterThan(b.Loan.InterestRate) },
	}[s]
	if less == nil {
		less = func(a, b NFTView) bool { return listedAt(a).After(listedAt(b)) }
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func (u *Usecase) Get(ctx context.Context, nftID string) (*NFTView, error) {
	n, err := u.nfts.GetByNFTLoanID(ctx, nftID)
	if err != nil {
		return nil, err
	}
	v := &NFTView{NFTLoan: n}
	l, err := u.loans.GetByLoanID(ctx, n.LoanID)
	switch {
	case err == nil:
		v.Loan = summarize(l)
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}
	return v, nil
}

// ListMine returns NFTs of the caller's loans plus any held by their wallet.
func (u *Usecase) ListMine(ctx context.Context, caller *user.User) ([]NFTView, error) {
	mine, _, err := u.loans.List(ctx, loan.ListFilter{UserID: caller.UserID, Limit: myLoansCap})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*loan.Loan, len(mine))
	ids := make([]string, 0, len(mine))
	for i := range mine {
		if mine[i].Minted() {
			ids = append(ids, mine[i].LoanID)
			byID[mine[i].LoanID] = &mine[i]
		}
	}
	nfts, err := u.nfts.ListByLoanIDsOrOwner(ctx, ids, caller.Wallet())
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, n := range nfts {
		if _, ok := byID[n.LoanID]; !ok {
			missing = append(missing, n.LoanID)
		}
	}
	if len(missing) > 0 {
		extra, err := u.loans.GetByLoanIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for k, v := range extra {
			byID[k] = v
		}
	}

	out := make([]NFTView, 0, len(nfts))
	for i := range nfts {
		v := NFTView{NFTLoan: &nfts[i]}
		if l, ok := byID[nfts[i].LoanID]; ok {
			v.Loan = summarize(l)
		}
		out = append(out, v)
	}
	return out, nil
}

// Ownership compares the recorded owner with the chain's view.
func (u *Usecase) Ownership(ctx context.Context, nftID string) (*Ownership, error) {
	n, err := u.nfts.GetByNFTLoanID(ctx, nftID)
	if err != nil {
		return nil, err
	}
	owner, err := u.chain.Owner(ctx, n.ContractAddress, n.TokenID)
	if err != nil {
		return nil, err
	}
	return &Ownership{
		NFTLoanID:     n.NFTLoanID,
		RecordedOwner: n.OwnerAddress,
		OnChainOwner:  owner,
		InSync:        strings.EqualFold(owner, n.OwnerAddress),
	}, nil
}

func (u *Usecase) TransactionStatus(ctx context.Context, hash string) (*minting.TxStatus, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, apperr.Validation("transaction hash is required")
	}
	return u.chain.TransactionStatus(ctx, hash)
}
