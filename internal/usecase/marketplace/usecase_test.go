package marketplace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orbitlend-backend/internal/adapter/external/minting"
	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/testutil/loanmock"
	"orbitlend-backend/internal/testutil/mintmock"
	"orbitlend-backend/internal/testutil/nftmock"
	"orbitlend-backend/internal/usecase/page"
)

const (
	borrowerWallet = "0xaaaa000000000000000000000000000000000001"
	buyerWallet    = "0xBBBB000000000000000000000000000000000002"
)

func wallet(s string) *string { return &s }

var (
	borrower = &user.User{UserID: "U-1", Role: user.RoleUser, WalletAddress: wallet(borrowerWallet)}
	stranger = &user.User{UserID: "U-9", Role: user.RoleUser}
)

func newNFT() *nftloan.NFTLoan {
	return &nftloan.NFTLoan{
		NFTLoanID:         "N-1",
		LoanID:            "L-1",
		TokenID:           "7",
		ContractAddress:   "0xc0",
		OwnerAddress:      borrowerWallet,
		MarketplaceStatus: nftloan.NotListed,
		IsActive:          true,
	}
}

func newLoan(id string, amount int64, rate int64, p loan.Purpose) *loan.Loan {
	l := &loan.Loan{
		LoanID:       id,
		UserID:       "U-1",
		Amount:       decimal.NewFromInt(amount),
		InterestRate: decimal.NewFromInt(rate),
		TermMonths:   12,
		Purpose:      p,
		Status:       loan.StatusActive,
	}
	l.Recompute()
	return l
}

type store struct {
	nft   *nftloan.NFTLoan
	saves int
}

func (s *store) repo() *nftmock.Repo {
	return &nftmock.Repo{
		GetByNFTLoanIDFn: func(_ context.Context, id string) (*nftloan.NFTLoan, error) {
			if s.nft == nil || id != s.nft.NFTLoanID {
				return nil, nftloan.ErrNotFound
			}
			cp := *s.nft
			return &cp, nil
		},
		SaveFn: func(_ context.Context, n *nftloan.NFTLoan) error {
			s.saves++
			cp := *n
			s.nft = &cp
			return nil
		},
	}
}

func loansWith(ls ...*loan.Loan) *loanmock.Repo {
	byID := map[string]*loan.Loan{}
	for _, l := range ls {
		byID[l.LoanID] = l
	}
	return &loanmock.Repo{
		GetByLoanIDFn: func(_ context.Context, id string) (*loan.Loan, error) {
			if l, ok := byID[id]; ok {
				return l, nil
			}
			return nil, loan.ErrNotFound
		},
		GetByLoanIDsFn: func(_ context.Context, ids []string) (map[string]*loan.Loan, error) {
			out := map[string]*loan.Loan{}
			for _, id := range ids {
				if l, ok := byID[id]; ok {
					out[id] = l
				}
			}
			return out, nil
		},
	}
}

func TestList_ByBorrowerThenUnlist(t *testing.T) {
	s := &store{nft: newNFT()}
	uc := NewUsecase(s.repo(), loansWith(newLoan("L-1", 5000, 10, loan.PurposeBusiness)), &mintmock.Client{})

	n, err := uc.List(context.Background(), borrower, ListInput{NFTLoanID: "N-1", Price: decimal.RequireFromString("4800.50")})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if n.MarketplaceStatus != nftloan.Listed || !n.ListingPrice.Equal(decimal.RequireFromString("4800.5")) || n.ListedAt == nil {
		t.Fatalf("unexpected listing: %+v", n)
	}

	if _, err := uc.List(context.Background(), borrower, ListInput{NFTLoanID: "N-1", Price: decimal.NewFromInt(1)}); !errors.Is(err, nftloan.ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}

	n, err = uc.Unlist(context.Background(), borrower, "N-1")
	if err != nil {
		t.Fatalf("Unlist error: %v", err)
	}
	if n.MarketplaceStatus != nftloan.NotListed || n.ListingPrice != nil {
		t.Fatalf("unexpected after unlist: %+v", n)
	}
	if _, err := uc.Unlist(context.Background(), borrower, "N-1"); !errors.Is(err, nftloan.ErrNotListed) {
		t.Fatalf("expected ErrNotListed, got %v", err)
	}
}

func TestList_RejectsNonOwnerAndBadPrice(t *testing.T) {
	s := &store{nft: newNFT()}
	uc := NewUsecase(s.repo(), loansWith(newLoan("L-1", 5000, 10, loan.PurposeBusiness)), &mintmock.Client{})

	if _, err := uc.List(context.Background(), stranger, ListInput{NFTLoanID: "N-1", Price: decimal.NewFromInt(10)}); !errors.Is(err, nftloan.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := uc.List(context.Background(), borrower, ListInput{NFTLoanID: "N-1", Price: decimal.Zero}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s.saves != 0 {
		t.Fatalf("nothing should be saved, saves=%d", s.saves)
	}
}

func TestTransfer_RecordsOnlyAfterChainSuccess(t *testing.T) {
	s := &store{nft: newNFT()}
	s.nft.MarketplaceStatus = nftloan.Listed
	price := decimal.NewFromInt(100)
	s.nft.ListingPrice = &price

	chain := &mintmock.Client{TransferFn: func(_ context.Context, in minting.TransferRequest) (*minting.TransferResult, error) {
		if in.From != borrowerWallet || in.To != buyerWallet || in.TokenID != "7" {
			t.Fatalf("unexpected transfer request: %+v", in)
		}
		return &minting.TransferResult{TransactionHash: "0xtx"}, nil
	}}
	uc := NewUsecase(s.repo(), loansWith(newLoan("L-1", 5000, 10, loan.PurposeBusiness)), chain)
	uc.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	n, err := uc.Transfer(context.Background(), borrower, TransferInput{NFTLoanID: "N-1", FromAddress: "0xAAAA000000000000000000000000000000000001", ToAddress: buyerWallet})
	if err != nil {
		t.Fatalf("Transfer error: %v", err)
	}
	if n.OwnerAddress != "0xbbbb000000000000000000000000000000000002" {
		t.Fatalf("owner = %s", n.OwnerAddress)
	}
	if n.MarketplaceStatus != nftloan.Sold {
		t.Fatalf("status = %s, want sold", n.MarketplaceStatus)
	}
	if len(n.PreviousOwners) != 1 || n.PreviousOwners[0].Address != borrowerWallet || n.PreviousOwners[0].TransactionHash != "0xtx" {
		t.Fatalf("history = %+v", n.PreviousOwners)
	}

	// the borrower no longer holds it
	if _, err := uc.Unlist(context.Background(), borrower, "N-1"); !errors.Is(err, nftloan.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for previous holder, got %v", err)
	}
}

func TestTransfer_ChainFailureLeavesStateUntouched(t *testing.T) {
	s := &store{nft: newNFT()}
	chain := &mintmock.Client{TransferFn: func(context.Context, minting.TransferRequest) (*minting.TransferResult, error) {
		return nil, apperr.External("minting", errors.New("reverted"))
	}}
	uc := NewUsecase(s.repo(), loansWith(newLoan("L-1", 5000, 10, loan.PurposeBusiness)), chain)

	_, err := uc.Transfer(context.Background(), borrower, TransferInput{NFTLoanID: "N-1", FromAddress: borrowerWallet, ToAddress: buyerWallet})
	if !errors.Is(err, apperr.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
	if s.saves != 0 || s.nft.OwnerAddress != borrowerWallet || len(s.nft.PreviousOwners) != 0 {
		t.Fatalf("state changed after failed transfer: saves=%d nft=%+v", s.saves, s.nft)
	}
}

func TestTransfer_FromAddressMismatch(t *testing.T) {
	s := &store{nft: newNFT()}
	called := false
	chain := &mintmock.Client{TransferFn: func(context.Context, minting.TransferRequest) (*minting.TransferResult, error) {
		called = true
		return &minting.TransferResult{}, nil
	}}
	uc := NewUsecase(s.repo(), loansWith(newLoan("L-1", 5000, 10, loan.PurposeBusiness)), chain)

	_, err := uc.Transfer(context.Background(), borrower, TransferInput{NFTLoanID: "N-1", FromAddress: buyerWallet, ToAddress: "0xcccc000000000000000000000000000000000003"})
	if !errors.Is(err, nftloan.ErrOwnerMismatch) {
		t.Fatalf("expected ErrOwnerMismatch, got %v", err)
	}
	if called {
		t.Fatal("chain must not be called on mismatch")
	}
}

func listed(id, loanID string, price int64, at time.Time) nftloan.NFTLoan {
	p := decimal.NewFromInt(price)
	return nftloan.NFTLoan{NFTLoanID: id, LoanID: loanID, MarketplaceStatus: nftloan.Listed, IsActive: true, ListingPrice: &p, ListedAt: &at}
}

func TestBrowse_FiltersSortsAndDropsOrphans(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	nfts := &nftmock.Repo{ListListedFn: func(context.Context) ([]nftloan.NFTLoan, error) {
		return []nftloan.NFTLoan{
			listed("N-1", "L-1", 900, base),
			listed("N-2", "L-2", 300, base.Add(time.Hour)),
			listed("N-3", "L-3", 600, base.Add(2*time.Hour)),
			listed("N-4", "L-missing", 100, base.Add(3*time.Hour)),
		}, nil
	}}
	loans := loansWith(
		newLoan("L-1", 1000, 8, loan.PurposeBusiness),
		newLoan("L-2", 5000, 15, loan.PurposeEducation),
		newLoan("L-3", 20000, 11, loan.PurposeBusiness),
	)
	uc := NewUsecase(nfts, loans, &mintmock.Client{})

	res, err := uc.Browse(context.Background(), BrowseInput{})
	if err != nil {
		t.Fatalf("Browse error: %v", err)
	}
	if got := ids(res.Items); got != "N-3,N-2,N-1" {
		t.Fatalf("default order = %s", got)
	}
	if res.Pagination.TotalItems != 3 {
		t.Fatalf("total = %d", res.Pagination.TotalItems)
	}

	res, _ = uc.Browse(context.Background(), BrowseInput{Sort: SortPriceAsc})
	if got := ids(res.Items); got != "N-2,N-3,N-1" {
		t.Fatalf("price_asc = %s", got)
	}
	res, _ = uc.Browse(context.Background(), BrowseInput{Sort: SortRateDesc})
	if got := ids(res.Items); got != "N-2,N-3,N-1" {
		t.Fatalf("rate_desc = %s", got)
	}

	minAmt := decimal.NewFromInt(2000)
	res, _ = uc.Browse(context.Background(), BrowseInput{MinAmount: &minAmt, Purpose: string(loan.PurposeBusiness)})
	if got := ids(res.Items); got != "N-3" {
		t.Fatalf("filtered = %s", got)
	}
	if res.Items[0].Loan == nil || !res.Items[0].Loan.Amount.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("loan summary not joined: %+v", res.Items[0].Loan)
	}

	res, _ = uc.Browse(context.Background(), BrowseInput{Request: page.Request{Page: 2, Limit: 2}, Sort: SortAmountAsc})
	if got := ids(res.Items); got != "N-3" || res.Pagination.TotalPages != 2 {
		t.Fatalf("page 2 = %s pages=%d", got, res.Pagination.TotalPages)
	}
}

func ids(vs []NFTView) string {
	out := ""
	for i, v := range vs {
		if i > 0 {
			out += ","
		}
		out += v.NFTLoanID
	}
	return out
}

func TestListMine_JoinsLoansAndWallet(t *testing.T) {
	own := newLoan("L-1", 5000, 10, loan.PurposeBusiness)
	own.NFTTokenID = "7"
	pending := newLoan("L-2", 1000, 10, loan.PurposeOther)
	pending.Status = loan.StatusPending
	bought := newLoan("L-9", 7000, 9, loan.PurposeMedical)
	bought.UserID = "U-7"

	loans := loansWith(own, pending, bought)
	loans.ListFn = func(_ context.Context, f loan.ListFilter) ([]loan.Loan, int64, error) {
		if f.UserID != "U-1" {
			t.Fatalf("filter user = %s", f.UserID)
		}
		return []loan.Loan{*own, *pending}, 2, nil
	}
	nfts := &nftmock.Repo{ListByLoanIDsOrOwnerFn: func(_ context.Context, loanIDs []string, owner string) ([]nftloan.NFTLoan, error) {
		if len(loanIDs) != 1 || loanIDs[0] != "L-1" {
			t.Fatalf("loan ids = %v", loanIDs)
		}
		if owner != borrowerWallet {
			t.Fatalf("owner = %s", owner)
		}
		return []nftloan.NFTLoan{{NFTLoanID: "N-1", LoanID: "L-1"}, {NFTLoanID: "N-9", LoanID: "L-9"}}, nil
	}}
	uc := NewUsecase(nfts, loans, &mintmock.Client{})

	out, err := uc.ListMine(context.Background(), borrower)
	if err != nil {
		t.Fatalf("ListMine error: %v", err)
	}
	if len(out) != 2 || out[0].Loan == nil || out[1].Loan == nil {
		t.Fatalf("unexpected views: %+v", out)
	}
	if out[1].Loan.LoanID != "L-9" {
		t.Fatalf("second view loan = %s", out[1].Loan.LoanID)
	}
}

func TestOwnershipAndTxStatus(t *testing.T) {
	s := &store{nft: newNFT()}
	chain := &mintmock.Client{
		OwnerFn: func(_ context.Context, contract, token string) (string, error) {
			if contract != "0xc0" || token != "7" {
				t.Fatalf("owner lookup args %s %s", contract, token)
			}
			return "0xAAAA000000000000000000000000000000000001", nil
		},
		TxStatusFn: func(_ context.Context, hash string) (*minting.TxStatus, error) {
			return &minting.TxStatus{Hash: hash, Status: "confirmed"}, nil
		},
	}
	uc := NewUsecase(s.repo(), loansWith(), chain)

	o, err := uc.Ownership(context.Background(), "N-1")
	if err != nil {
		t.Fatalf("Ownership error: %v", err)
	}
	if !o.InSync {
		t.Fatalf("expected in sync: %+v", o)
	}

	st, err := uc.TransactionStatus(context.Background(), "0xtx")
	if err != nil || st.Status != "confirmed" {
		t.Fatalf("TransactionStatus = %+v, %v", st, err)
	}
	if _, err := uc.TransactionStatus(context.Background(), " "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGet_MissingLoanStillReturnsNFT(t *testing.T) {
	s := &store{nft: newNFT()}
	uc := NewUsecase(s.repo(), loansWith(), &mintmock.Client{})

	v, err := uc.Get(context.Background(), "N-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if v.Loan != nil {
		t.Fatalf("expected no loan summary, got %+v", v.Loan)
	}
	if _, err := uc.Get(context.Background(), "nope"); !errors.Is(err, nftloan.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
