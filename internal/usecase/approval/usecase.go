package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orbitlend-backend/internal/adapter/external/minting"
	"orbitlend-backend/internal/adapter/external/pinning"
	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/event"
	domainLoan "orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/nftloan"
	"orbitlend-backend/internal/domain/uow"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/logger"
	loanUsecase "orbitlend-backend/internal/usecase/loan"
	"orbitlend-backend/pkg/id"
)

var (
	ErrBorrowerKYC      = apperr.Conflict("borrower KYC is not approved")
	ErrBorrowerInactive = apperr.Conflict("borrower account is deactivated")
	ErrNoWallet         = apperr.Validation("no wallet address to mint to")
	ErrReasonTooShort   = apperr.Validation("rejection reason must be at least 10 characters")
)

type Minter interface {
	Mint(ctx context.Context, in minting.MintRequest) (*minting.MintResult, error)
	Chain() string
}

type MetadataPinner interface {
	PinJSON(ctx context.Context, name string, content any) (*pinning.PinResult, error)
}

type Usecase struct {
	uow    uow.UnitOfWork
	repos  uow.Repos
	minter Minter
	pinner MetadataPinner
	events event.Publisher
	now    func() time.Time
}

// NewUsecase: repos serve reads outside transactions, the UoW the writes.
func NewUsecase(repos uow.Repos, tx uow.UnitOfWork, minter Minter, pinner MetadataPinner, events event.Publisher) *Usecase {
	if events == nil {
		events = event.Nop{}
	}
	return &Usecase{uow: tx, repos: repos, minter: minter, pinner: pinner, events: events, now: time.Now}
}

// Approve moves a pending loan to approved, then tries to mint. A mint
// failure leaves the loan approved and is reported through Result.Warning.
func (u *Usecase) Approve(ctx context.Context, admin *user.User, in ApproveInput) (*Result, error) {
	log := logger.FromContext(ctx)
	var (
		approved *domainLoan.Loan
		borrower *user.User
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusPending {
			return domainLoan.ErrNotPending
		}
		b, err := r.Users.GetByUserID(ctx, l.UserID)
		if err != nil {
			return err
		}
		if !b.IsActive {
			return ErrBorrowerInactive
		}
		if b.KYCStatus != user.KYCApproved {
			return ErrBorrowerKYC
		}

		now := u.now().UTC()
		l.Status = domainLoan.StatusApproved
		l.ApprovedAt = &now
		l.ApprovedBy = admin.UserID
		if in.AdminNotes != "" {
			l.AdminNotes = in.AdminNotes
		}
		l.RepaymentSchedule = loanUsecase.BuildSchedule(l.Amount, l.InterestRate, l.TermMonths, now)
		if err := r.Loans.SaveIfStatus(ctx, l, domainLoan.StatusPending); err != nil {
			return err
		}
		approved, borrower = l, b
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("loan approved", "loan_id", approved.LoanID, "admin_id", admin.UserID)
	u.publishStatus(ctx, approved, domainLoan.StatusPending)

	wallet := in.WalletAddress
	if wallet == "" {
		wallet = borrower.Wallet()
	}
	res, err := u.mint(ctx, approved, borrower, wallet)
	if err != nil {
		log.Warn("nft mint failed after approval", "loan_id", approved.LoanID, "err", err)
		return &Result{
			Loan:    approved,
			Warning: fmt.Sprintf("Loan approved but NFT minting failed: %s. Minting can be retried.", apperr.Message(err)),
		}, nil
	}
	return res, nil
}

// RetryMint repeats the mint step for an approved loan without an NFT.
// Unlike Approve, failures are returned to the caller.
func (u *Usecase) RetryMint(ctx context.Context, admin *user.User, in RetryMintInput) (*Result, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, in.LoanID)
	if err != nil {
		return nil, err
	}
	exists, err := u.repos.NFTLoans.ExistsForLoan(ctx, l.LoanID)
	if err != nil {
		return nil, err
	}
	if exists || l.Minted() {
		return nil, nftloan.ErrAlreadyMinted
	}
	if l.Status != domainLoan.StatusApproved {
		return nil, domainLoan.ErrNotApproved
	}
	borrower, err := u.repos.Users.GetByUserID(ctx, l.UserID)
	if err != nil {
		return nil, err
	}
	if !borrower.IsActive {
		return nil, ErrBorrowerInactive
	}
	wallet := in.WalletAddress
	if wallet == "" {
		wallet = borrower.Wallet()
	}
	logger.FromContext(ctx).Info("retrying nft mint", "loan_id", l.LoanID, "admin_id", admin.UserID)
	return u.mint(ctx, l, borrower, wallet)
}

// mint pins the metadata, mints, then records the NFT and activates the loan.
func (u *Usecase) mint(ctx context.Context, l *domainLoan.Loan, borrower *user.User, wallet string) (*Result, error) {
	if wallet == "" {
		return nil, ErrNoWallet
	}
	now := u.now().UTC()
	meta := nftloan.Metadata{
		Name:         "OrbitLend Loan #" + strings.ToUpper(l.LoanID),
		Description:  fmt.Sprintf("%s loan of %s at %s%% over %d months", l.Purpose, l.Amount.StringFixed(2), l.InterestRate.String(), l.TermMonths),
		Amount:       l.Amount,
		InterestRate: l.InterestRate,
		TermMonths:   l.TermMonths,
		Purpose:      l.Purpose,
		Borrower:     borrower.UserID,
		IssuedAt:     now,
	}

	pin, err := u.pinner.PinJSON(ctx, "loan-"+l.LoanID+".json", meta)
	if err != nil {
		return nil, err
	}
	tokenURI := "ipfs://" + pin.CID

	minted, err := u.minter.Mint(ctx, minting.MintRequest{Recipient: wallet, TokenURI: tokenURI, Metadata: meta})
	if err != nil {
		return nil, err
	}

	n := &nftloan.NFTLoan{
		NFTLoanID:         id.New(),
		LoanID:            l.LoanID,
		TokenID:           minted.TokenID,
		ContractAddress:   minted.ContractAddress,
		TransactionHash:   minted.TransactionHash,
		BlockNumber:       minted.BlockNumber,
		OwnerAddress:      user.NormalizeWallet(wallet),
		Metadata:          meta,
		IPFSHash:          pin.CID,
		TokenURI:          tokenURI,
		Network:           minted.Network,
		MintedAt:          now,
		MarketplaceStatus: nftloan.NotListed,
		IsActive:          true,
	}
	if n.Network == "" {
		n.Network = u.minter.Chain()
	}

	var active *domainLoan.Loan
	err = u.uow.WithinLoanTx(ctx, l.LoanID, func(r uow.Repos, cur *domainLoan.Loan) error {
		if cur.Status != domainLoan.StatusApproved {
			return domainLoan.ErrNotApproved
		}
		if err := r.NFTLoans.Create(ctx, n); err != nil {
			return err
		}
		cur.NFTTokenID = n.TokenID
		cur.NFTContractAddress = n.ContractAddress
		cur.NFTTransactionHash = n.TransactionHash
		cur.Status = domainLoan.StatusActive
		if err := r.Loans.SaveIfStatus(ctx, cur, domainLoan.StatusApproved); err != nil {
			return err
		}
		active = cur
		return nil
	})
	if err != nil {
		// minted on chain but not recorded; keep the tx hash in the log for reconciliation
		logger.FromContext(ctx).Error("minted nft could not be recorded", "loan_id", l.LoanID, "tx_hash", minted.TransactionHash, "err", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("nft minted", "loan_id", active.LoanID, "token_id", n.TokenID, "tx_hash", n.TransactionHash)
	u.publishStatus(ctx, active, domainLoan.StatusApproved)
	u.events.Publish(ctx, event.New(event.LoanFunded, active.UserID, map[string]any{
		"loanId":          active.LoanID,
		"nftLoanId":       n.NFTLoanID,
		"tokenId":         n.TokenID,
		"contractAddress": n.ContractAddress,
		"transactionHash": n.TransactionHash,
		"amount":          active.Amount,
		"purpose":         active.Purpose,
	}))
	return &Result{Loan: active, NFT: n}, nil
}

func (u *Usecase) Reject(ctx context.Context, admin *user.User, in RejectInput) (*Result, error) {
	reason := strings.TrimSpace(in.RejectionReason)
	if len([]rune(reason)) < 10 {
		return nil, ErrReasonTooShort
	}
	var out *domainLoan.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusPending {
			return domainLoan.ErrNotPending
		}
		now := u.now().UTC()
		l.Status = domainLoan.StatusRejected
		l.RejectedAt = &now
		l.RejectionReason = in.RejectionReason
		l.ApprovedBy = admin.UserID
		if in.AdminNotes != "" {
			l.AdminNotes = in.AdminNotes
		}
		if err := r.Loans.SaveIfStatus(ctx, l, domainLoan.StatusPending); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("loan rejected", "loan_id", out.LoanID, "admin_id", admin.UserID)
	u.publishStatus(ctx, out, domainLoan.StatusPending)
	return &Result{Loan: out}, nil
}

// MarkDefaulted is the only way into the defaulted state; no overdue policy
// triggers it automatically.
func (u *Usecase) MarkDefaulted(ctx context.Context, admin *user.User, in DefaultInput) (*Result, error) {
	var out *domainLoan.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrNotActive
		}
		now := u.now().UTC()
		l.Status = domainLoan.StatusDefaulted
		l.DefaultedAt = &now
		if in.Notes != "" {
			if l.AdminNotes != "" {
				l.AdminNotes += "\n"
			}
			l.AdminNotes += in.Notes
		}
		if err := r.Loans.SaveIfStatus(ctx, l, domainLoan.StatusActive); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Warn("loan marked defaulted", "loan_id", out.LoanID, "admin_id", admin.UserID)
	u.publishStatus(ctx, out, domainLoan.StatusActive)
	return &Result{Loan: out}, nil
}

func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	ls, err := u.repos.Loans.Stats(ctx)
	if err != nil {
		return nil, err
	}
	listed, err := u.repos.NFTLoans.CountListed(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := u.repos.Users.CountByKYCStatus(ctx, user.KYCPending)
	if err != nil {
		return nil, err
	}
	return &Stats{Loans: ls, ListedNFTs: listed, PendingKYC: pending}, nil
}

func (u *Usecase) publishStatus(ctx context.Context, l *domainLoan.Loan, prev domainLoan.Status) {
	data := map[string]any{
		"loanId":         l.LoanID,
		"status":         l.Status,
		"previousStatus": prev,
		"amount":         l.Amount,
	}
	if l.RejectionReason != "" && l.Status == domainLoan.StatusRejected {
		data["rejectionReason"] = l.RejectionReason
	}
	u.events.Publish(ctx, event.New(event.LoanStatusChanged, l.UserID, data))
}
