package user

import (
	"context"
	"io"
	"strings"
	"time"

	"orbitlend-backend/internal/adapter/external/pinning"
	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/event"
	"orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/internal/domain/uow"
	domain "orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/logger"
	"orbitlend-backend/internal/usecase/page"
)

var (
	ErrReasonRequired = apperr.Validation("a reason is required when rejecting KYC")
	ErrAdminOnly      = apperr.Authorization("admin access required")
)

// FilePinner stores KYC documents.
type FilePinner interface {
	PinFile(ctx context.Context, name string, r io.Reader) (*pinning.PinResult, error)
}

type Usecase struct {
	users  domain.Repository
	tx     uow.UnitOfWork
	pinner FilePinner
	events event.Publisher
	now    func() time.Time
}

func NewUsecase(users domain.Repository, tx uow.UnitOfWork, pinner FilePinner, events event.Publisher) *Usecase {
	if events == nil {
		events = event.Nop{}
	}
	return &Usecase{users: users, tx: tx, pinner: pinner, events: events, now: time.Now}
}

func (u *Usecase) Profile(ctx context.Context, caller *domain.User) (*domain.User, error) {
	return u.users.GetByUserID(ctx, caller.UserID)
}

func (u *Usecase) UpdateProfile(ctx context.Context, caller *domain.User, in ProfileInput) (*domain.User, error) {
	usr, err := u.users.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		usr.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		usr.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		usr.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.ProfilePicture != nil {
		usr.ProfilePicture = *in.ProfilePicture
	}
	if in.Address != nil {
		usr.Address = *in.Address
	}
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	return usr, nil
}

// UploadKYCDocument pins the file and attaches it to the caller. A rejected
// applicant goes back to pending for review.
func (u *Usecase) UploadKYCDocument(ctx context.Context, caller *domain.User, in KYCDocumentInput, file io.Reader) (*domain.User, error) {
	usr, err := u.users.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	res, err := u.pinner.PinFile(ctx, "kyc-"+usr.UserID+"-"+in.Kind+"-"+in.FileName, file)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	usr.Documents = append(usr.Documents, domain.Document{Kind: in.Kind, CID: res.CID, URL: res.URL, UploadedAt: now})
	usr.DocumentsUploadedAt = &now
	prev := usr.KYCStatus
	if usr.KYCStatus == domain.KYCRejected {
		usr.KYCStatus = domain.KYCPending
		usr.KYCRejectionReason = ""
	}
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("kyc document uploaded", "user_id", usr.UserID, "kind", in.Kind, "cid", res.CID)
	if prev != usr.KYCStatus {
		u.publishKYC(ctx, usr)
	}
	return usr, nil
}

func (u *Usecase) SetKYCStatus(ctx context.Context, admin *domain.User, in KYCStatusInput) (*domain.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrAdminOnly
	}
	reason := strings.TrimSpace(in.Reason)
	if in.Status == domain.KYCRejected && reason == "" {
		return nil, ErrReasonRequired
	}
	if in.Status != domain.KYCApproved && in.Status != domain.KYCRejected {
		return nil, apperr.Validation("status must be approved or rejected")
	}

	usr, err := u.users.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	usr.KYCStatus = in.Status
	usr.KYCRejectionReason = ""
	if in.Status == domain.KYCRejected {
		usr.KYCRejectionReason = reason
	}
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("kyc status set", "user_id", usr.UserID, "status", usr.KYCStatus, "by", admin.UserID)
	u.publishKYC(ctx, usr)
	return usr, nil
}

func (u *Usecase) publishKYC(ctx context.Context, usr *domain.User) {
	u.events.Publish(ctx, event.New(event.KYCStatusChanged, usr.UserID, map[string]any{
		"kycStatus":       usr.KYCStatus,
		"rejectionReason": usr.KYCRejectionReason,
	}))
}

func (u *Usecase) List(ctx context.Context, in ListInput) (*ListResult, error) {
	r := in.Request.Normalize()
	items, total, err := u.users.List(ctx, domain.ListFilter{
		KYCStatus: in.KYCStatus,
		Role:      in.Role,
		Offset:    r.Offset(),
		Limit:     r.Limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.User{}
	}
	return &ListResult{Items: items, Pagination: page.NewInfo(r, total)}, nil
}

// Deactivate disables an account. Callers may deactivate themselves; admins
// may deactivate anyone. Holders of approved or active loans are refused.
// The loan count and the write share one transaction.
func (u *Usecase) Deactivate(ctx context.Context, caller *domain.User, userID string) (*domain.User, error) {
	if caller.UserID != userID && !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	var (
		out     *domain.User
		changed bool
	)
	err := u.tx.WithinTx(ctx, func(r uow.Repos) error {
		usr, err := r.Users.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		out = usr
		if !usr.IsActive {
			return nil
		}
		open, err := r.Loans.CountByUserStatuses(ctx, usr.UserID, loan.StatusApproved, loan.StatusActive)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrHoldsOpenLoan
		}
		usr.IsActive = false
		changed = true
		return r.Users.Save(ctx, usr)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return out, nil
	}
	logger.FromContext(ctx).Info("user deactivated", "user_id", out.UserID, "by", caller.UserID)
	return out, nil
}
