package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/logger"
	"orbitlend-backend/pkg/id"
)

var (
	ErrInvalidCredentials = apperr.Authentication("invalid email or password")
	ErrNonceMissing       = apperr.Authentication("no pending sign-in for this wallet; request a new nonce")
)

// NonceStore keeps one-time wallet challenges.
type NonceStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, bool, error)
}

type Usecase struct {
	users    user.Repository
	tokens   *TokenManager
	nonces   NonceStore
	nonceTTL time.Duration
	cost     int
	now      func() time.Time
}

func NewUsecase(users user.Repository, tokens *TokenManager, nonces NonceStore, nonceTTL time.Duration) *Usecase {
	return &Usecase{
		users:    users,
		tokens:   tokens,
		nonces:   nonces,
		nonceTTL: nonceTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := user.NormalizeEmail(in.Email)
	if _, err := u.users.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrEmailTaken
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cost)
	if err != nil {
		return nil, err
	}
	now := u.now().UTC()
	usr := &user.User{
		UserID:       id.New(),
		Email:        &email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         user.RoleUser,
		KYCStatus:    user.KYCPending,
		IsActive:     true,
		LastLoginAt:  &now,
	}
	if err := u.users.Create(ctx, usr); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, user.ErrEmailTaken
		}
		return nil, err
	}
	logger.FromContext(ctx).Info("user registered", "user_id", usr.UserID)
	return u.session(usr, false)
}

func (u *Usecase) Login(ctx context.Context, in LoginInput) (*Session, error) {
	usr, err := u.users.GetByEmail(ctx, user.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if usr.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return nil, user.ErrInactive
	}
	if err := u.touch(ctx, usr); err != nil {
		return nil, err
	}
	return u.session(usr, false)
}

// WalletConnect issues a one-time challenge for address.
func (u *Usecase) WalletConnect(ctx context.Context, in WalletConnectInput) (*Challenge, error) {
	addr := user.NormalizeWallet(in.WalletAddress)
	nonce := uuid.NewString()
	msg := LoginMessage(addr, nonce)
	if err := u.nonces.Set(ctx, addr, msg, u.nonceTTL); err != nil {
		return nil, err
	}
	return &Challenge{Message: msg, Nonce: nonce, ExpiresAt: u.now().UTC().Add(u.nonceTTL)}, nil
}

// WalletVerify consumes the pending challenge and signs the wallet in,
// creating a wallet-only account on first use.
func (u *Usecase) WalletVerify(ctx context.Context, in WalletVerifyInput) (*Session, error) {
	addr := user.NormalizeWallet(in.WalletAddress)
	msg, ok, err := u.nonces.Take(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNonceMissing
	}
	signer, err := RecoverAddress(msg, in.Signature)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(signer.Hex(), addr) {
		return nil, ErrBadSignature
	}

	usr, err := u.users.GetByWallet(ctx, addr)
	switch {
	case err == nil:
		if !usr.IsActive {
			return nil, user.ErrInactive
		}
		if err := u.touch(ctx, usr); err != nil {
			return nil, err
		}
		return u.session(usr, false)
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	now := u.now().UTC()
	usr = &user.User{
		UserID:        id.New(),
		WalletAddress: &addr,
		Role:          user.RoleUser,
		KYCStatus:     user.KYCPending,
		IsActive:      true,
		LastLoginAt:   &now,
	}
	if err := u.users.Create(ctx, usr); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, user.ErrWalletTaken
		}
		return nil, err
	}
	logger.FromContext(ctx).Info("wallet user created", "user_id", usr.UserID)
	return u.session(usr, true)
}

// Authenticate resolves a bearer token to an active user.
func (u *Usecase) Authenticate(ctx context.Context, token string) (*user.User, error) {
	claims, err := u.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	usr, err := u.users.GetByUserID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !usr.IsActive {
		return nil, user.ErrInactive
	}
	return usr, nil
}

func (u *Usecase) Me(ctx context.Context, caller *user.User) (*user.User, error) {
	return u.users.GetByUserID(ctx, caller.UserID)
}

// CreateAdmin provisions an admin account with a password; used by the CLI.
func (u *Usecase) CreateAdmin(ctx context.Context, email, password string) (*user.User, error) {
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	s, err := u.Register(ctx, RegisterInput{Email: email, Password: password, FirstName: "Admin"})
	if err != nil {
		return nil, err
	}
	usr := s.User
	usr.Role = user.RoleAdmin
	usr.KYCStatus = user.KYCApproved
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	return usr, nil
}

func (u *Usecase) touch(ctx context.Context, usr *user.User) error {
	now := u.now().UTC()
	usr.LastLoginAt = &now
	return u.users.Save(ctx, usr)
}

func (u *Usecase) session(usr *user.User, isNew bool) (*Session, error) {
	tok, exp, err := u.tokens.Issue(usr)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: exp, User: usr, IsNewUser: isNew}, nil
}
