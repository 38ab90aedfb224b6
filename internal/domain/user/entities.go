package user

import (
	"strings"
	"time"

	"orbitlend-backend/internal/domain/apperr"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

var (
	ErrNotFound      = apperr.NotFound("user not found")
	ErrEmailTaken    = apperr.Conflict("email already registered")
	ErrWalletTaken   = apperr.Conflict("wallet address already linked to another account")
	ErrInactive      = apperr.Authentication("account is deactivated")
	ErrKYCRequired   = apperr.Authorization("KYC verification required before requesting a loan")
	ErrHoldsOpenLoan = apperr.Conflict("cannot deactivate while holding approved or active loans")
)

type Address struct {
	Street     string `gorm:"size:255" json:"street,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	State      string `gorm:"size:100" json:"state,omitempty"`
	PostalCode string `gorm:"size:20" json:"postalCode,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`
}

// Document is a reference to a pinned KYC file.
type Document struct {
	Kind       string    `json:"kind"`
	CID        string    `json:"cid"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type User struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	UserID string `gorm:"column:user_id;size:26;not null;uniqueIndex:ux_users_user_id" json:"id"`
	// Email is nil for wallet-only accounts.
	Email        *string `gorm:"column:email;size:255;uniqueIndex:ux_users_email" json:"email,omitempty"`
	PasswordHash string  `gorm:"column:password_hash;size:100" json:"-"`
	FirstName    string  `gorm:"column:first_name;size:100" json:"firstName"`
	LastName     string  `gorm:"column:last_name;size:100" json:"lastName"`
	Phone        string  `gorm:"column:phone;size:32" json:"phone,omitempty"`

	Role               Role      `gorm:"column:role;size:16;not null;default:user;index" json:"role"`
	KYCStatus          KYCStatus `gorm:"column:kyc_status;size:16;not null;default:pending;index" json:"kycStatus"`
	KYCRejectionReason string    `gorm:"column:kyc_rejection_reason;type:text" json:"kycRejectionReason,omitempty"`
	IsActive           bool      `gorm:"column:is_active;not null" json:"isActive"`

	WalletAddress  *string `gorm:"column:wallet_address;size:42;uniqueIndex:ux_users_wallet" json:"walletAddress,omitempty"`
	ProfilePicture string  `gorm:"column:profile_picture;type:text" json:"profilePicture,omitempty"`
	Address        Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`

	Documents           []Document `gorm:"column:documents;serializer:json;type:json" json:"documents,omitempty"`
	DocumentsUploadedAt *time.Time `gorm:"column:documents_uploaded_at" json:"documentsUploadedAt,omitempty"`

	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Wallet returns the linked address or "".
func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}

// OwnsWallet compares addresses case-insensitively.
func (u *User) OwnsWallet(addr string) bool {
	w := u.Wallet()
	return w != "" && strings.EqualFold(w, addr)
}

// Summary is the read-side projection joined onto loans.
type Summary struct {
	UserID        string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email,omitempty"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	KYCStatus     KYCStatus `json:"kycStatus"`
}

func (u *User) Summary() Summary {
	s := Summary{
		UserID:        u.UserID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		WalletAddress: u.Wallet(),
		KYCStatus:     u.KYCStatus,
	}
	if u.Email != nil {
		s.Email = *u.Email
	}
	return s
}

// NormalizeEmail lowercases and trims.
func NormalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// NormalizeWallet lowercases a hex address so lookups are case-insensitive.
func NormalizeWallet(a string) string { return strings.ToLower(strings.TrimSpace(a)) }
