package user

import "context"

type ListFilter struct {
	KYCStatus KYCStatus
	Role      Role
	Offset    int
	Limit     int
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
	GetByUserID(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByWallet(ctx context.Context, address string) (*User, error)
	// GetByUserIDs batch-loads users for read-side joins; missing IDs are skipped.
	GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*User, error)
	List(ctx context.Context, f ListFilter) ([]User, int64, error)
	CountByKYCStatus(ctx context.Context, s KYCStatus) (int64, error)
}
