package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"orbitlend-backend/internal/domain/apperr"
	userDomain "orbitlend-backend/internal/domain/user"
)

var errUserExists = apperr.Conflict("user already exists")

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *userDomain.User) error {
	return duplicate(r.db.WithContext(ctx).Create(u).Error, errUserExists)
}

func (r *UserRepository) Save(ctx context.Context, u *userDomain.User) error {
	return duplicate(r.db.WithContext(ctx).Save(u).Error, errUserExists)
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*userDomain.User, error) {
	var out userDomain.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, notFound(err, userDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	var out userDomain.User
	err := r.db.WithContext(ctx).Where("email = ?", userDomain.NormalizeEmail(email)).First(&out).Error
	if err != nil {
		return nil, notFound(err, userDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *UserRepository) GetByWallet(ctx context.Context, address string) (*userDomain.User, error) {
	var out userDomain.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", userDomain.NormalizeWallet(address)).First(&out).Error
	if err != nil {
		return nil, notFound(err, userDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *UserRepository) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*userDomain.User, error) {
	out := make(map[string]*userDomain.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []userDomain.User
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].UserID] = &rows[i]
	}
	return out, nil
}

func (r *UserRepository) List(ctx context.Context, f userDomain.ListFilter) ([]userDomain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&userDomain.User{})
	if f.KYCStatus != "" {
		q = q.Where("kyc_status = ?", f.KYCStatus)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []userDomain.User
	err := page(q, f.Offset, f.Limit).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, total, err
}

func (r *UserRepository) CountByKYCStatus(ctx context.Context, s userDomain.KYCStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDomain.User{}).Where("kyc_status = ?", s).Count(&n).Error
	return n, err
}
