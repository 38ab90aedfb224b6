package gormrepo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	loanDomain "orbitlend-backend/internal/domain/loan"
	nftDomain "orbitlend-backend/internal/domain/nftloan"
	userDomain "orbitlend-backend/internal/domain/user"
	"orbitlend-backend/pkg/id"
)

// openTestDB creates an in-memory sqlite DB with the real schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection, otherwise every conn gets its own :memory: database
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&userDomain.User{}, &loanDomain.Loan{}, &nftDomain.NFTLoan{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeUser(email string) *userDomain.User {
	e := email
	return &userDomain.User{
		UserID:    id.New(),
		Email:     &e,
		FirstName: "Ana",
		LastName:  "Lee",
		Role:      userDomain.RoleUser,
		KYCStatus: userDomain.KYCApproved,
		IsActive:  true,
	}
}

func makeLoan(userID string, status loanDomain.Status) *loanDomain.Loan {
	return &loanDomain.Loan{
		LoanID:       id.New(),
		UserID:       userID,
		Amount:       dec("12000"),
		Purpose:      loanDomain.PurposeBusiness,
		InterestRate: dec("12"),
		TermMonths:   12,
		Status:       status,
		RequestedAt:  time.Now().UTC(),
	}
}

func makeNFT(loanID, owner string) *nftDomain.NFTLoan {
	return &nftDomain.NFTLoan{
		NFTLoanID:         id.New(),
		LoanID:            loanID,
		TokenID:           "1",
		ContractAddress:   "0x00000000000000000000000000000000000000c0",
		TransactionHash:   "0xmint",
		OwnerAddress:      owner,
		Network:           "polygon",
		MintedAt:          time.Now().UTC(),
		MarketplaceStatus: nftDomain.NotListed,
		IsActive:          true,
	}
}
