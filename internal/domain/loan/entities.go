package loan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"orbitlend-backend/internal/domain/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusActive},
	StatusActive:   {StatusCompleted, StatusDefaulted},
}

// CanTransition reports whether from -> to is an edge of the loan state machine.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

type Purpose string

const (
	PurposeBusiness          Purpose = "business"
	PurposePersonal          Purpose = "personal"
	PurposeEducation         Purpose = "education"
	PurposeMedical           Purpose = "medical"
	PurposeHomeImprovement   Purpose = "home_improvement"
	PurposeDebtConsolidation Purpose = "debt_consolidation"
	PurposeVehicle           Purpose = "vehicle"
	PurposeOther             Purpose = "other"
)

var Purposes = []Purpose{
	PurposeBusiness, PurposePersonal, PurposeEducation, PurposeMedical,
	PurposeHomeImprovement, PurposeDebtConsolidation, PurposeVehicle, PurposeOther,
}

func ValidPurpose(p string) bool {
	for _, v := range Purposes {
		if string(v) == p {
			return true
		}
	}
	return false
}

var (
	MinAmount = decimal.NewFromInt(1_000)
	MaxAmount = decimal.NewFromInt(1_000_000)
	MinRate   = decimal.RequireFromString("0.1")
	MaxRate   = decimal.NewFromInt(50)
)

const (
	MinTermMonths = 1
	MaxTermMonths = 360
)

var (
	ErrNotFound            = apperr.NotFound("loan not found")
	ErrNotPending          = apperr.Conflict("loan is not pending")
	ErrNotApproved         = apperr.Conflict("loan is not awaiting minting")
	ErrNotActive           = apperr.Conflict("loan is not active")
	ErrConcurrentUpdate    = apperr.Conflict("loan was modified by another request")
	ErrExceedsBalance      = apperr.Validation("repayment amount exceeds remaining balance")
	ErrInvalidAmount       = apperr.Validation("repayment amount must be positive")
	ErrInstallmentNotFound = apperr.Validation("installment not found")
	ErrNotOwner            = apperr.Authorization("loan belongs to another user")
)

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
)

type Installment struct {
	Number     int               `json:"installmentNumber"`
	DueDate    time.Time         `json:"dueDate"`
	Amount     decimal.Decimal   `json:"amount"`
	Principal  decimal.Decimal   `json:"principal"`
	Interest   decimal.Decimal   `json:"interest"`
	Status     InstallmentStatus `json:"status"`
	PaidAmount decimal.Decimal   `json:"paidAmount"`
	PaidDate   *time.Time        `json:"paidDate,omitempty"`
}

type Loan struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID string `gorm:"column:loan_id;size:26;not null;uniqueIndex:ux_loans_loan_id" json:"id"`
	UserID string `gorm:"column:user_id;size:26;not null;index:idx_loans_user_status" json:"userId"`

	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Purpose      Purpose         `gorm:"column:purpose;size:32;not null" json:"purpose"`
	InterestRate decimal.Decimal `gorm:"column:interest_rate;type:decimal(6,2);not null" json:"interestRate"`
	TermMonths   int             `gorm:"column:term_months;not null" json:"termMonths"`
	Collateral   string          `gorm:"column:collateral;type:text" json:"collateral,omitempty"`

	Status          Status     `gorm:"column:status;size:16;not null;default:pending;index:idx_loans_user_status;index:idx_loans_status" json:"status"`
	RequestedAt     time.Time  `gorm:"column:requested_at;not null" json:"requestedAt"`
	ApprovedAt      *time.Time `gorm:"column:approved_at" json:"approvedAt,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejectedAt,omitempty"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	DefaultedAt     *time.Time `gorm:"column:defaulted_at" json:"defaultedAt,omitempty"`
	AdminNotes      string     `gorm:"column:admin_notes;type:text" json:"adminNotes,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason;type:text" json:"rejectionReason,omitempty"`
	ApprovedBy      string     `gorm:"column:approved_by;size:26" json:"approvedBy,omitempty"`

	NFTTokenID         string `gorm:"column:nft_token_id;size:100" json:"nftTokenId,omitempty"`
	NFTContractAddress string `gorm:"column:nft_contract_address;size:42" json:"nftContractAddress,omitempty"`
	NFTTransactionHash string `gorm:"column:nft_transaction_hash;size:66" json:"nftTransactionHash,omitempty"`

	RepaymentSchedule []Installment   `gorm:"column:repayment_schedule;serializer:json;type:json" json:"repaymentSchedule"`
	TotalRepaid       decimal.Decimal `gorm:"column:total_repaid;type:decimal(18,2);not null" json:"totalRepaid"`
	RemainingBalance  decimal.Decimal `gorm:"column:remaining_balance;type:decimal(18,2);not null" json:"remainingBalance"`

	// Version increments on every conditional write.
	Version   int64     `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Loan) TableName() string { return "loans" }

// BeforeSave keeps remainingBalance = amount - totalRepaid on every write.
func (l *Loan) BeforeSave(*gorm.DB) error {
	l.Recompute()
	return nil
}

func (l *Loan) Recompute() {
	l.RemainingBalance = l.Amount.Sub(l.TotalRepaid)
}

// Minted reports whether NFT identifiers have been recorded.
func (l *Loan) Minted() bool { return l.NFTTokenID != "" }

// ApplyRepayment credits amount against the loan and, when given, one
// installment. A loan whose balance reaches zero becomes completed.
func (l *Loan) ApplyRepayment(amount decimal.Decimal, installment *int, now time.Time) error {
	if l.Status != StatusActive {
		return ErrNotActive
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	l.Recompute()
	if amount.GreaterThan(l.RemainingBalance) {
		return ErrExceedsBalance
	}

	if installment != nil {
		idx := -1
		for i := range l.RepaymentSchedule {
			if l.RepaymentSchedule[i].Number == *installment {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrInstallmentNotFound
		}
		inst := &l.RepaymentSchedule[idx]
		inst.PaidAmount = inst.PaidAmount.Add(amount)
		paidAt := now
		inst.PaidDate = &paidAt
		if inst.PaidAmount.GreaterThanOrEqual(inst.Amount) {
			inst.Status = InstallmentPaid
		}
	}

	l.TotalRepaid = l.TotalRepaid.Add(amount)
	l.Recompute()
	if l.RemainingBalance.Sign() <= 0 {
		l.RemainingBalance = decimal.Zero
		l.Status = StatusCompleted
		done := now
		l.CompletedAt = &done
	}
	return nil
}

// Stats is the per-status loan count used by the admin dashboard.
type Stats struct {
	ByStatus    map[Status]int64 `json:"byStatus"`
	Total       int64            `json:"total"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	TotalRepaid decimal.Decimal  `json:"totalRepaid"`
}
