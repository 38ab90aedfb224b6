package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func activeLoan() *Loan {
	return &Loan{
		Amount: d("1000"),
		Status: StatusActive,
		RepaymentSchedule: []Installment{
			{Number: 1, Amount: d("500"), Status: InstallmentPending},
			{Number: 2, Amount: d("500"), Status: InstallmentPending},
		},
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusActive, false},
		{StatusApproved, StatusActive, true},
		{StatusApproved, StatusPending, false},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusDefaulted, true},
		{StatusRejected, StatusPending, false},
		{StatusCompleted, StatusActive, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s,%s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
	for _, s := range []Status{StatusRejected, StatusCompleted, StatusDefaulted} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestApplyRepayment_CreditsInstallmentAndBalance(t *testing.T) {
	l := activeLoan()
	n := 1
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := l.ApplyRepayment(d("200"), &n, now); err != nil {
		t.Fatalf("ApplyRepayment: %v", err)
	}
	if !l.RemainingBalance.Equal(d("800")) || !l.TotalRepaid.Equal(d("200")) {
		t.Fatalf("balance=%s repaid=%s", l.RemainingBalance, l.TotalRepaid)
	}
	if l.RepaymentSchedule[0].Status != InstallmentPending {
		t.Fatal("partially paid installment must stay pending")
	}

	if err := l.ApplyRepayment(d("300"), &n, now); err != nil {
		t.Fatalf("ApplyRepayment: %v", err)
	}
	if l.RepaymentSchedule[0].Status != InstallmentPaid || l.RepaymentSchedule[0].PaidDate == nil {
		t.Fatalf("installment not marked paid: %+v", l.RepaymentSchedule[0])
	}
}

func TestApplyRepayment_CompletesAtZero(t *testing.T) {
	l := activeLoan()
	if err := l.ApplyRepayment(d("1000"), nil, time.Now()); err != nil {
		t.Fatalf("ApplyRepayment: %v", err)
	}
	if l.Status != StatusCompleted || l.CompletedAt == nil {
		t.Fatalf("status=%s completedAt=%v", l.Status, l.CompletedAt)
	}
	if !l.RemainingBalance.IsZero() {
		t.Fatalf("remaining = %s", l.RemainingBalance)
	}
}

func TestApplyRepayment_Rejections(t *testing.T) {
	missing := 9
	cases := []struct {
		name   string
		mutate func(*Loan)
		amount string
		inst   *int
		want   error
	}{
		{"exceeds balance", nil, "1000.01", nil, ErrExceedsBalance},
		{"zero", nil, "0", nil, ErrInvalidAmount},
		{"negative", nil, "-5", nil, ErrInvalidAmount},
		{"not active", func(l *Loan) { l.Status = StatusApproved }, "10", nil, ErrNotActive},
		{"unknown installment", nil, "10", &missing, ErrInstallmentNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := activeLoan()
			if tc.mutate != nil {
				tc.mutate(l)
			}
			err := l.ApplyRepayment(d(tc.amount), tc.inst, time.Now())
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !l.TotalRepaid.IsZero() {
				t.Fatal("rejected repayment must not change totals")
			}
		})
	}
}

func TestValidPurpose(t *testing.T) {
	if !ValidPurpose("home_improvement") || ValidPurpose("vacation") {
		t.Fatal("ValidPurpose mismatch")
	}
	if len(Purposes) != 8 {
		t.Fatalf("purposes = %d", len(Purposes))
	}
}
