package loan

import (
	"time"

	"github.com/shopspring/decimal"

	domain "orbitlend-backend/internal/domain/loan"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// MonthlyRate converts an annual percentage into a monthly fraction.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(hundred).Div(twelve)
}

// MonthlyPayment is the fixed annuity payment, rounded to cents.
func MonthlyPayment(amount, annualRate decimal.Decimal, term int) decimal.Decimal {
	r := MonthlyRate(annualRate)
	n := decimal.NewFromInt(int64(term))
	if r.IsZero() {
		return amount.Div(n).Round(2)
	}
	f := pow(decimal.NewFromInt(1).Add(r), term)
	return amount.Mul(r).Mul(f).Div(f.Sub(decimal.NewFromInt(1))).Round(2)
}

// pow raises base to a non-negative integer power by squaring, keeping
// 20 decimal places between steps.
func pow(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(20)
		}
		base = base.Mul(base).Round(20)
		n >>= 1
	}
	return result
}

// BuildSchedule amortizes amount over term months starting the month after
// start. The final installment absorbs the rounding remainder so principals
// sum to amount exactly.
func BuildSchedule(amount, annualRate decimal.Decimal, term int, start time.Time) []domain.Installment {
	if term <= 0 {
		return nil
	}
	r := MonthlyRate(annualRate)
	payment := MonthlyPayment(amount, annualRate, term)

	out := make([]domain.Installment, 0, term)
	balance := amount
	for i := 1; i <= term; i++ {
		interest := balance.Mul(r).Round(2)
		principal := payment.Sub(interest).Round(2)
		if i == term || principal.GreaterThan(balance) {
			principal = balance
		}
		if principal.IsNegative() {
			principal = decimal.Zero
		}
		balance = balance.Sub(principal)

		out = append(out, domain.Installment{
			Number:     i,
			DueDate:    start.AddDate(0, i, 0),
			Amount:     principal.Add(interest),
			Principal:  principal,
			Interest:   interest,
			Status:     domain.InstallmentPending,
			PaidAmount: decimal.Zero,
		})
	}
	return out
}

// Totals sums a schedule.
func Totals(s []domain.Installment) (principal, interest, paid decimal.Decimal) {
	for _, in := range s {
		principal = principal.Add(in.Principal)
		interest = interest.Add(in.Interest)
		paid = paid.Add(in.Amount)
	}
	return
}
