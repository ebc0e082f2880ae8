package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const installmentSuffix = " installments)"

// InstallmentName appends the installment marker, e.g. "Laptop (12 installments)".
func InstallmentName(title string, installments int) string {
	return fmt.Sprintf("%s (%d%s", strings.TrimSpace(title), installments, installmentSuffix)
}

// IsInstallmentName reports whether name carries the installment marker.
func IsInstallmentName(name string) bool {
	return strings.HasSuffix(name, installmentSuffix)
}

// ValidateInstallmentInput rejects inputs ComputeInstallmentPayment is not defined for.
func ValidateInstallmentInput(total Money, installments int, annualRatePercent float64) error {
	if err := total.Validate(); err != nil {
		return err
	}
	if installments < 1 {
		return ErrInvalidInstallments
	}
	if math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) ||
		annualRatePercent < 0 || annualRatePercent > 100 {
		return ErrInvalidRate
	}
	return nil
}

func monthlyRate(annualRatePercent float64) decimal.Decimal {
	return decimal.NewFromFloat(annualRatePercent).Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(12))
}

// ComputeInstallmentPayment is the monthly payment of an amortized purchase,
// rounded up to the next whole unit. Inputs must pass ValidateInstallmentInput.
func ComputeInstallmentPayment(total Money, installments int, annualRatePercent float64) Money {
	if annualRatePercent == 0 {
		n := int64(installments)
		return Money{Units: (total.Units + n - 1) / n}
	}
	p := decimal.NewFromInt(total.Units)
	r := monthlyRate(annualRatePercent)
	growth := decimal.NewFromInt(1).Add(r).Pow(decimal.NewFromInt(int64(installments)))
	payment := p.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return Money{Units: payment.Ceil().IntPart()}
}

// ScheduledPayment is one line of an installment plan.
type ScheduledPayment struct {
	Number    int
	DueDate   Date
	Payment   Money
	Principal Money
	Interest  Money
	Remaining Money
}

// InstallmentSchedule splits each payment into principal and interest.
// The last payment settles whatever principal is left.
func InstallmentSchedule(total Money, installments int, annualRatePercent float64, start Date) []ScheduledPayment {
	payment := ComputeInstallmentPayment(total, installments, annualRatePercent)
	r := monthlyRate(annualRatePercent)
	remaining := total.Units

	out := make([]ScheduledPayment, 0, installments)
	for i := 1; i <= installments; i++ {
		interest := decimal.NewFromInt(remaining).Mul(r).Round(0).IntPart()
		principal := payment.Units - interest
		if i == installments || principal > remaining {
			principal = remaining
		}
		remaining -= principal
		out = append(out, ScheduledPayment{
			Number:    i,
			DueDate:   ClampedDate(start.Year(), start.Month()+i-1, start.Day()),
			Payment:   Money{Units: principal + interest},
			Principal: Money{Units: principal},
			Interest:  Money{Units: interest},
			Remaining: Money{Units: remaining},
		})
	}
	return out
}
