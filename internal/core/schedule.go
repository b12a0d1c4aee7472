package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentDue is one scheduled fraction of an amount, due on a future date.
type InstallmentDue struct {
	Number      int
	Amount      decimal.Decimal
	DueDate     time.Time
	Description string
}

// InstallmentPlan derives the receivable (or payable) schedule for a
// committed transaction. Only deferred-payment instruments generate future
// obligations; point-of-sale instruments settle immediately and produce an
// empty plan:
//
//	crediario            → one installment per month for any N >= 1
//	cartao with N > 1    → same schedule, card marker in the description
//	cartao with N == 1   → none
//	dinheiro, pix        → none
//	pending              → none (payment not yet determined)
//
// Each installment is amount/N rounded to 2 places; the last installment
// absorbs the rounding remainder so the plan always sums to amount exactly.
// Due dates are from + 1 month, + 2 months, ..., + N months.
func InstallmentPlan(amount decimal.Decimal, method PaymentMethod, installments int, docNumber string, from time.Time) ([]InstallmentDue, error) {
	if installments < 1 {
		return nil, fmt.Errorf("installment count must be >= 1, got %d: %w", installments, ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s: %w", amount, ErrInvalidInput)
	}

	var cardMarker string
	switch method {
	case PaymentCrediario:
		// always scheduled
	case PaymentCard:
		if installments == 1 {
			return nil, nil
		}
		cardMarker = " (Card)"
	case PaymentCash, PaymentPix, PaymentPending:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown payment method %q: %w", method, ErrInvalidInput)
	}

	n := int64(installments)
	per := amount.Div(decimal.NewFromInt(n)).Round(2)
	last := amount.Sub(per.Mul(decimal.NewFromInt(n - 1)))

	plan := make([]InstallmentDue, 0, installments)
	for i := 1; i <= installments; i++ {
		amt := per
		if i == installments {
			amt = last
		}
		plan = append(plan, InstallmentDue{
			Number:      i,
			Amount:      amt,
			DueDate:     from.AddDate(0, i, 0),
			Description: fmt.Sprintf("Installment %d/%d%s - Sale %s", i, installments, cardMarker, docNumber),
		})
	}
	return plan, nil
}

// PayablePlan is InstallmentPlan with purchase wording in the descriptions.
// The card marker carries over unchanged.
func PayablePlan(amount decimal.Decimal, method PaymentMethod, installments int, docNumber string, from time.Time) ([]InstallmentDue, error) {
	plan, err := InstallmentPlan(amount, method, installments, docNumber, from)
	if err != nil || plan == nil {
		return plan, err
	}
	for i := range plan {
		plan[i].Description = strings.Replace(plan[i].Description, " - Sale ", " - Purchase ", 1)
	}
	return plan, nil
}
