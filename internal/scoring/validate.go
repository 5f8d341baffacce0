package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/opensource-finance/lendscore/internal/domain"
)

// ErrInvalidProfile is wrapped by every validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// InvalidProfileError describes one rejected input field.
type InvalidProfileError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidProfile, e.Field, e.Reason)
}

func (e *InvalidProfileError) Unwrap() error {
	return ErrInvalidProfile
}

// Validate checks the inputs the formula cannot score meaningfully.
// Several failures are joined into one error.
// LoansRepaidOnTimeCount above TotalLoansCount is accepted.
func Validate(off domain.OffChainProfile, on domain.OnChainProfile, loyalty domain.LoyaltyProfile, termMonths int) error {
	var errs []error
	reject := func(field, reason string) {
		errs = append(errs, &InvalidProfileError{Field: field, Reason: reason})
	}

	checkFloat := func(field string, v float64, allowZero bool) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			reject(field, "must be a finite number")
		case v < 0:
			reject(field, "must not be negative")
		case v == 0 && !allowZero:
			reject(field, "must be greater than zero")
		}
	}
	checkCount := func(field string, v int) {
		if v < 0 {
			reject(field, "must not be negative")
		}
	}

	checkFloat("offChain.netMonthlyIncome", off.NetMonthlyIncome, false)
	checkFloat("offChain.monthlyObligations", off.MonthlyObligations, true)
	checkFloat("offChain.employmentTenureYears", off.EmploymentTenureYears, true)

	checkFloat("onChain.walletAgeYears", on.WalletAgeYears, true)
	checkCount("onChain.transactionCount", on.TransactionCount)

	checkFloat("loyalty.protocolTenureYears", loyalty.ProtocolTenureYears, true)
	checkCount("loyalty.totalLoansCount", loyalty.TotalLoansCount)
	checkCount("loyalty.loansRepaidOnTimeCount", loyalty.LoansRepaidOnTimeCount)
	checkCount("loyalty.latePaymentsCount", loyalty.LatePaymentsCount)

	if termMonths < 0 {
		reject("termMonths", "must not be negative")
	}

	return errors.Join(errs...)
}

// FieldErrors returns the individual field failures carried by err,
// looking through wrapping and joined errors.
func FieldErrors(err error) []*InvalidProfileError {
	switch e := err.(type) {
	case nil:
		return nil
	case *InvalidProfileError:
		return []*InvalidProfileError{e}
	case interface{ Unwrap() []error }:
		var out []*InvalidProfileError
		for _, inner := range e.Unwrap() {
			out = append(out, FieldErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return FieldErrors(e.Unwrap())
	}
	return nil
}
