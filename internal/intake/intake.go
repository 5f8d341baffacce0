// Package intake turns extracted document data into scoring profiles.
//
// Documents arrive already extracted by an upstream service. On-chain and
// loyalty data are not queried; fixed estimates stand in for them.
package intake

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/opensource-finance/lendscore/internal/domain"
)

// ErrInvalidWallet is returned for a malformed wallet address.
var ErrInvalidWallet = errors.New("invalid wallet address")

// Payslip holds the fields extracted from a payslip.
type Payslip struct {
	GrossSalary           float64 `json:"grossSalary"`
	NetSalary             float64 `json:"netSalary"`
	EmployeeContributions float64 `json:"employeeContributions"`
	ContractType          string  `json:"contractType"`
	Seniority             string  `json:"seniority"` // "dd/mm/yyyy" or "X years Y months"
	Employer              string  `json:"employer"`
	Bonuses               float64 `json:"bonuses"`
}

// TaxReturn holds the fields extracted from an income tax return.
type TaxReturn struct {
	AnnualIncome       float64 `json:"annualIncome"`
	IncomeTax          float64 `json:"incomeTax"`
	ReferenceTaxIncome float64 `json:"referenceTaxIncome"`
	TaxShares          float64 `json:"taxShares"`
	FamilyStatus       string  `json:"familyStatus"`
	OtherIncome        float64 `json:"otherIncome"`
}

// DocumentData is the upstream extraction output for one applicant.
type DocumentData struct {
	Payslip   *Payslip   `json:"payslip,omitempty"`
	TaxReturn *TaxReturn `json:"taxReturn,omitempty"`
}

// EstimatedOnChain is used until wallet activity is actually queried.
func EstimatedOnChain() domain.OnChainProfile {
	return domain.OnChainProfile{
		WalletAgeYears:   1.5,
		TransactionCount: 250,
	}
}

// EstimatedLoyalty is used until protocol history is actually queried.
func EstimatedLoyalty() domain.LoyaltyProfile {
	return domain.LoyaltyProfile{
		ProtocolTenureYears:    0.5,
		TotalLoansCount:        1,
		LoansRepaidOnTimeCount: 1,
		LatePaymentsCount:      0,
	}
}

// ToProfiles maps document data to scoring profiles. Seniority dates are
// measured against now. Missing payslip fields map to zero and are left
// for validation to reject.
func ToProfiles(doc DocumentData, termMonths int, now time.Time) domain.Profiles {
	var off domain.OffChainProfile
	if doc.Payslip != nil {
		off.NetMonthlyIncome = doc.Payslip.NetSalary
		off.MonthlyObligations = doc.Payslip.EmployeeContributions
		off.EmploymentTenureYears = ParseTenure(doc.Payslip.Seniority, now)
	}
	off.DocumentsComplete = doc.Payslip != nil && doc.TaxReturn != nil

	return domain.Profiles{
		OffChain:   off,
		OnChain:    EstimatedOnChain(),
		Loyalty:    EstimatedLoyalty(),
		TermMonths: termMonths,
	}
}

// NormalizeWallet validates an EVM address and returns its checksummed
// form. An empty address is allowed and returned as is.
func NormalizeWallet(addr string) (string, error) {
	if addr == "" {
		return "", nil
	}
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWallet, addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}
