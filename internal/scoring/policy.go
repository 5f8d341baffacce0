// Package scoring implements the hybrid credit scoring engine.
//
// The engine blends an off-chain financial score with an on-chain activity
// score, turns the blend into a monthly repayment capacity, caps the
// resulting principal and applies a protocol loyalty adjustment. It performs
// no I/O and keeps no state between calls.
package scoring

import "github.com/opensource-finance/lendscore/internal/rules"

// Version identifies the scoring formula implementation.
const Version = "1.0.0"

// Policy is the fixed constant table the formula is evaluated against.
// DefaultPolicy returns the published values; tests may score against a
// modified copy without touching the formula.
type Policy struct {
	Version string `json:"version" yaml:"version"`

	// Off-chain
	ReferenceIncome   float64 `json:"referenceIncome" yaml:"referenceIncome"`
	TenureCapYears    float64 `json:"tenureCapYears" yaml:"tenureCapYears"`
	IncomeWeight      float64 `json:"incomeWeight" yaml:"incomeWeight"`
	ObligationsWeight float64 `json:"obligationsWeight" yaml:"obligationsWeight"`
	EmploymentWeight  float64 `json:"employmentWeight" yaml:"employmentWeight"`
	DocumentsWeight   float64 `json:"documentsWeight" yaml:"documentsWeight"`

	// On-chain
	TxCountCap        float64 `json:"txCountCap" yaml:"txCountCap"`
	WalletAgeCapYears float64 `json:"walletAgeCapYears" yaml:"walletAgeCapYears"`
	TransactionWeight float64 `json:"transactionWeight" yaml:"transactionWeight"`
	WalletAgeWeight   float64 `json:"walletAgeWeight" yaml:"walletAgeWeight"`

	// Blend and offer
	OffChainWeight    float64 `json:"offChainWeight" yaml:"offChainWeight"`
	OnChainWeight     float64 `json:"onChainWeight" yaml:"onChainWeight"`
	MinIncomeShare    float64 `json:"minIncomeShare" yaml:"minIncomeShare"`
	IncomeShareRange  float64 `json:"incomeShareRange" yaml:"incomeShareRange"`
	DefaultTermMonths int     `json:"defaultTermMonths" yaml:"defaultTermMonths"`
	LoanCeiling       float64 `json:"loanCeiling" yaml:"loanCeiling"`

	// Loyalty
	TenureBonusPerYear    float64 `json:"tenureBonusPerYear" yaml:"tenureBonusPerYear"`
	TenureBonusCap        float64 `json:"tenureBonusCap" yaml:"tenureBonusCap"`
	PerfectRepaymentBonus float64 `json:"perfectRepaymentBonus" yaml:"perfectRepaymentBonus"`
	VolumeBonus           float64 `json:"volumeBonus" yaml:"volumeBonus"`
	VolumeBonusMinLoans   int     `json:"volumeBonusMinLoans" yaml:"volumeBonusMinLoans"`
	LatePaymentPenalty    float64 `json:"latePaymentPenalty" yaml:"latePaymentPenalty"`

	// Debt ratio at which the recommendation carries a caution.
	HighDebtWarningRatio float64 `json:"highDebtWarningRatio" yaml:"highDebtWarningRatio"`

	FactorRules []rules.FactorRule `json:"factorRules" yaml:"factorRules"`
	Tiers       []rules.Tier       `json:"tiers" yaml:"tiers"`
}

// DefaultPolicy returns the published scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Version: "2024-01",

		ReferenceIncome:   10000,
		TenureCapYears:    10,
		IncomeWeight:      40,
		ObligationsWeight: 30,
		EmploymentWeight:  20,
		DocumentsWeight:   10,

		TxCountCap:        1000,
		WalletAgeCapYears: 3,
		TransactionWeight: 50,
		WalletAgeWeight:   50,

		OffChainWeight:    0.9,
		OnChainWeight:     0.1,
		MinIncomeShare:    0.15,
		IncomeShareRange:  0.10,
		DefaultTermMonths: 60,
		LoanCeiling:       100000,

		TenureBonusPerYear:    0.01,
		TenureBonusCap:        0.05,
		PerfectRepaymentBonus: 0.05,
		VolumeBonus:           0.05,
		VolumeBonusMinLoans:   3,
		LatePaymentPenalty:    0.05,

		HighDebtWarningRatio: 0.4,

		FactorRules: rules.DefaultFactorRules(),
		Tiers:       rules.DefaultTiers(),
	}
}
