// Package domain defines the core types and interfaces shared by lendscore components.
package domain

// OffChainProfile is the traditional financial profile of a borrower.
type OffChainProfile struct {
	// Net monthly income after tax, in currency units.
	NetMonthlyIncome float64 `json:"netMonthlyIncome" yaml:"netMonthlyIncome"`

	// Existing monthly debt and rent payments.
	MonthlyObligations float64 `json:"monthlyObligations" yaml:"monthlyObligations"`

	EmploymentTenureYears float64 `json:"employmentTenureYears" yaml:"employmentTenureYears"`
	DocumentsComplete     bool    `json:"documentsComplete" yaml:"documentsComplete"`
}

// OnChainProfile is the blockchain-activity profile of a borrower.
// StablecoinLiquidity and AssetDiversity are carried but not scored.
type OnChainProfile struct {
	WalletAgeYears   float64 `json:"walletAgeYears" yaml:"walletAgeYears"`
	TransactionCount int     `json:"transactionCount" yaml:"transactionCount"`

	StablecoinLiquidity *float64 `json:"stablecoinLiquidity,omitempty" yaml:"stablecoinLiquidity,omitempty"`
	AssetDiversity      *float64 `json:"assetDiversity,omitempty" yaml:"assetDiversity,omitempty"`
}

// LoyaltyProfile is the borrower's history with the lending protocol.
type LoyaltyProfile struct {
	ProtocolTenureYears    float64 `json:"protocolTenureYears" yaml:"protocolTenureYears"`
	TotalLoansCount        int     `json:"totalLoansCount" yaml:"totalLoansCount"`
	LoansRepaidOnTimeCount int     `json:"loansRepaidOnTimeCount" yaml:"loansRepaidOnTimeCount"`
	LatePaymentsCount      int     `json:"latePaymentsCount" yaml:"latePaymentsCount"`
}

// Profiles bundles the three scoring inputs of a single request.
// TermMonths of zero selects the policy default.
type Profiles struct {
	OffChain   OffChainProfile `json:"offChain" yaml:"offChain"`
	OnChain    OnChainProfile  `json:"onChain" yaml:"onChain"`
	Loyalty    LoyaltyProfile  `json:"loyalty" yaml:"loyalty"`
	TermMonths int             `json:"termMonths,omitempty" yaml:"termMonths,omitempty"`
}
