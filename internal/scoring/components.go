package scoring

import (
	"math"

	"github.com/opensource-finance/lendscore/internal/domain"
)

// OffChainBreakdown is the off-chain score and its weighted parts.
type OffChainBreakdown struct {
	Income      float64
	Obligations float64
	Employment  float64
	Documents   float64

	// Obligations divided by income. Infinite or NaN when income is zero.
	DebtRatio float64

	Total float64
}

// OnChainBreakdown is the on-chain score and its weighted parts.
type OnChainBreakdown struct {
	Transactions float64
	WalletAge    float64
	Total        float64
}

// LoyaltyBreakdown is the loyalty adjustment factor and its parts.
type LoyaltyBreakdown struct {
	TenureBonus     float64
	RepaymentBonus  float64
	VolumeBonus     float64
	LatenessPenalty float64

	// TenureBonus + RepaymentBonus + VolumeBonus - LatenessPenalty.
	// The penalty has no floor so the factor can be negative.
	Factor float64
}

// OffChain scores the traditional financial profile.
func OffChain(p Policy, profile domain.OffChainProfile) OffChainBreakdown {
	b := OffChainBreakdown{
		DebtRatio: profile.MonthlyObligations / profile.NetMonthlyIncome,
	}

	b.Income = p.IncomeWeight * math.Min(profile.NetMonthlyIncome/p.ReferenceIncome, 1)
	b.Obligations = p.ObligationsWeight * math.Max(1-b.DebtRatio, 0)
	b.Employment = p.EmploymentWeight * math.Min(profile.EmploymentTenureYears/p.TenureCapYears, 1)
	if profile.DocumentsComplete {
		b.Documents = p.DocumentsWeight
	}

	b.Total = b.Income + b.Obligations + b.Employment + b.Documents
	return b
}

// OnChain scores the blockchain activity profile.
// StablecoinLiquidity and AssetDiversity are not read.
func OnChain(p Policy, profile domain.OnChainProfile) OnChainBreakdown {
	b := OnChainBreakdown{
		Transactions: p.TransactionWeight * math.Min(float64(profile.TransactionCount)/p.TxCountCap, 1),
		WalletAge:    p.WalletAgeWeight * math.Min(profile.WalletAgeYears/p.WalletAgeCapYears, 1),
	}
	b.Total = b.Transactions + b.WalletAge
	return b
}

// Loyalty computes the signed loyalty adjustment factor.
func Loyalty(p Policy, profile domain.LoyaltyProfile) LoyaltyBreakdown {
	b := LoyaltyBreakdown{
		TenureBonus:     math.Min(profile.ProtocolTenureYears*p.TenureBonusPerYear, p.TenureBonusCap),
		LatenessPenalty: float64(profile.LatePaymentsCount) * p.LatePaymentPenalty,
	}

	// Exact equality: a single late loan forfeits the whole bonus.
	if profile.TotalLoansCount > 0 && profile.LoansRepaidOnTimeCount == profile.TotalLoansCount {
		b.RepaymentBonus = p.PerfectRepaymentBonus
	}
	if profile.TotalLoansCount >= p.VolumeBonusMinLoans {
		b.VolumeBonus = p.VolumeBonus
	}

	b.Factor = b.TenureBonus + b.RepaymentBonus + b.VolumeBonus - b.LatenessPenalty
	return b
}
