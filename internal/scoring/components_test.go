package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opensource-finance/lendscore/internal/domain"
)

func TestOffChainComponents(t *testing.T) {
	p := DefaultPolicy()

	b := OffChain(p, domain.OffChainProfile{
		NetMonthlyIncome:      5000,
		MonthlyObligations:    1000,
		EmploymentTenureYears: 4,
		DocumentsComplete:     false,
	})

	assert.InDelta(t, 20, b.Income, delta)
	assert.InDelta(t, 0.2, b.DebtRatio, delta)
	assert.InDelta(t, 24, b.Obligations, delta)
	assert.InDelta(t, 8, b.Employment, delta)
	assert.InDelta(t, 0, b.Documents, delta)
	assert.InDelta(t, 52, b.Total, delta)
}

func TestOffChainCaps(t *testing.T) {
	b := OffChain(DefaultPolicy(), domain.OffChainProfile{
		NetMonthlyIncome:      40000,
		MonthlyObligations:    0,
		EmploymentTenureYears: 25,
		DocumentsComplete:     true,
	})
	assert.InDelta(t, 100, b.Total, delta)

	b = OffChain(DefaultPolicy(), domain.OffChainProfile{NetMonthlyIncome: 1000, MonthlyObligations: 5000})
	assert.InDelta(t, 0, b.Obligations, delta)
}

func TestOnChainComponents(t *testing.T) {
	p := DefaultPolicy()
	liquidity := 2500.0

	b := OnChain(p, domain.OnChainProfile{WalletAgeYears: 1.5, TransactionCount: 250, StablecoinLiquidity: &liquidity})
	assert.InDelta(t, 12.5, b.Transactions, delta)
	assert.InDelta(t, 25, b.WalletAge, delta)
	assert.InDelta(t, 37.5, b.Total, delta)

	b = OnChain(p, domain.OnChainProfile{WalletAgeYears: 9, TransactionCount: 4000})
	assert.InDelta(t, 100, b.Total, delta)
}

func TestLoyaltyRepaymentBonus(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		total  int
		repaid int
		want   float64
	}{
		{"no loans", 0, 0, 0},
		{"all repaid", 3, 3, 0.05},
		{"one shortfall", 3, 2, 0},
		{"single loan repaid", 1, 1, 0.05},
		{"repaid above total", 2, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Loyalty(p, domain.LoyaltyProfile{TotalLoansCount: tt.total, LoansRepaidOnTimeCount: tt.repaid})
			assert.InDelta(t, tt.want, b.RepaymentBonus, delta)
		})
	}
}

func TestLoyaltyFactor(t *testing.T) {
	p := DefaultPolicy()

	b := Loyalty(p, domain.LoyaltyProfile{
		ProtocolTenureYears:    2,
		TotalLoansCount:        4,
		LoansRepaidOnTimeCount: 3,
		LatePaymentsCount:      1,
	})
	assert.InDelta(t, 0.02, b.TenureBonus, delta)
	assert.InDelta(t, 0, b.RepaymentBonus, delta)
	assert.InDelta(t, 0.05, b.VolumeBonus, delta)
	assert.InDelta(t, 0.05, b.LatenessPenalty, delta)
	assert.InDelta(t, 0.02, b.Factor, delta)

	b = Loyalty(p, domain.LoyaltyProfile{ProtocolTenureYears: 12})
	assert.InDelta(t, 0.05, b.TenureBonus, delta)
}
