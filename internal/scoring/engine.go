package scoring

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/rules"
)

// Engine scores borrower profiles against a Policy.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	policy  Policy
	factors *rules.FactorEngine
}

// NewEngine compiles the policy's factor rules and returns an engine.
func NewEngine(policy Policy) (*Engine, error) {
	if len(policy.Tiers) == 0 {
		return nil, fmt.Errorf("policy %s has no recommendation tiers", policy.Version)
	}

	factors, err := rules.NewFactorEngine(policy.FactorRules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile factor rules: %w", err)
	}

	return &Engine{policy: policy, factors: factors}, nil
}

// MustNewEngine is like NewEngine but panics if the policy does not compile.
func MustNewEngine(policy Policy) *Engine {
	e, err := NewEngine(policy)
	if err != nil {
		panic(err)
	}
	return e
}

// Policy returns the policy the engine scores against.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Score runs the full formula without validating its inputs. Zero or
// negative income propagates as NaN or Inf into the result; it never panics.
// A termMonths of zero selects the policy default.
func (e *Engine) Score(off domain.OffChainProfile, on domain.OnChainProfile, loyalty domain.LoyaltyProfile, termMonths int) domain.ScoringResult {
	p := e.policy
	if termMonths == 0 {
		termMonths = p.DefaultTermMonths
	}

	offB := OffChain(p, off)
	onB := OnChain(p, on)
	loyB := Loyalty(p, loyalty)

	total := p.OffChainWeight*offB.Total + p.OnChainWeight*onB.Total
	share := p.MinIncomeShare + p.IncomeShareRange*(total/100)
	maxPayment := share * off.NetMonthlyIncome
	gross := maxPayment * float64(termMonths)

	// The ceiling applies before and after the loyalty multiplier, so a
	// positive factor never lifts the offer above it.
	capped := math.Min(gross, p.LoanCeiling)
	final := math.Min(capped*(1+loyB.Factor), p.LoanCeiling)

	favorable, unfavorable := e.factors.Evaluate(factorVars(p, off, on, loyalty, offB.DebtRatio))
	tier := rules.SelectTier(total, p.Tiers)

	return domain.ScoringResult{
		TotalScore:              total,
		OffChainScore:           offB.Total,
		OnChainScore:            onB.Total,
		IncomeShareRatio:        share,
		LoyaltyAdjustmentFactor: loyB.Factor,
		GrossLoanAmount:         gross,
		FinalLoanAmount:         final,
		MaxMonthlyPayment:       maxPayment,
		TermMonths:              termMonths,
		DebtRatio:               offB.DebtRatio,
		FavorableFactors:        favorable,
		UnfavorableFactors:      unfavorable,
		Tier:                    tier.Name,
		RecommendationText:      e.recommendation(tier, offB.DebtRatio, gross),
		Components: domain.ScoreComponents{
			Income:          offB.Income,
			Obligations:     offB.Obligations,
			Employment:      offB.Employment,
			Documents:       offB.Documents,
			Transactions:    onB.Transactions,
			WalletAge:       onB.WalletAge,
			TenureBonus:     loyB.TenureBonus,
			RepaymentBonus:  loyB.RepaymentBonus,
			VolumeBonus:     loyB.VolumeBonus,
			LatenessPenalty: loyB.LatenessPenalty,
		},
	}
}

// ScoreStrict validates the inputs and then scores them. The error wraps
// ErrInvalidProfile and lists every rejected field.
func (e *Engine) ScoreStrict(off domain.OffChainProfile, on domain.OnChainProfile, loyalty domain.LoyaltyProfile, termMonths int) (domain.ScoringResult, error) {
	if err := Validate(off, on, loyalty, termMonths); err != nil {
		return domain.ScoringResult{}, err
	}
	return e.Score(off, on, loyalty, termMonths), nil
}

// ScoreProfiles scores a bundled request with ScoreStrict.
func (e *Engine) ScoreProfiles(p domain.Profiles) (domain.ScoringResult, error) {
	return e.ScoreStrict(p.OffChain, p.OnChain, p.Loyalty, p.TermMonths)
}

func (e *Engine) recommendation(tier rules.Tier, debtRatio, gross float64) string {
	text := tier.Text
	if debtRatio >= e.policy.HighDebtWarningRatio {
		text += " Caution: debt-to-income ratio is already high."
	}
	if gross > e.policy.LoanCeiling {
		text += " The amount is capped at the $" + strconv.FormatFloat(e.policy.LoanCeiling, 'f', -1, 64) + " ceiling."
	}
	return text
}

func factorVars(p Policy, off domain.OffChainProfile, on domain.OnChainProfile, loyalty domain.LoyaltyProfile, debtRatio float64) map[string]any {
	return map[string]any{
		rules.VarNetMonthlyIncome:       off.NetMonthlyIncome,
		rules.VarDebtRatio:              debtRatio,
		rules.VarEmploymentTenureYears:  off.EmploymentTenureYears,
		rules.VarDocumentsComplete:      off.DocumentsComplete,
		rules.VarWalletAgeYears:         on.WalletAgeYears,
		rules.VarTransactionCount:       int64(on.TransactionCount),
		rules.VarProtocolTenureYears:    loyalty.ProtocolTenureYears,
		rules.VarTotalLoansCount:        int64(loyalty.TotalLoansCount),
		rules.VarLoansRepaidOnTimeCount: int64(loyalty.LoansRepaidOnTimeCount),
		rules.VarLatePaymentsCount:      int64(loyalty.LatePaymentsCount),
		rules.VarReferenceIncome:        p.ReferenceIncome,
	}
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return MustNewEngine(DefaultPolicy())
})

// Default returns the shared engine built from DefaultPolicy.
func Default() *Engine {
	return defaultEngine()
}

// Score scores with the default engine. See (*Engine).Score.
func Score(off domain.OffChainProfile, on domain.OnChainProfile, loyalty domain.LoyaltyProfile, termMonths int) domain.ScoringResult {
	return Default().Score(off, on, loyalty, termMonths)
}

// ScoreStrict scores with the default engine. See (*Engine).ScoreStrict.
func ScoreStrict(off domain.OffChainProfile, on domain.OnChainProfile, loyalty domain.LoyaltyProfile, termMonths int) (domain.ScoringResult, error) {
	return Default().ScoreStrict(off, on, loyalty, termMonths)
}
