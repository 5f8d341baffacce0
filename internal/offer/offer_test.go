package offer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/scoring"
)

func maxProfiles() domain.Profiles {
	return domain.Profiles{
		OffChain: domain.OffChainProfile{
			NetMonthlyIncome:      10000,
			EmploymentTenureYears: 10,
			DocumentsComplete:     true,
		},
		OnChain: domain.OnChainProfile{WalletAgeYears: 3, TransactionCount: 1000},
		Loyalty: domain.LoyaltyProfile{ProtocolTenureYears: 5, TotalLoansCount: 3, LoansRepaidOnTimeCount: 3},
	}
}

func TestProcessor(t *testing.T) {
	proc := NewProcessor(nil)
	ctx := context.Background()

	t.Run("MaximalProfile", func(t *testing.T) {
		input := &AssessmentInput{
			TenantID:  "tenant-001",
			TraceID:   "trace-001",
			Profiles:  maxProfiles(),
			StartTime: time.Now(),
		}

		a, err := proc.Process(ctx, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a.ID == "" {
			t.Error("expected assessment ID")
		}
		if a.TenantID != "tenant-001" {
			t.Errorf("expected tenantID 'tenant-001', got '%s'", a.TenantID)
		}
		if a.Metadata.TraceID != "trace-001" {
			t.Errorf("expected traceID 'trace-001', got '%s'", a.Metadata.TraceID)
		}
		if a.Metadata.Source != domain.SourceProfiles {
			t.Errorf("expected default source, got %s", a.Metadata.Source)
		}
		if a.Metadata.PolicyVersion != scoring.DefaultPolicy().Version {
			t.Errorf("unexpected policy version %s", a.Metadata.PolicyVersion)
		}
		if a.Analysis.LoanCapacity != 100000 {
			t.Errorf("expected capacity 100000, got %d", a.Analysis.LoanCapacity)
		}
		if a.Analysis.MaxMonthlyPayment != 2500 {
			t.Errorf("expected monthly payment 2500, got %d", a.Analysis.MaxMonthlyPayment)
		}
		if a.Analysis.RecommendedTerm != "5 years" {
			t.Errorf("expected '5 years', got %s", a.Analysis.RecommendedTerm)
		}
		if !a.Analysis.ScoringDetails.CappedAtCeiling {
			t.Error("expected capped flag")
		}
		if a.Analysis.ScoringDetails.IncomeSharePercent != 25 {
			t.Errorf("expected 25%% income share, got %v", a.Analysis.ScoringDetails.IncomeSharePercent)
		}
		if a.Analysis.ScoringDetails.LoyaltyAdjustmentPercent != 15 {
			t.Errorf("expected 15%% loyalty adjustment, got %v", a.Analysis.ScoringDetails.LoyaltyAdjustmentPercent)
		}
	})

	t.Run("InvalidProfile", func(t *testing.T) {
		input := &AssessmentInput{TenantID: "tenant-001", Profiles: domain.Profiles{}}

		a, err := proc.Process(ctx, input)
		if a != nil {
			t.Error("expected no assessment")
		}
		if !errors.Is(err, scoring.ErrInvalidProfile) {
			t.Errorf("expected ErrInvalidProfile, got %v", err)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		p := maxProfiles()
		p.OffChain.NetMonthlyIncome = math.MaxFloat64
		p.TermMonths = 600

		_, err := proc.Process(ctx, &AssessmentInput{TenantID: "tenant-001", Profiles: p})
		if !errors.Is(err, ErrNonFiniteResult) {
			t.Errorf("expected ErrNonFiniteResult, got %v", err)
		}
	})

	t.Run("InfiniteDebtRatio", func(t *testing.T) {
		p := maxProfiles()
		p.OffChain.NetMonthlyIncome = 1e-300
		p.OffChain.MonthlyObligations = 1e10

		a, err := proc.Process(ctx, &AssessmentInput{TenantID: "tenant-001", Profiles: p})
		if a != nil {
			t.Error("expected no assessment")
		}
		if !errors.Is(err, ErrNonFiniteResult) {
			t.Errorf("expected ErrNonFiniteResult, got %v", err)
		}
	})

	t.Run("PaymentBeyondDisplayRange", func(t *testing.T) {
		p := maxProfiles()
		p.OffChain.NetMonthlyIncome = 1e300

		_, err := proc.Process(ctx, &AssessmentInput{TenantID: "tenant-001", Profiles: p})
		if !errors.Is(err, ErrAmountOutOfRange) {
			t.Errorf("expected ErrAmountOutOfRange, got %v", err)
		}
	})

	t.Run("LeavesInputUntouched", func(t *testing.T) {
		input := &AssessmentInput{TenantID: "tenant-001", Profiles: maxProfiles()}

		a, err := proc.Process(ctx, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !input.StartTime.IsZero() {
			t.Errorf("expected StartTime to stay zero, got %v", input.StartTime)
		}
		if a.Metadata.TotalMs < 0 {
			t.Errorf("unexpected total time %d", a.Metadata.TotalMs)
		}
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		a1, _ := proc.Process(ctx, &AssessmentInput{TenantID: "t", Profiles: maxProfiles()})
		a2, _ := proc.Process(ctx, &AssessmentInput{TenantID: "t", Profiles: maxProfiles()})
		if a1.ID == a2.ID {
			t.Error("expected distinct assessment IDs")
		}
	})
}

func TestBuildAnalysisRounding(t *testing.T) {
	r := domain.ScoringResult{
		TotalScore:              57.6049,
		OffChainScore:           64.005,
		IncomeShareRatio:        0.207604,
		LoyaltyAdjustmentFactor: -0.0333,
		GrossLoanAmount:         62280.4,
		FinalLoanAmount:         60206.5,
		MaxMonthlyPayment:       1038.49,
		TermMonths:              60,
		DebtRatio:               1.0 / 3,
	}

	a := BuildAnalysis(r, 100000)

	if a.LoanCapacity != 60207 {
		t.Errorf("expected 60207, got %d", a.LoanCapacity)
	}
	if a.MaxMonthlyPayment != 1038 {
		t.Errorf("expected 1038, got %d", a.MaxMonthlyPayment)
	}
	if a.DebtRatio != 0.33 {
		t.Errorf("expected 0.33, got %v", a.DebtRatio)
	}
	if a.ScoringDetails.TotalScore != 57.6 {
		t.Errorf("expected 57.6, got %v", a.ScoringDetails.TotalScore)
	}
	if a.ScoringDetails.IncomeSharePercent != 20.76 {
		t.Errorf("expected 20.76, got %v", a.ScoringDetails.IncomeSharePercent)
	}
	if a.ScoringDetails.LoyaltyAdjustmentPercent != -3.33 {
		t.Errorf("expected -3.33, got %v", a.ScoringDetails.LoyaltyAdjustmentPercent)
	}
	if a.ScoringDetails.CappedAtCeiling {
		t.Error("did not expect capped flag")
	}
}

func TestBuildAnalysisNonFinite(t *testing.T) {
	r := domain.ScoringResult{FinalLoanAmount: math.NaN(), DebtRatio: math.Inf(1)}

	a := BuildAnalysis(r, 100000)

	if a.LoanCapacity != 0 {
		t.Errorf("expected 0 for NaN capacity, got %d", a.LoanCapacity)
	}
	if !math.IsInf(a.DebtRatio, 1) {
		t.Errorf("expected Inf debt ratio to pass through, got %v", a.DebtRatio)
	}
}

func TestRoundUnitsClamps(t *testing.T) {
	tests := map[float64]int64{
		1e300:  math.MaxInt64,
		-1e300: math.MinInt64,
		1e18:   1000000000000000000,
		2.5:    3,
	}
	for in, want := range tests {
		if got := roundUnits(in); got != want {
			t.Errorf("roundUnits(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestTermLabel(t *testing.T) {
	tests := map[int]string{
		60: "5 years",
		12: "1 year",
		24: "2 years",
		18: "18 months",
		1:  "1 month",
		0:  "0 months",
	}
	for months, want := range tests {
		if got := TermLabel(months); got != want {
			t.Errorf("TermLabel(%d) = %q, want %q", months, got, want)
		}
	}
}
