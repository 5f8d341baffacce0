// Package offer turns scored profiles into loan assessments.
// It validates, scores and formats one request into a domain.Assessment.
package offer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/scoring"
)

// ErrNonFiniteResult is returned when valid inputs still overflow the
// formula, for example an income near the float64 limit.
var ErrNonFiniteResult = errors.New("scoring produced a non-finite amount")

// ErrAmountOutOfRange is returned when a finite amount cannot be shown in
// whole currency units.
var ErrAmountOutOfRange = errors.New("scoring produced an amount outside the displayable range")

var tracer = otel.Tracer("lendscore-offer")

// Processor scores requests and builds assessments.
type Processor struct {
	engine *scoring.Engine
}

// NewProcessor creates a processor. A nil engine uses scoring.Default().
func NewProcessor(engine *scoring.Engine) *Processor {
	if engine == nil {
		engine = scoring.Default()
	}
	return &Processor{engine: engine}
}

// Engine returns the scoring engine used by the processor.
func (p *Processor) Engine() *scoring.Engine {
	return p.engine
}

// AssessmentInput contains all data needed for an assessment.
type AssessmentInput struct {
	TenantID      string
	TraceID       string
	WalletAddress string
	Source        string
	Profiles      domain.Profiles
	StartTime     time.Time
}

// Process validates and scores the input. Errors wrap
// scoring.ErrInvalidProfile or ErrNonFiniteResult.
func (p *Processor) Process(ctx context.Context, input *AssessmentInput) (*domain.Assessment, error) {
	_, span := tracer.Start(ctx, "offer.Process",
		trace.WithAttributes(
			attribute.String("tenant.id", input.TenantID),
			attribute.String("assessment.source", input.Source),
		),
	)
	defer span.End()

	start := time.Now()
	received := input.StartTime
	if received.IsZero() {
		received = start
	}

	result, err := p.engine.ScoreProfiles(input.Profiles)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid profile")
		return nil, fmt.Errorf("score profiles: %w", err)
	}
	if err := checkResult(result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	scoreMs := time.Since(start).Milliseconds()

	policy := p.engine.Policy()
	source := input.Source
	if source == "" {
		source = domain.SourceProfiles
	}

	a := &domain.Assessment{
		ID:            uuid.New().String(),
		TenantID:      input.TenantID,
		WalletAddress: input.WalletAddress,
		Timestamp:     time.Now().UTC(),
		Profiles:      input.Profiles,
		Result:        result,
		Analysis:      BuildAnalysis(result, policy.LoanCeiling),
		Metadata: domain.AssessmentMetadata{
			TraceID:       input.TraceID,
			Source:        source,
			ScoreMs:       scoreMs,
			TotalMs:       time.Since(received).Milliseconds(),
			EngineVersion: "lendscore-" + scoring.Version,
			PolicyVersion: policy.Version,
		},
	}

	span.SetAttributes(
		attribute.String("assessment.id", a.ID),
		attribute.String("assessment.tier", result.Tier),
		attribute.Int64("assessment.loan_capacity", a.Analysis.LoanCapacity),
	)

	return a, nil
}

// BuildAnalysis rounds a result for display: whole currency units and
// percentages with two decimals.
func BuildAnalysis(r domain.ScoringResult, ceiling float64) domain.LoanAnalysis {
	return domain.LoanAnalysis{
		LoanCapacity:       roundUnits(r.FinalLoanAmount),
		MaxMonthlyPayment:  roundUnits(r.MaxMonthlyPayment),
		DebtRatio:          round2(r.DebtRatio),
		RecommendedTerm:    TermLabel(r.TermMonths),
		FavorableFactors:   r.FavorableFactors,
		UnfavorableFactors: r.UnfavorableFactors,
		Recommendation:     r.RecommendationText,
		ScoringDetails: domain.ScoringDetails{
			TotalScore:               round2(r.TotalScore),
			OffChainScore:            round2(r.OffChainScore),
			OnChainScore:             round2(r.OnChainScore),
			IncomeSharePercent:       round2(r.IncomeShareRatio * 100),
			LoyaltyAdjustmentPercent: round2(r.LoyaltyAdjustmentFactor * 100),
			CappedAtCeiling:          r.GrossLoanAmount > ceiling,
		},
	}
}

// TermLabel renders a term as "5 years" for whole years and "18 months"
// otherwise.
func TermLabel(months int) string {
	switch {
	case months == 12:
		return "1 year"
	case months > 0 && months%12 == 0:
		return fmt.Sprintf("%d years", months/12)
	case months == 1:
		return "1 month"
	default:
		return fmt.Sprintf("%d months", months)
	}
}

// checkResult rejects results that cannot be encoded as JSON or shown in
// whole currency units.
func checkResult(r domain.ScoringResult) error {
	c := r.Components
	if !finite(
		r.TotalScore, r.OffChainScore, r.OnChainScore,
		r.IncomeShareRatio, r.LoyaltyAdjustmentFactor,
		r.GrossLoanAmount, r.FinalLoanAmount, r.MaxMonthlyPayment, r.DebtRatio,
		c.Income, c.Obligations, c.Employment, c.Documents,
		c.Transactions, c.WalletAge,
		c.TenureBonus, c.RepaymentBonus, c.VolumeBonus, c.LatenessPenalty,
	) {
		return ErrNonFiniteResult
	}
	if !inUnitRange(r.FinalLoanAmount) || !inUnitRange(r.MaxMonthlyPayment) {
		return ErrAmountOutOfRange
	}
	return nil
}

// roundUnits and round2 expect finite input; decimal.NewFromFloat panics
// on NaN and Inf. roundUnits clamps to the int64 range.
func roundUnits(v float64) int64 {
	switch {
	case !finite(v):
		return 0
	case v >= maxUnits:
		return math.MaxInt64
	case v <= -maxUnits:
		return math.MinInt64
	}
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

// maxUnits is 2^63, the first float64 above the int64 range.
const maxUnits = float64(1 << 63)

func inUnitRange(v float64) bool {
	return v > -maxUnits && v < maxUnits
}

func round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
