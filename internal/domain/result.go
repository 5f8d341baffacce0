package domain

import "time"

// ScoringResult is the full output of one scoring run.
// Every field is derived from the inputs; nothing else is read.
type ScoringResult struct {
	TotalScore    float64 `json:"totalScore" yaml:"totalScore"`
	OffChainScore float64 `json:"offChainScore" yaml:"offChainScore"`
	OnChainScore  float64 `json:"onChainScore" yaml:"onChainScore"`

	// Fraction of income usable for repayment (0.15-0.25).
	IncomeShareRatio float64 `json:"incomeShareRatio" yaml:"incomeShareRatio"`

	// Signed loyalty multiplier, may be negative.
	LoyaltyAdjustmentFactor float64 `json:"loyaltyAdjustmentFactor" yaml:"loyaltyAdjustmentFactor"`

	GrossLoanAmount   float64 `json:"grossLoanAmount" yaml:"grossLoanAmount"`
	FinalLoanAmount   float64 `json:"finalLoanAmount" yaml:"finalLoanAmount"`
	MaxMonthlyPayment float64 `json:"maxMonthlyPayment" yaml:"maxMonthlyPayment"`
	TermMonths        int     `json:"termMonths" yaml:"termMonths"`

	// Obligations divided by income.
	DebtRatio float64 `json:"debtRatio" yaml:"debtRatio"`

	FavorableFactors   []string `json:"favorableFactors" yaml:"favorableFactors"`
	UnfavorableFactors []string `json:"unfavorableFactors" yaml:"unfavorableFactors"`

	Tier               string `json:"tier" yaml:"tier"`
	RecommendationText string `json:"recommendationText" yaml:"recommendationText"`

	Components ScoreComponents `json:"components" yaml:"components"`
}

// ScoreComponents exposes the weighted parts behind each sub-score.
type ScoreComponents struct {
	Income      float64 `json:"income" yaml:"income"`
	Obligations float64 `json:"obligations" yaml:"obligations"`
	Employment  float64 `json:"employment" yaml:"employment"`
	Documents   float64 `json:"documents" yaml:"documents"`

	Transactions float64 `json:"transactions" yaml:"transactions"`
	WalletAge    float64 `json:"walletAge" yaml:"walletAge"`

	TenureBonus     float64 `json:"tenureBonus" yaml:"tenureBonus"`
	RepaymentBonus  float64 `json:"repaymentBonus" yaml:"repaymentBonus"`
	VolumeBonus     float64 `json:"volumeBonus" yaml:"volumeBonus"`
	LatenessPenalty float64 `json:"latenessPenalty" yaml:"latenessPenalty"`
}

// LoanAnalysis is the display form of a ScoringResult.
// Currency is rounded to whole units, percentages are fraction*100 at 2 dp.
type LoanAnalysis struct {
	LoanCapacity       int64          `json:"loanCapacity"`
	MaxMonthlyPayment  int64          `json:"maxMonthlyPayment"`
	DebtRatio          float64        `json:"debtRatio"`
	RecommendedTerm    string         `json:"recommendedTerm"`
	FavorableFactors   []string       `json:"favorableFactors"`
	UnfavorableFactors []string       `json:"unfavorableFactors"`
	Recommendation     string         `json:"recommendation"`
	ScoringDetails     ScoringDetails `json:"scoringDetails"`
}

// ScoringDetails holds the rounded scores shown next to an offer.
type ScoringDetails struct {
	TotalScore               float64 `json:"totalScore"`
	OffChainScore            float64 `json:"offChainScore"`
	OnChainScore             float64 `json:"onChainScore"`
	IncomeSharePercent       float64 `json:"incomeSharePercent"`
	LoyaltyAdjustmentPercent float64 `json:"loyaltyAdjustmentPercent"`
	CappedAtCeiling          bool    `json:"cappedAtCeiling"`
}

// Assessment is one scored request as returned by the API and the worker.
type Assessment struct {
	ID            string             `json:"id"`
	TenantID      string             `json:"tenantId"`
	WalletAddress string             `json:"walletAddress,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	Profiles      Profiles           `json:"profiles"`
	Result        ScoringResult      `json:"result"`
	Analysis      LoanAnalysis       `json:"analysis"`
	Metadata      AssessmentMetadata `json:"metadata"`
}

// AssessmentMetadata contains processing information.
type AssessmentMetadata struct {
	TraceID       string `json:"traceId"`
	Source        string `json:"source"`
	ScoreMs       int64  `json:"scoreMs"`
	TotalMs       int64  `json:"totalMs"`
	EngineVersion string `json:"engineVersion"`
	PolicyVersion string `json:"policyVersion"`
}

// Assessment sources.
const (
	SourceProfiles  = "profiles"
	SourceDocuments = "documents"
	SourceEvent     = "event"
)
