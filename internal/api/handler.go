package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/intake"
	"github.com/opensource-finance/lendscore/internal/metrics"
	"github.com/opensource-finance/lendscore/internal/offer"
	"github.com/opensource-finance/lendscore/internal/scoring"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler holds dependencies for API handlers.
type Handler struct {
	cache     domain.Cache
	bus       domain.EventBus
	processor *offer.Processor
	metrics   *metrics.Metrics
	ttl       time.Duration
	version   string
	now       func() time.Time
}

// Deps are the collaborators of the API. Only Processor is required.
type Deps struct {
	Cache         domain.Cache
	Bus           domain.EventBus
	Processor     *offer.Processor
	Metrics       *metrics.Metrics
	AssessmentTTL time.Duration
	Version       string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	if deps.Processor == nil {
		deps.Processor = offer.NewProcessor(nil)
	}
	if deps.AssessmentTTL <= 0 {
		deps.AssessmentTTL = 15 * time.Minute
	}
	return &Handler{
		cache:     deps.Cache,
		bus:       deps.Bus,
		processor: deps.Processor,
		metrics:   deps.Metrics,
		ttl:       deps.AssessmentTTL,
		version:   deps.Version,
		now:       time.Now,
	}
}

// ScoreRequest is the request body for POST /score.
type ScoreRequest struct {
	domain.Profiles
	WalletAddress string `json:"walletAddress,omitempty"`
}

// AssessRequest is the request body for POST /assess.
type AssessRequest struct {
	Documents     intake.DocumentData `json:"documents"`
	WalletAddress string              `json:"walletAddress,omitempty"`
	TermMonths    int                 `json:"termMonths,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string                         `json:"error"`
	Fields []*scoring.InvalidProfileError `json:"fields,omitempty"`
}

// Score handles POST /score requests.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	wallet, err := intake.NormalizeWallet(req.WalletAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.assess(w, r, &offer.AssessmentInput{
		WalletAddress: wallet,
		Source:        domain.SourceProfiles,
		Profiles:      req.Profiles,
		StartTime:     start,
	})
}

// Assess handles POST /assess requests: extracted documents are mapped to
// profiles with estimated on-chain and loyalty data, then scored.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AssessRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if req.Documents.Payslip == nil && req.Documents.TaxReturn == nil {
		writeError(w, http.StatusBadRequest, "documents.payslip or documents.taxReturn is required")
		return
	}

	wallet, err := intake.NormalizeWallet(req.WalletAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.assess(w, r, &offer.AssessmentInput{
		WalletAddress: wallet,
		Source:        domain.SourceDocuments,
		Profiles:      intake.ToProfiles(req.Documents, req.TermMonths, h.now()),
		StartTime:     start,
	})
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request, input *offer.AssessmentInput) {
	ctx := r.Context()
	input.TenantID = GetTenantID(ctx)
	input.TraceID = GetTraceID(ctx)

	a, err := h.processor.Process(ctx, input)
	switch {
	case errors.Is(err, scoring.ErrInvalidProfile):
		if h.metrics != nil {
			h.metrics.ObserveRejection(input.Source)
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "invalid profile",
			Fields: scoring.FieldErrors(err),
		})
		return
	case errors.Is(err, offer.ErrNonFiniteResult), errors.Is(err, offer.ErrAmountOutOfRange):
		if h.metrics != nil {
			h.metrics.ObserveRejection(input.Source)
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.Error("assessment failed", "trace_id", input.TraceID, "error", err)
		writeError(w, http.StatusInternalServerError, "assessment failed")
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveAssessment(a)
	}
	h.store(r, a)

	writeJSON(w, http.StatusOK, a)
}

// store caches and publishes a completed assessment. Failures are logged;
// the response does not depend on them.
func (h *Handler) store(r *http.Request, a *domain.Assessment) {
	ctx := r.Context()

	if h.cache != nil {
		if err := h.cache.SetAssessment(ctx, a.TenantID, a, h.ttl); err != nil {
			slog.Error("failed to cache assessment",
				"assessment_id", a.ID,
				"error", err,
			)
		}
	}

	if h.bus != nil {
		payload, err := json.Marshal(a)
		if err == nil {
			err = h.bus.Publish(ctx, a.TenantID, domain.TopicAssessmentCompleted, payload)
		}
		if err != nil {
			slog.Error("failed to publish assessment",
				"assessment_id", a.ID,
				"error", err,
			)
		}
	}
}

// GetAssessment retrieves a recently computed assessment by ID.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	id := chi.URLParam(r, "id")

	if id == "" {
		writeError(w, http.StatusBadRequest, "assessment ID is required")
		return
	}
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "assessment cache not configured")
		return
	}

	a, err := h.cache.GetAssessment(ctx, tenantID, id)
	if err != nil {
		slog.Error("failed to load assessment", "assessment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load assessment")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Policy returns the scoring constants, factor rules and tiers in use.
func (h *Handler) Policy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.processor.Engine().Policy())
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeJSON encodes before writing the status so an encoding failure
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
