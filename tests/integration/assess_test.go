//go:build integration

// Package integration provides end-to-end tests against a running lendscore
// server.
//
// They exercise the full request path:
//
//	profiles → validation → score → offer → cache → GET /assessments/{id}
//
// Run with: LENDSCORE_TEST_URL=http://localhost:8080 go test -tags=integration -v ./tests/integration/...
//
// Reference applicants:
//
// | Applicant | Income | Obligations | Expected capacity | Tier         |
// |-----------|--------|-------------|-------------------|--------------|
// | strong    | 10000  | 0           | 100000 (ceiling)  | strong       |
// | typical   | 3000   | 1000        | 40851             | satisfactory |
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

type testConfig struct {
	BaseURL  string
	TenantID string
}

func getTestConfig() testConfig {
	baseURL := os.Getenv("LENDSCORE_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return testConfig{
		BaseURL:  baseURL,
		TenantID: "test-tenant",
	}
}

// The wire types are declared here so the tests pin the JSON contract
// rather than the server's Go types.

type profiles struct {
	OffChain   map[string]any `json:"offChain"`
	OnChain    map[string]any `json:"onChain"`
	Loyalty    map[string]any `json:"loyalty"`
	TermMonths int            `json:"termMonths,omitempty"`
}

type assessment struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Result   struct {
		TotalScore         float64  `json:"totalScore"`
		FinalLoanAmount    float64  `json:"finalLoanAmount"`
		Tier               string   `json:"tier"`
		FavorableFactors   []string `json:"favorableFactors"`
		UnfavorableFactors []string `json:"unfavorableFactors"`
		RecommendationText string   `json:"recommendationText"`
	} `json:"result"`
	Analysis struct {
		LoanCapacity    int64  `json:"loanCapacity"`
		RecommendedTerm string `json:"recommendedTerm"`
	} `json:"analysis"`
	Metadata struct {
		TraceID       string `json:"traceId"`
		EngineVersion string `json:"engineVersion"`
	} `json:"metadata"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Fields []struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	} `json:"fields"`
}

func typical() profiles {
	return profiles{
		OffChain: map[string]any{"netMonthlyIncome": 3000, "monthlyObligations": 1000, "employmentTenureYears": 5, "documentsComplete": true},
		OnChain:  map[string]any{"walletAgeYears": 2, "transactionCount": 500},
		Loyalty:  map[string]any{"protocolTenureYears": 2, "totalLoansCount": 4, "loansRepaidOnTimeCount": 4},
	}
}

func strong() profiles {
	return profiles{
		OffChain: map[string]any{"netMonthlyIncome": 10000, "employmentTenureYears": 10, "documentsComplete": true},
		OnChain:  map[string]any{"walletAgeYears": 3, "transactionCount": 1000},
		Loyalty:  map[string]any{"protocolTenureYears": 5, "totalLoansCount": 3, "loansRepaidOnTimeCount": 3},
	}
}

func send(t *testing.T, cfg testConfig, method, path string, body any, tenant string) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, cfg.BaseURL+path, rdr)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed (is lendscore running at %s?): %v", cfg.BaseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func score(t *testing.T, cfg testConfig, p profiles) assessment {
	t.Helper()

	resp, body := send(t, cfg, http.MethodPost, "/score", p, cfg.TenantID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var a assessment
	if err := json.Unmarshal(body, &a); err != nil {
		t.Fatalf("decode assessment: %v", err)
	}
	return a
}

func TestStrongApplicant_CappedAtCeiling(t *testing.T) {
	a := score(t, getTestConfig(), strong())

	if a.Analysis.LoanCapacity != 100000 {
		t.Errorf("expected capacity 100000, got %d", a.Analysis.LoanCapacity)
	}
	if a.Result.Tier != "strong" {
		t.Errorf("expected strong tier, got %s", a.Result.Tier)
	}
	if len(a.Result.UnfavorableFactors) != 0 {
		t.Errorf("expected no unfavorable factors, got %v", a.Result.UnfavorableFactors)
	}
}

func TestTypicalApplicant(t *testing.T) {
	a := score(t, getTestConfig(), typical())

	if a.Analysis.LoanCapacity != 40851 {
		t.Errorf("expected capacity 40851, got %d", a.Analysis.LoanCapacity)
	}
	if a.Analysis.RecommendedTerm != "5 years" {
		t.Errorf("expected default 5 year term, got %s", a.Analysis.RecommendedTerm)
	}
	if a.Metadata.TraceID == "" || a.Metadata.EngineVersion == "" {
		t.Errorf("expected metadata, got %+v", a.Metadata)
	}
}

func TestCustomTerm(t *testing.T) {
	p := typical()
	p.TermMonths = 24

	a := score(t, getTestConfig(), p)
	if a.Analysis.RecommendedTerm != "2 years" {
		t.Errorf("expected '2 years', got %s", a.Analysis.RecommendedTerm)
	}
}

func TestInvalidProfile_Unprocessable(t *testing.T) {
	cfg := getTestConfig()
	p := typical()
	p.OffChain["netMonthlyIncome"] = 0

	resp, body := send(t, cfg, http.MethodPost, "/score", p, cfg.TenantID)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}

	var e errorResponse
	_ = json.Unmarshal(body, &e)
	if len(e.Fields) != 1 || e.Fields[0].Field != "offChain.netMonthlyIncome" {
		t.Errorf("unexpected field errors %+v", e.Fields)
	}
}

func TestMissingTenantHeader_Error(t *testing.T) {
	resp, _ := send(t, getTestConfig(), http.MethodPost, "/score", typical(), "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAssessmentRetrieval(t *testing.T) {
	cfg := getTestConfig()
	a := score(t, cfg, typical())

	resp, body := send(t, cfg, http.MethodGet, "/assessments/"+a.ID, nil, cfg.TenantID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	resp, _ = send(t, cfg, http.MethodGet, "/assessments/"+a.ID, nil, "another-tenant")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 across tenants, got %d", resp.StatusCode)
	}
}

func TestAssessFromDocuments(t *testing.T) {
	cfg := getTestConfig()
	body := map[string]any{
		"documents": map[string]any{
			"payslip":   map[string]any{"netSalary": 2800, "employeeContributions": 700, "seniority": "3 years"},
			"taxReturn": map[string]any{"annualIncome": 35000},
		},
		"walletAddress": "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
	}

	resp, data := send(t, cfg, http.MethodPost, "/assess", body, cfg.TenantID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
}

func TestPolicy(t *testing.T) {
	cfg := getTestConfig()
	resp, body := send(t, cfg, http.MethodGet, "/policy", nil, cfg.TenantID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
}
