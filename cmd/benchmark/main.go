// Benchmark tool for load testing the lendscore API with applicant profiles.
//
// Usage:
//
//	go run ./cmd/benchmark --csv applicants.csv --url http://localhost:8080
//
// This tool:
//  1. Reads applicant profiles from a CSV file
//  2. Posts each one to POST /score with bounded concurrency
//  3. Reports throughput, latency percentiles and recommendation tiers
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/opensource-finance/lendscore/internal/domain"
)

// Columns of the applicant CSV. Header names are matched case-insensitively;
// missing optional columns read as zero.
const (
	colIncome           = "net_monthly_income"
	colObligations      = "monthly_obligations"
	colEmploymentTenure = "employment_tenure_years"
	colDocuments        = "documents_complete"
	colWalletAge        = "wallet_age_years"
	colTransactions     = "transaction_count"
	colProtocolTenure   = "protocol_tenure_years"
	colTotalLoans       = "total_loans"
	colRepaidOnTime     = "loans_repaid_on_time"
	colLatePayments     = "late_payments"
	colTermMonths       = "term_months"
)

// Results tracks benchmark outcomes.
type Results struct {
	mu sync.Mutex

	Latencies []time.Duration
	Tiers     map[string]int
	Rejected  int
	Errors    int
	Capacity  int64
}

func (r *Results) record(d time.Duration, a *domain.Assessment, status int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Latencies = append(r.Latencies, d)
	switch {
	case err != nil:
		r.Errors++
	case status == http.StatusUnprocessableEntity:
		r.Rejected++
	case a != nil:
		r.Tiers[a.Result.Tier]++
		r.Capacity += a.Analysis.LoanCapacity
	}
}

func main() {
	app := &cli.Command{
		Name:  "benchmark",
		Usage: "Load test POST /score with a CSV of applicant profiles",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Usage: "Path to applicant CSV file", Required: true},
			&cli.StringFlag{Name: "url", Usage: "Lendscore base URL", Value: "http://localhost:8080"},
			&cli.StringFlag{Name: "tenant", Usage: "Tenant ID for requests", Value: "benchmark-test"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum applicants to send (0 = all)", Value: 10000},
			&cli.IntFlag{Name: "workers", Usage: "Number of concurrent requests", Value: 10},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("url")
	tenantID := cmd.String("tenant")
	workers := int(cmd.Int("workers"))

	fmt.Println("LENDSCORE BENCHMARK - applicant scoring")
	fmt.Printf("\nCSV File:    %s\n", cmd.String("csv"))
	fmt.Printf("URL:         %s\n", baseURL)
	fmt.Printf("Tenant ID:   %s\n", tenantID)
	fmt.Printf("Workers:     %d\n", workers)
	fmt.Println()

	client := &http.Client{Timeout: 10 * time.Second}
	if err := checkHealth(ctx, client, baseURL); err != nil {
		return fmt.Errorf("lendscore not reachable at %s: %w", baseURL, err)
	}
	fmt.Println("lendscore is healthy")

	f, err := os.Open(cmd.String("csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	applicants, err := readApplicants(f, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("read CSV: %w", err)
	}
	fmt.Printf("Loaded %d applicants\n", len(applicants))

	fmt.Printf("\nRunning benchmark with %d workers...\n", workers)
	start := time.Now()
	results, err := runBenchmark(ctx, client, baseURL, tenantID, applicants, workers)
	if err != nil {
		return err
	}
	printResults(results, time.Since(start))
	return nil
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// readApplicants parses up to limit rows (0 = all). Malformed rows are
// skipped.
func readApplicants(r io.Reader, limit int) ([]domain.Profiles, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIndex[colIncome]; !ok {
		return nil, fmt.Errorf("missing required column %q", colIncome)
	}

	var applicants []domain.Profiles
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}

		field := func(name string) string {
			if i, ok := colIndex[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		num := func(name string) float64 {
			v, _ := strconv.ParseFloat(field(name), 64)
			return v
		}
		count := func(name string) int {
			v, _ := strconv.Atoi(field(name))
			return v
		}
		docs, _ := strconv.ParseBool(field(colDocuments))

		applicants = append(applicants, domain.Profiles{
			OffChain: domain.OffChainProfile{
				NetMonthlyIncome:      num(colIncome),
				MonthlyObligations:    num(colObligations),
				EmploymentTenureYears: num(colEmploymentTenure),
				DocumentsComplete:     docs,
			},
			OnChain: domain.OnChainProfile{
				WalletAgeYears:   num(colWalletAge),
				TransactionCount: count(colTransactions),
			},
			Loyalty: domain.LoyaltyProfile{
				ProtocolTenureYears:    num(colProtocolTenure),
				TotalLoansCount:        count(colTotalLoans),
				LoansRepaidOnTimeCount: count(colRepaidOnTime),
				LatePaymentsCount:      count(colLatePayments),
			},
			TermMonths: count(colTermMonths),
		})

		if limit > 0 && len(applicants) >= limit {
			break
		}
	}

	return applicants, nil
}

func runBenchmark(ctx context.Context, client *http.Client, baseURL, tenantID string, applicants []domain.Profiles, workers int) (*Results, error) {
	results := &Results{Tiers: make(map[string]int)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, p := range applicants {
		g.Go(func() error {
			start := time.Now()
			a, status, err := score(ctx, client, baseURL, tenantID, p)
			results.record(time.Since(start), a, status, err)
			return nil
		})
	}

	return results, g.Wait()
}

func score(ctx context.Context, client *http.Client, baseURL, tenantID string, p domain.Profiles) (*domain.Assessment, int, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnprocessableEntity:
		return nil, resp.StatusCode, nil
	default:
		return nil, resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}

	var a domain.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, resp.StatusCode, err
	}
	return &a, resp.StatusCode, nil
}

// percentile returns the nearest-rank percentile of sorted latencies.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p/100*float64(len(sorted)) + 0.5)
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}

func printResults(r *Results, duration time.Duration) {
	total := len(r.Latencies)
	scored := total - r.Rejected - r.Errors

	fmt.Println("\nBENCHMARK RESULTS")

	fmt.Printf("\nREQUESTS\n")
	fmt.Printf("   Total Sent:       %d\n", total)
	fmt.Printf("   Scored:           %d\n", scored)
	fmt.Printf("   Rejected (422):   %d\n", r.Rejected)
	fmt.Printf("   Errors:           %d\n", r.Errors)

	fmt.Printf("\nRECOMMENDATION TIERS\n")
	tiers := make([]string, 0, len(r.Tiers))
	for t := range r.Tiers {
		tiers = append(tiers, t)
	}
	sort.Strings(tiers)
	for _, t := range tiers {
		fmt.Printf("   %-14s %d (%.2f%%)\n", t+":", r.Tiers[t], 100*float64(r.Tiers[t])/float64(max(scored, 1)))
	}
	if scored > 0 {
		fmt.Printf("   Avg Capacity:  %.0f\n", float64(r.Capacity)/float64(scored))
	}

	sorted := slices.Clone(r.Latencies)
	slices.Sort(sorted)

	fmt.Printf("\nPERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if total > 0 {
		fmt.Printf("   Throughput:       %.2f req/sec\n", float64(total)/duration.Seconds())
		fmt.Printf("   p50 Latency:      %v\n", percentile(sorted, 50))
		fmt.Printf("   p95 Latency:      %v\n", percentile(sorted, 95))
		fmt.Printf("   p99 Latency:      %v\n", percentile(sorted, 99))
		fmt.Printf("   Max Latency:      %v\n", sorted[len(sorted)-1])
	}
	fmt.Println()
}
