package intake

import (
	"errors"
	"math"
	"testing"
	"time"
)

var refNow = time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC)

func TestParseTenure(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"3 years", 3},
		{"1 year", 1},
		{"3 years 6 months", 3.5},
		{"8 months", 8.0 / 12},
		{"1 month", 1.0 / 12},
		{"3 ans", 3},
		{"2 ans 3 mois", 2.25},
		{"6 mois", 0.5},
		{"  5 Years  ", 5},
		{"since forever", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTenure(tt.in, refNow)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseTenure(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTenureDate(t *testing.T) {
	got := ParseTenure("22/01/2022", refNow)
	if math.Abs(got-3) > 0.01 {
		t.Errorf("expected about 3 years, got %v", got)
	}

	// A start date in the future clamps to zero.
	if got := ParseTenure("01/06/2030", refNow); got != 0 {
		t.Errorf("expected 0 for future date, got %v", got)
	}
}

func TestToProfiles(t *testing.T) {
	doc := DocumentData{
		Payslip: &Payslip{
			GrossSalary:           3500,
			NetSalary:             2800,
			EmployeeContributions: 700,
			ContractType:          "permanent",
			Seniority:             "3 years",
		},
		TaxReturn: &TaxReturn{AnnualIncome: 35000},
	}

	p := ToProfiles(doc, 0, refNow)

	if p.OffChain.NetMonthlyIncome != 2800 {
		t.Errorf("expected income 2800, got %v", p.OffChain.NetMonthlyIncome)
	}
	if p.OffChain.MonthlyObligations != 700 {
		t.Errorf("expected obligations 700, got %v", p.OffChain.MonthlyObligations)
	}
	if p.OffChain.EmploymentTenureYears != 3 {
		t.Errorf("expected tenure 3, got %v", p.OffChain.EmploymentTenureYears)
	}
	if !p.OffChain.DocumentsComplete {
		t.Error("expected documents complete with both documents")
	}
	if p.OnChain != EstimatedOnChain() {
		t.Errorf("unexpected on-chain estimate: %+v", p.OnChain)
	}
	if p.Loyalty != EstimatedLoyalty() {
		t.Errorf("unexpected loyalty estimate: %+v", p.Loyalty)
	}
}

func TestToProfilesMissingDocuments(t *testing.T) {
	p := ToProfiles(DocumentData{Payslip: &Payslip{NetSalary: 2000}}, 36, refNow)
	if p.OffChain.DocumentsComplete {
		t.Error("expected incomplete documents without tax return")
	}
	if p.TermMonths != 36 {
		t.Errorf("expected term 36, got %d", p.TermMonths)
	}

	p = ToProfiles(DocumentData{TaxReturn: &TaxReturn{}}, 0, refNow)
	if p.OffChain.NetMonthlyIncome != 0 || p.OffChain.DocumentsComplete {
		t.Errorf("expected empty off-chain profile, got %+v", p.OffChain)
	}
}

func TestNormalizeWallet(t *testing.T) {
	got, err := NormalizeWallet("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("unexpected checksum form: %s", got)
	}

	got, err = NormalizeWallet("")
	if err != nil || got != "" {
		t.Errorf("expected empty address to pass, got %q, %v", got, err)
	}

	for _, bad := range []string{"0x123", "not-an-address", "0xZZZeb6053f3e94c9b9a09f33669435e7ef1beaed"} {
		if _, err := NormalizeWallet(bad); !errors.Is(err, ErrInvalidWallet) {
			t.Errorf("NormalizeWallet(%q) error = %v, want ErrInvalidWallet", bad, err)
		}
	}
}
