package rules

// DefaultFactorRules returns the standard explanation rules in the order
// their messages must appear.
func DefaultFactorRules() []FactorRule {
	return []FactorRule{
		{
			ID: "income-level",
			Favorable: &Clause{
				Expression: "net_monthly_income >= reference_income * 0.8",
				Message:    "High monthly income",
			},
			Unfavorable: &Clause{
				Expression: "net_monthly_income <= reference_income * 0.3",
				Message:    "Limited monthly income",
			},
		},
		{
			ID: "debt-ratio",
			Favorable: &Clause{
				Expression: "debt_ratio <= 0.2",
				Message:    "Low debt-to-income ratio",
			},
			Unfavorable: &Clause{
				Expression: "debt_ratio >= 0.5",
				Message:    "High debt-to-income ratio",
			},
		},
		{
			ID: "employment-tenure",
			Favorable: &Clause{
				Expression: "employment_tenure_years >= 3.0",
				Message:    "Stable employment",
			},
			Unfavorable: &Clause{
				Expression: "employment_tenure_years < 1.0",
				Message:    "Short employment tenure",
			},
		},
		{
			ID: "documents",
			Favorable: &Clause{
				Expression: "documents_complete",
				Message:    "Complete document file",
			},
			Unfavorable: &Clause{
				Expression: "!documents_complete",
				Message:    "Incomplete documents",
			},
		},
		{
			ID: "wallet-maturity",
			Favorable: &Clause{
				Expression: "wallet_age_years >= 2.0",
				Message:    "Mature crypto wallet",
			},
		},
		{
			ID: "transaction-volume",
			Favorable: &Clause{
				Expression: "transaction_count >= 500",
				Message:    "Significant blockchain activity",
			},
		},
		{
			ID: "protocol-tenure",
			Favorable: &Clause{
				Expression: "protocol_tenure_years >= 1.0",
				Message:    "%s year(s) of protocol tenure",
				Arg:        VarProtocolTenureYears,
			},
		},
		{
			ID: "repayment-history",
			Favorable: &Clause{
				Expression: "total_loans_count >= 3 && loans_repaid_on_time_count == total_loans_count",
				Message:    "Exemplary repayment history",
			},
		},
		{
			ID: "late-payments",
			Unfavorable: &Clause{
				Expression: "late_payments_count > 0",
				Message:    "%s late payment(s) on record",
				Arg:        VarLatePaymentsCount,
			},
		},
	}
}
