package main

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/scoring"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestLoadConfig(t *testing.T) {
	cfg := loadConfig(env(nil))
	assert.Equal(t, domain.TierCommunity, cfg.Tier)
	assert.Equal(t, "memory", cfg.Cache.Type)

	cfg = loadConfig(env(map[string]string{"LENDSCORE_TIER": "pro", "LENDSCORE_PORT": "9090"}))
	assert.Equal(t, domain.TierPro, cfg.Tier)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, 9090, cfg.Server.Port)
}

const yamlSingle = `
offChain:
  netMonthlyIncome: 3000
  monthlyObligations: 1000
  employmentTenureYears: 5
  documentsComplete: true
onChain:
  walletAgeYears: 2
  transactionCount: 500
loyalty:
  protocolTenureYears: 2
  totalLoansCount: 4
  loansRepaidOnTimeCount: 4
`

func TestReadProfiles(t *testing.T) {
	t.Run("SingleYAML", func(t *testing.T) {
		got, err := readProfiles(strings.NewReader(yamlSingle))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 3000.0, got[0].OffChain.NetMonthlyIncome)
		assert.Equal(t, 500, got[0].OnChain.TransactionCount)
		assert.True(t, got[0].OffChain.DocumentsComplete)
	})

	t.Run("JSONList", func(t *testing.T) {
		in := `[{"offChain": {"netMonthlyIncome": 1000}, "termMonths": 24}, {"offChain": {"netMonthlyIncome": 2000}}]`
		got, err := readProfiles(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 24, got[0].TermMonths)
		assert.Equal(t, 2000.0, got[1].OffChain.NetMonthlyIncome)
	})

	t.Run("KeepsUnscoredFields", func(t *testing.T) {
		in := "onChain:\n  walletAgeYears: 2\n  stablecoinLiquidity: 1250.5\n  assetDiversity: 0.75\n"
		got, err := readProfiles(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].OnChain.StablecoinLiquidity)
		require.NotNil(t, got[0].OnChain.AssetDiversity)

		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatYAML, got))
		again, err := readProfiles(&buf)
		require.NoError(t, err)
		require.Len(t, again, 1)
		require.NotNil(t, again[0].OnChain.StablecoinLiquidity)
		require.NotNil(t, again[0].OnChain.AssetDiversity)
		assert.Equal(t, 1250.5, *again[0].OnChain.StablecoinLiquidity)
		assert.Equal(t, 0.75, *again[0].OnChain.AssetDiversity)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := readProfiles(strings.NewReader("offChain: [unclosed"))
		assert.Error(t, err)
	})
}

func TestScoreAll(t *testing.T) {
	zeroIncome := domain.Profiles{}

	t.Run("FaithfulKeepsNaN", func(t *testing.T) {
		got, err := scoreAll(scoring.Default(), []domain.Profiles{zeroIncome}, false)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(got[0].FinalLoanAmount))
	})

	t.Run("StrictRejects", func(t *testing.T) {
		_, err := scoreAll(scoring.Default(), []domain.Profiles{zeroIncome}, true)
		assert.True(t, errors.Is(err, scoring.ErrInvalidProfile))
		assert.Contains(t, err.Error(), "applicant 0")
	})
}

func TestWriteOutput(t *testing.T) {
	results, _ := scoreAll(scoring.Default(), []domain.Profiles{{}}, false)

	t.Run("YAMLRendersNaN", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatYAML, results))
		assert.Contains(t, buf.String(), "finalLoanAmount: .nan")
	})

	t.Run("JSONRejectsNaN", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, writeOutput(&buf, formatJSON, results))
	})

	t.Run("Policy", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatJSON, scoring.Default().Policy()))
		assert.Contains(t, buf.String(), `"loanCeiling": 100000`)
	})

	t.Run("PolicyYAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatYAML, scoring.Default().Policy()))
		out := buf.String()
		assert.Contains(t, out, "loanCeiling: 100000")
		assert.Contains(t, out, "factorRules:")
		assert.Contains(t, out, "minScore: 75")
		assert.NotContains(t, out, "referenceincome")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		assert.Error(t, writeOutput(&bytes.Buffer{}, "xml", results))
	})
}
