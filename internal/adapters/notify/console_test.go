package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

func sampleReport() ports.CycleReport {
	rec := domain.Recommendation{
		ID: "rec-1",
		Signal: domain.MarketSignal{
			MarketID:   "mkt-btc",
			Question:   "Will Bitcoin be above $100k by December 31?",
			Category:   domain.CategoryCrypto,
			ModelProb:  0.65,
			Price:      0.50,
			Edge:       0.15,
			Confidence: 70,
			Action:     domain.ActionBuyYes,
		},
		Calibration: domain.CalibrationResult{Status: domain.CalibrationApplied},
		Time:        domain.TimeAdjustment{Tier: domain.TierEnterNow},
		FinalSize:   0.0450,
		Accepted:    true,
	}
	rejected := domain.Recommendation{
		ID:     "rec-2",
		Signal: domain.MarketSignal{MarketID: "mkt-eth", Question: "Will Ethereum flip Bitcoin?"},
	}

	arb := domain.ArbOpportunity{
		Relationship: domain.MarketRelationship{
			MarketA: "mkt-above",
			MarketB: "mkt-below",
			Type:    domain.RelationInverse,
		},
		PriceA:         0.60,
		PriceB:         0.55,
		Deviation:      0.15,
		Direction:      domain.ArbSellBoth,
		ExpectedProfit: 0.15,
		Confidence:     80,
	}

	exit := domain.ExitRecommendation{
		MarketID: "mkt-losing",
		Primary: domain.ExitSignal{
			Reason:   domain.ExitStopLoss,
			Priority: domain.PriorityCritical,
		},
		Urgency: domain.UrgencyImmediate,
		Triggered: []domain.ExitSignal{
			{Reason: domain.ExitStopLoss, Priority: domain.PriorityCritical},
			{Reason: domain.ExitTimeDecayLoss, Priority: domain.PriorityHigh},
		},
		PnLPercent: -0.25,
	}

	return ports.CycleReport{
		Recommendations: []domain.Recommendation{rec, rejected},
		Arbitrages:      []domain.ArbOpportunity{arb},
		Exits:           []domain.ExitRecommendation{exit},
	}
}

func TestNotify_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	err := c.Notify(context.Background(), ports.CycleReport{
		Recommendations: []domain.Recommendation{{ID: "r", Accepted: false}},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "no actionable signals")
	assert.Contains(t, buf.String(), "1 candidates evaluated")
}

func TestNotify_CompactMode(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	err := c.Notify(context.Background(), sampleReport())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "accept:1 arb:1 exit:1")
	assert.Contains(t, out, "BUY_YES")
	assert.Contains(t, out, "STOP_LOSS")
	// Compacto: una sola línea, sin tablas.
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.NotContains(t, out, "ENTRIES")
}

func TestNotify_TableMode(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	err := c.Notify(context.Background(), sampleReport())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ENTRIES")
	assert.Contains(t, out, "ARBITRAGE")
	assert.Contains(t, out, "EXITS")
	assert.Contains(t, out, "+0.150") // edge de la entrada aceptada
	assert.Contains(t, out, "SELL_BOTH")
	assert.Contains(t, out, "IMMEDIATE")
	assert.Contains(t, out, "+1") // una condición de salida adicional
	// El rechazado no aparece en la tabla de entradas.
	assert.NotContains(t, out, "Ethereum")
}

func TestPrintRiskReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	returns := []float64{0.10, -0.05, 0.08, -0.12, 0.15, 0.03, -0.02, 0.06}
	c.PrintRiskReport(returns, domain.DefaultMetricsParams())

	out := buf.String()
	assert.Contains(t, out, "RISK REPORT (8 resolved signals)")
	assert.Contains(t, out, "Sharpe:")
	assert.Contains(t, out, "Max drawdown:")
	assert.Contains(t, out, "VaR 95%:")
	assert.Contains(t, out, "Calmar:")
}

func TestPrintRiskReport_TooFewReturns(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	c.PrintRiskReport([]float64{0.10}, domain.DefaultMetricsParams())

	assert.Contains(t, buf.String(), "Not enough resolved signals")
}

func TestTruncateAndCompactName(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a very ...", truncate("a very long market name", 10))

	assert.Equal(t, "short", compactName("short", 10))
	got := compactName("Will Bitcoin be above $100k?", 20)
	assert.LessOrEqual(t, len([]rune(got)), 21)
	assert.Contains(t, got, "…")
}

func TestTruncateAndCompactName_MultibyteRunes(t *testing.T) {
	// Cortar por bytes en mitad de "€" o "ñ" produciría runas inválidas.
	q := "¿Subirá el € por encima de $1.20 este año?"

	tr := truncate(q, 12)
	assert.True(t, utf8.ValidString(tr))
	assert.Equal(t, 12, len([]rune(tr)))

	cn := compactName(q, 15)
	assert.True(t, utf8.ValidString(cn))
	assert.LessOrEqual(t, len([]rune(cn)), 16)

	// Texto sin espacios: el corte cae en plena secuencia multibyte.
	solid := strings.Repeat("€", 30)
	assert.True(t, utf8.ValidString(truncate(solid, 10)))
	assert.True(t, utf8.ValidString(compactName(solid, 10)))
}
