package relscan

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

func signal(id, question string, price float64) domain.MarketSignal {
	return domain.MarketSignal{
		MarketID:  id,
		Question:  question,
		Price:     price,
		Liquidity: 10_000,
		CreatedAt: time.Now(),
	}
}

func newTestScanner() *Scanner {
	return NewScanner(NewClassifier(DefaultPatterns()), domain.DefaultArbParams())
}

func TestScan_FindsInverseArbitrage(t *testing.T) {
	s := newTestScanner()

	// Par inverso con suma 1.15: arbitraje SELL_BOTH de 0.15
	markets := []domain.MarketSignal{
		signal("a", "Will BTC close above $100k by December 31?", 0.60),
		signal("b", "Will BTC close below $100k by December 31?", 0.55),
		signal("c", "Will the Lakers reach the NBA finals?", 0.30),
	}

	res := s.Scan(markets)

	require.Len(t, res.Relationships, 1)
	rel := res.Relationships[0]
	assert.Equal(t, domain.RelationInverse, rel.Type)
	assert.Equal(t, domain.PairKey("a", "b"), domain.PairKey(rel.MarketA, rel.MarketB))

	require.Len(t, res.Opportunities, 1)
	opp := res.Opportunities[0]
	assert.Equal(t, domain.ArbSellBoth, opp.Direction)
	assert.InDelta(t, 0.15, opp.ExpectedProfit, 1e-9)
}

func TestScan_WellPricedPairYieldsNoOpportunity(t *testing.T) {
	s := newTestScanner()

	// Relación detectada pero precios coherentes (suma 1.00)
	markets := []domain.MarketSignal{
		signal("a", "Will BTC close above $100k by December 31?", 0.52),
		signal("b", "Will BTC close below $100k by December 31?", 0.48),
	}

	res := s.Scan(markets)
	assert.Len(t, res.Relationships, 1)
	assert.Empty(t, res.Opportunities)
}

func TestScan_SortsByExpectedProfit(t *testing.T) {
	s := newTestScanner()

	markets := []domain.MarketSignal{
		signal("a", "Will BTC close above $100k by December 31?", 0.58),
		signal("b", "Will BTC close below $100k by December 31?", 0.50), // dev 0.08
		signal("c", "Will Alcaraz win the US Open?", 0.70),
		signal("d", "Will Sinner win the US Open?", 0.55), // mutex, dev 0.25
	}

	res := s.Scan(markets)
	require.GreaterOrEqual(t, len(res.Opportunities), 2)
	for i := 1; i < len(res.Opportunities); i++ {
		assert.GreaterOrEqual(t,
			res.Opportunities[i-1].ExpectedProfit,
			res.Opportunities[i].ExpectedProfit)
	}
	assert.InDelta(t, 0.25, res.Opportunities[0].ExpectedProfit, 1e-9)
}

func TestScan_CapsCandidates(t *testing.T) {
	s := newTestScanner()
	s.maxMarkets = 5

	markets := make([]domain.MarketSignal, 20)
	for i := range markets {
		markets[i] = signal(fmt.Sprintf("m%d", i), fmt.Sprintf("Unique question number %d?", i), 0.50)
	}
	// No debe tardar O(20²); con el cap solo mira los 5 primeros.
	res := s.Scan(markets)
	assert.Empty(t, res.Relationships)
}

func TestRelatedFor(t *testing.T) {
	s := newTestScanner()
	candidate := signal("a", "Will BTC close above $100k by December 31?", 0.60)

	open := []domain.Position{
		// mismo mercado, inverso y sin relación
		{MarketID: "a", Question: candidate.Question, Size: 0.05},
		{MarketID: "b", Question: "Will BTC close below $100k by December 31?", Size: 0.03},
		{MarketID: "c", Question: "Will the Lakers reach the NBA finals?", Size: 0.04},
	}

	related := s.RelatedFor(candidate, open)
	require.Len(t, related, 2)
	assert.Equal(t, "a", related[0].MarketID)
	assert.Equal(t, domain.RelationInverse, related[0].Type)
	assert.Equal(t, "b", related[1].MarketID)
	assert.Equal(t, domain.RelationInverse, related[1].Type)
}

func TestLoadPatterns(t *testing.T) {
	path := t.TempDir() + "/patterns.yaml"
	content := []byte(`
min_similarity: 0.8
inverse_pairs:
  - ["sube", "baja"]
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	p, err := LoadPatterns(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, p.MinSimilarity)
	assert.Equal(t, [][2]string{{"sube", "baja"}}, p.InversePairs)
	// Los campos no especificados conservan el default
	assert.Equal(t, 2, p.MinSharedEntities)
}

func TestLoadPatterns_MissingFile(t *testing.T) {
	_, err := LoadPatterns("/nonexistent/patterns.yaml")
	assert.Error(t, err)
}
