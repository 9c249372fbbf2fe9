package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arbParams() ArbParams { return DefaultArbParams() }

func inverseRel() MarketRelationship {
	return MarketRelationship{
		MarketA: "a", MarketB: "b",
		Type:        RelationInverse,
		Confidence:  0.9,
		Description: ExpectedRelationDescription(RelationInverse),
	}
}

// --- ComputeArbitrage ---

func TestComputeArbitrage_InverseSellBoth(t *testing.T) {
	// Dos mercados inversos a 0.60/0.60: suma 1.20, desviación 0.20 → SELL_BOTH
	arb, ok := ComputeArbitrage(inverseRel(), 0.60, 0.60, arbParams())
	require.True(t, ok)
	assert.Equal(t, ArbSellBoth, arb.Direction)
	assert.InDelta(t, 0.20, arb.ExpectedProfit, 1e-9)
	assert.InDelta(t, 0.20, arb.Deviation, 1e-9)
	assert.LessOrEqual(t, arb.Confidence, 95.0)
	assert.Greater(t, arb.Confidence, 0.0)
}

func TestComputeArbitrage_InverseBuyBoth(t *testing.T) {
	// Suma 0.88 < 0.95 → comprar ambos lados
	arb, ok := ComputeArbitrage(inverseRel(), 0.45, 0.43, arbParams())
	require.True(t, ok)
	assert.Equal(t, ArbBuyBoth, arb.Direction)
	assert.InDelta(t, 0.12, arb.ExpectedProfit, 1e-9)
}

func TestComputeArbitrage_InverseNoOpportunity(t *testing.T) {
	// Suma 1.00 exacta → sin desviación, sin oportunidad
	_, ok := ComputeArbitrage(inverseRel(), 0.51, 0.49, arbParams())
	assert.False(t, ok)
	// Desviación 0.04 bajo el umbral 0.05
	_, ok = ComputeArbitrage(inverseRel(), 0.53, 0.51, arbParams())
	assert.False(t, ok)
}

func TestComputeArbitrage_SubsetViolation(t *testing.T) {
	rel := MarketRelationship{MarketA: "sub", MarketB: "super", Type: RelationSubset}
	// El subconjunto cotiza por encima del superconjunto → vender A, comprar B
	arb, ok := ComputeArbitrage(rel, 0.40, 0.30, arbParams())
	require.True(t, ok)
	assert.Equal(t, ArbSellASubset, arb.Direction)
	assert.InDelta(t, 0.10, arb.ExpectedProfit, 1e-9)

	// Orden correcto (subset < superset) → sin oportunidad
	_, ok = ComputeArbitrage(rel, 0.30, 0.40, arbParams())
	assert.False(t, ok)
}

func TestComputeArbitrage_MutuallyExclusive(t *testing.T) {
	rel := MarketRelationship{MarketA: "a", MarketB: "b", Type: RelationMutuallyExclusive}
	// Suma 1.10 > 1.05 → vender ambos
	arb, ok := ComputeArbitrage(rel, 0.60, 0.50, arbParams())
	require.True(t, ok)
	assert.Equal(t, ArbSellBoth, arb.Direction)

	// Suma 0.70: mutuamente excluyentes pueden sumar < 1 sin violación
	_, ok = ComputeArbitrage(rel, 0.40, 0.30, arbParams())
	assert.False(t, ok)
}

func TestComputeArbitrage_CorrelatedNeverArb(t *testing.T) {
	rel := MarketRelationship{MarketA: "a", MarketB: "b", Type: RelationCorrelated}
	_, ok := ComputeArbitrage(rel, 0.90, 0.10, arbParams())
	assert.False(t, ok)
}

func TestComputeArbitrage_InvalidPrices(t *testing.T) {
	_, ok := ComputeArbitrage(inverseRel(), 0, 0.60, arbParams())
	assert.False(t, ok)
	_, ok = ComputeArbitrage(inverseRel(), 0.60, 1.0, arbParams())
	assert.False(t, ok)
}

func TestComputeArbitrage_ConfidenceCapped(t *testing.T) {
	// Desviación extrema: confianza se acota a 95
	arb, ok := ComputeArbitrage(inverseRel(), 0.90, 0.85, arbParams())
	require.True(t, ok)
	assert.Equal(t, 95.0, arb.Confidence)
}

// --- PairKey ---

func TestPairKey_Canonical(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.Equal(t, "a|b", PairKey("b", "a"))
}

// --- CorrelationAdjustedSize ---

func TestCorrelationAdjustedSize_NoRelated(t *testing.T) {
	assert.Equal(t, 0.05, CorrelationAdjustedSize(0.05, nil))
}

func TestCorrelationAdjustedSize_NeverExceedsBase(t *testing.T) {
	related := []RelatedHolding{{Size: 0.01, Type: RelationCorrelated}}
	adj := CorrelationAdjustedSize(0.05, related)
	assert.LessOrEqual(t, adj, 0.05)
	assert.Greater(t, adj, 0.0)
}

func TestCorrelationAdjustedSize_ZeroAtDoubleExposure(t *testing.T) {
	// Exposición relacionada = 2×base → 0
	related := []RelatedHolding{{Size: 0.10, Type: RelationInverse}}
	assert.Equal(t, 0.0, CorrelationAdjustedSize(0.05, related))
	// Y por encima también
	related = append(related, RelatedHolding{Size: 0.05, Type: RelationSubset})
	assert.Equal(t, 0.0, CorrelationAdjustedSize(0.05, related))
}

func TestCorrelationAdjustedSize_Weights(t *testing.T) {
	// base 0.10; INVERSE 0.12×1.0 = 0.12 de exposición →
	// headroom = (0.20 - 0.12)/0.10 = 0.8 → 0.08
	related := []RelatedHolding{{Size: 0.12, Type: RelationInverse}}
	assert.InDelta(t, 0.08, CorrelationAdjustedSize(0.10, related), 1e-9)

	// La misma posición como CORRELATED pesa 0.5 → exposición 0.06 →
	// headroom 1.4 → clamp 1.0 → base intacta
	related[0].Type = RelationCorrelated
	assert.InDelta(t, 0.10, CorrelationAdjustedSize(0.10, related), 1e-9)
}

func TestCorrelationAdjustedSize_IgnoresNonPositive(t *testing.T) {
	related := []RelatedHolding{{Size: -1, Type: RelationInverse}}
	assert.Equal(t, 0.05, CorrelationAdjustedSize(0.05, related))
	assert.Equal(t, 0.0, CorrelationAdjustedSize(0, related))
}

func TestRelationshipWeight_Table(t *testing.T) {
	assert.Equal(t, 1.0, RelationshipWeight(RelationInverse))
	assert.Equal(t, 0.8, RelationshipWeight(RelationSubset))
	assert.Equal(t, 0.8, RelationshipWeight(RelationSuperset))
	assert.Equal(t, 0.5, RelationshipWeight(RelationCorrelated))
	assert.Equal(t, 0.3, RelationshipWeight(RelationMutuallyExclusive))
}

func TestSortArbsByProfit(t *testing.T) {
	arbs := []ArbOpportunity{
		{ExpectedProfit: 0.05},
		{ExpectedProfit: 0.20},
		{ExpectedProfit: 0.10},
	}
	SortArbsByProfit(arbs)
	assert.Equal(t, 0.20, arbs[0].ExpectedProfit)
	assert.Equal(t, 0.10, arbs[1].ExpectedProfit)
	assert.Equal(t, 0.05, arbs[2].ExpectedProfit)
}
