package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RelationshipType describe la restricción estructural entre dos mercados.
type RelationshipType string

const (
	RelationInverse           RelationshipType = "INVERSE"
	RelationSubset            RelationshipType = "SUBSET"
	RelationSuperset          RelationshipType = "SUPERSET"
	RelationCorrelated        RelationshipType = "CORRELATED"
	RelationMutuallyExclusive RelationshipType = "MUTUALLY_EXCLUSIVE"
	RelationExhaustiveSet     RelationshipType = "EXHAUSTIVE_SET"
)

// MarketRelationship es un par ordenado de mercados con su relación detectada.
// Derivada, no persistida: se recalcula en cada scan desde preguntas y precios.
type MarketRelationship struct {
	MarketA     string
	MarketB     string
	Type        RelationshipType
	Confidence  float64 // 0-1, del clasificador
	Description string  // relación esperada legible: "P(A) + P(B) ≈ 1"
}

// PairKey devuelve la clave canónica del par (ids ordenados) para deduplicar
// en el scan O(n²).
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}

// ArbDirection indica las patas del trade de arbitraje.
type ArbDirection string

const (
	ArbBuyBoth     ArbDirection = "BUY_BOTH"
	ArbSellBoth    ArbDirection = "SELL_BOTH"
	ArbSellASubset ArbDirection = "SELL_A_BUY_B" // vender la pata sobrevalorada
	ArbSellBSubset ArbDirection = "SELL_B_BUY_A"
)

// ArbOpportunity es una violación de la restricción estructural del par:
// un trade casi libre de riesgo si la relación detectada es correcta.
type ArbOpportunity struct {
	Relationship   MarketRelationship
	PriceA         float64
	PriceB         float64
	Deviation      float64 // magnitud de la violación
	Direction      ArbDirection
	ExpectedProfit float64 // fracción por unidad invertida
	Confidence     float64 // 0-100, escala con la desviación, cap 95
}

// ArbParams parametriza la detección de arbitraje.
type ArbParams struct {
	// MinDeviation: desviaciones menores no se marcan (default 0.05).
	MinDeviation float64
	// ConfidencePerDeviation: puntos de confianza por punto de desviación.
	ConfidencePerDeviation float64
	// MaxConfidence acota la confianza reportada (default 95).
	MaxConfidence float64
}

// DefaultArbParams devuelve los umbrales estándar.
func DefaultArbParams() ArbParams {
	return ArbParams{
		MinDeviation:           0.05,
		ConfidencePerDeviation: 400, // 0.05 de desviación → 20 puntos base + escala
		MaxConfidence:          95,
	}
}

// ComputeArbitrage evalúa la violación de precios para una relación dada.
// Devuelve (oportunidad, true) solo si la desviación supera el umbral.
//
//	INVERSE: P(A) + P(B) debe ≈ 1. Suma < 1-d → BUY_BOTH; > 1+d → SELL_BOTH.
//	SUBSET:  P(subset) ≤ P(superset). Violación → vender subset, comprar superset.
//	MUTUALLY_EXCLUSIVE: P(A) + P(B) ≤ 1. Suma > 1+d → SELL_BOTH.
func ComputeArbitrage(rel MarketRelationship, priceA, priceB float64, params ArbParams) (ArbOpportunity, bool) {
	if !validPrice(priceA) || !validPrice(priceB) {
		return ArbOpportunity{}, false
	}

	switch rel.Type {
	case RelationInverse, RelationExhaustiveSet:
		sum := priceA + priceB
		dev := math.Abs(sum - 1.0)
		if dev < params.MinDeviation {
			return ArbOpportunity{}, false
		}
		dir := ArbSellBoth
		if sum < 1.0 {
			dir = ArbBuyBoth
		}
		return newArb(rel, priceA, priceB, dev, dir, params), true

	case RelationSubset:
		// A es subconjunto de B: P(A) no puede superar P(B).
		dev := priceA - priceB
		if dev < params.MinDeviation {
			return ArbOpportunity{}, false
		}
		return newArb(rel, priceA, priceB, dev, ArbSellASubset, params), true

	case RelationSuperset:
		dev := priceB - priceA
		if dev < params.MinDeviation {
			return ArbOpportunity{}, false
		}
		return newArb(rel, priceA, priceB, dev, ArbSellBSubset, params), true

	case RelationMutuallyExclusive:
		sum := priceA + priceB
		dev := sum - 1.0
		if dev < params.MinDeviation {
			return ArbOpportunity{}, false
		}
		return newArb(rel, priceA, priceB, dev, ArbSellBoth, params), true
	}

	return ArbOpportunity{}, false
}

func newArb(rel MarketRelationship, priceA, priceB, dev float64, dir ArbDirection, params ArbParams) ArbOpportunity {
	conf := dev * params.ConfidencePerDeviation
	if conf > params.MaxConfidence {
		conf = params.MaxConfidence
	}
	return ArbOpportunity{
		Relationship:   rel,
		PriceA:         priceA,
		PriceB:         priceB,
		Deviation:      dev,
		Direction:      dir,
		ExpectedProfit: dev,
		Confidence:     conf,
	}
}

// SortArbsByProfit ordena oportunidades por profit esperado descendente.
func SortArbsByProfit(arbs []ArbOpportunity) {
	sort.SliceStable(arbs, func(i, j int) bool {
		return arbs[i].ExpectedProfit > arbs[j].ExpectedProfit
	})
}

// RelatedHolding es una posición ya abierta en un mercado relacionado con
// el objetivo, con el tipo de relación detectado.
type RelatedHolding struct {
	MarketID string
	Size     float64
	Type     RelationshipType
}

// RelationshipWeight pondera cuánto cuenta una posición relacionada como
// exposición efectiva al mercado objetivo.
func RelationshipWeight(t RelationshipType) float64 {
	switch t {
	case RelationInverse:
		return 1.0
	case RelationSubset, RelationSuperset:
		return 0.8
	case RelationCorrelated:
		return 0.5
	default:
		return 0.3
	}
}

// CorrelationAdjustedSize reduce un tamaño propuesto según la exposición ya
// abierta en mercados relacionados.
//
//	relatedExposure = Σ size_i × weight(type_i)
//	adjusted = base × min(1, (2·base - relatedExposure) / base), floor 0
//
// El resultado nunca supera el base, y es 0 cuando la exposición relacionada
// alcanza 2× el tamaño base.
func CorrelationAdjustedSize(baseSize float64, related []RelatedHolding) float64 {
	if baseSize <= 0 {
		return 0
	}
	var exposure float64
	for _, r := range related {
		if r.Size <= 0 {
			continue
		}
		exposure += r.Size * RelationshipWeight(r.Type)
	}
	headroom := (2*baseSize - exposure) / baseSize
	if headroom <= 0 {
		return 0
	}
	if headroom > 1 {
		headroom = 1
	}
	return baseSize * headroom
}

// ExpectedRelationDescription devuelve la descripción legible estándar.
func ExpectedRelationDescription(t RelationshipType) string {
	switch t {
	case RelationInverse, RelationExhaustiveSet:
		return "P(A) + P(B) ≈ 1"
	case RelationSubset:
		return "P(A) ≤ P(B)"
	case RelationSuperset:
		return "P(A) ≥ P(B)"
	case RelationMutuallyExclusive:
		return "P(A) + P(B) ≤ 1"
	case RelationCorrelated:
		return "P(A) y P(B) se mueven juntas"
	default:
		return fmt.Sprintf("relación %s", t)
	}
}

func validPrice(p float64) bool {
	return p > 0 && p < 1 && !math.IsNaN(p)
}
