package domain

import "time"

// Category clasifica el mercado por el tipo de evento subyacente.
// Determina el perfil temporal (volatilidad/decay) que se le aplica.
type Category string

const (
	CategoryPolitics  Category = "politics"
	CategoryCrypto    Category = "crypto"
	CategoryEconomics Category = "economics"
	CategorySports    Category = "sports"
	CategoryScience   Category = "science"
	CategoryOther     Category = "other"
)

// Action es la acción recomendada para un mercado.
type Action string

const (
	ActionBuyYes  Action = "BUY_YES"
	ActionBuyNo   Action = "BUY_NO"
	ActionSellYes Action = "SELL_YES"
	ActionSellNo  Action = "SELL_NO"
	ActionHold    Action = "HOLD"
)

// PredictsYes devuelve true si la acción implica que el modelo predice
// resolución YES. Esta función es la ÚNICA fuente de verdad para la dirección
// de una predicción: el signo del edge puede discrepar de la acción tomada
// (p.ej. tras un ajuste previo de calibración), así que nunca se usa el signo
// para etiquetar la dirección.
func (a Action) PredictsYes() bool {
	return a == ActionBuyYes || a == ActionSellNo
}

// IsTrade devuelve true si la acción implica tomar posición.
func (a Action) IsTrade() bool {
	return a != ActionHold && a != ""
}

// MarketSignal es el resultado del análisis de un mercado en un ciclo.
// Inmutable una vez producido; lo consumen el sizer y el ajuste por correlación.
type MarketSignal struct {
	ID         string
	MarketID   string
	Question   string
	Category   Category
	ModelProb  float64 // probabilidad estimada por el modelo para YES
	Price      float64 // precio de mercado para YES
	Edge       float64 // ModelProb - Price, rango [-1, 1]
	Confidence float64 // 0-100
	Action     Action
	Liquidity  float64
	Resolution time.Time // cero si el mercado no tiene fecha de resolución
	CreatedAt  time.Time
}

// HasResolution devuelve true si el mercado tiene fecha de resolución conocida.
func (s MarketSignal) HasResolution() bool {
	return !s.Resolution.IsZero()
}

// DaysToResolution devuelve los días hasta la resolución desde now.
// Devuelve 0 si no hay fecha o si ya pasó.
func (s MarketSignal) DaysToResolution(now time.Time) float64 {
	if s.Resolution.IsZero() {
		return 0
	}
	d := s.Resolution.Sub(now).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// DeriveAction devuelve la acción implicada por un edge y un umbral mínimo.
// Edge positivo = el modelo ve YES barato; negativo = NO barato.
func DeriveAction(edge, minEdge float64) Action {
	switch {
	case edge >= minEdge:
		return ActionBuyYes
	case edge <= -minEdge:
		return ActionBuyNo
	default:
		return ActionHold
	}
}

// NewMarketSignal construye un MarketSignal derivando edge y acción.
func NewMarketSignal(marketID, question string, cat Category, modelProb, price, confidence, liquidity, minEdge float64, resolution time.Time, now time.Time) MarketSignal {
	edge := modelProb - price
	return MarketSignal{
		MarketID:   marketID,
		Question:   question,
		Category:   cat,
		ModelProb:  modelProb,
		Price:      price,
		Edge:       edge,
		Confidence: confidence,
		Action:     DeriveAction(edge, minEdge),
		Liquidity:  liquidity,
		Resolution: resolution,
		CreatedAt:  now,
	}
}

// ParseCategory normaliza un string a Category. Desconocidos → CategoryOther.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryPolitics, CategoryCrypto, CategoryEconomics, CategorySports, CategoryScience:
		return Category(s)
	default:
		return CategoryOther
	}
}
