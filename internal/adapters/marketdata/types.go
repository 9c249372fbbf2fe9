package marketdata

import "encoding/json"

// DTOs raw de las APIs. Solo se usan dentro de este paquete; la conversión
// a domain entities vive en mapping.go.

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es la metadata de un mercado. Gamma devuelve varios campos
// numéricos como strings JSON, usamos json.Number; outcomePrices llega como
// string con un array JSON dentro ("[\"0.55\", \"0.45\"]").
type gammaMarket struct {
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	Category      string      `json:"category"`
	EndDateISO    string      `json:"endDateIso"`
	OutcomePrices string      `json:"outcomePrices"`
	Liquidity     json.Number `json:"liquidity"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
}

// --- Servicio de señales ---

// modelSignal es la estimación del modelo para un mercado.
type modelSignal struct {
	MarketID    string  `json:"market_id"`
	Probability float64 `json:"probability"` // P(YES) según el modelo
	Confidence  float64 `json:"confidence"`  // 0-100
}

// signalsResponse es la respuesta de GET /signals.
type signalsResponse struct {
	Signals []modelSignal `json:"signals"`
}

// positionDTO es una posición abierta según el servicio de ejecución.
type positionDTO struct {
	MarketID   string  `json:"market_id"`
	Question   string  `json:"question"`
	Category   string  `json:"category"`
	Side       string  `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	Size       float64 `json:"size"`
	EnteredAt  string  `json:"entered_at"` // RFC3339
	Resolution string  `json:"resolution"` // RFC3339, vacío si no hay fecha
	EntryEdge  float64 `json:"entry_edge"`
	EntryConf  float64 `json:"entry_confidence"`
}

// positionsResponse es la respuesta de GET /positions.
type positionsResponse struct {
	Positions []positionDTO `json:"positions"`
}

// exitDTO es una recomendación de salida enviada al servicio de ejecución.
type exitDTO struct {
	MarketID   string  `json:"market_id"`
	Reason     string  `json:"reason"`
	Priority   string  `json:"priority"`
	Urgency    string  `json:"urgency"`
	Message    string  `json:"message"`
	PnLPercent float64 `json:"pnl_percent"`
}
