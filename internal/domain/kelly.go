package domain

import "math"

// KellyParams configura el sizer. Todos los umbrales vienen de config,
// no son constantes hard-coded.
type KellyParams struct {
	// Multiplier es la fracción del Kelly completo a usar (fractional Kelly).
	Multiplier float64
	// MaxPositionSize es el tope superior como fracción del bankroll.
	MaxPositionSize float64
	// MinLiquidity: por debajo de esto, el mercado no absorbe la posición → 0.
	MinLiquidity float64
	// FullLiquidity: liquidez a partir de la cual no se penaliza el tamaño.
	FullLiquidity float64
	// EdgeBuffer: edge mínimo por encima del cual vale la pena entrar.
	EdgeBuffer float64
}

// DefaultKellyParams devuelve parámetros conservadores.
func DefaultKellyParams() KellyParams {
	return KellyParams{
		Multiplier:      0.25,
		MaxPositionSize: 0.10,
		MinLiquidity:    1_000,
		FullLiquidity:   10_000,
		EdgeBuffer:      0.02,
	}
}

// KellySize convierte probabilidad de modelo + precio de mercado en una
// fracción de bankroll acotada.
//
// Kelly para un mercado binario comprando YES a precio p con probabilidad
// estimada p̂: las odds netas son b = (1-p)/p, y
//
//	f* = (b·p̂ - (1-p̂)) / b  =  (p̂ - p) / (1 - p)
//
// Devuelve 0 si el precio está fuera de (0,1), la liquidez es insuficiente,
// o el edge no supera el buffer. El resultado se escala por Multiplier
// (fractional Kelly), se penaliza con poca liquidez (mercados finos → más
// conservador) y se acota a [0, MaxPositionSize].
func KellySize(modelProb, price float64, params KellyParams, liquidity float64) float64 {
	if price <= 0 || price >= 1 {
		return 0
	}
	if math.IsNaN(modelProb) || math.IsNaN(price) || math.IsNaN(liquidity) {
		return 0
	}
	if liquidity < params.MinLiquidity {
		return 0
	}

	edge := modelProb - price
	if edge <= params.EdgeBuffer {
		return 0
	}

	kelly := edge / (1.0 - price)
	size := kelly * params.Multiplier

	// Escalado por liquidez: con FullLiquidity o más, Kelly sin penalizar;
	// con menos, el tamaño se reduce linealmente hacia el mínimo.
	if params.FullLiquidity > params.MinLiquidity {
		liqScale := (liquidity - params.MinLiquidity) / (params.FullLiquidity - params.MinLiquidity)
		if liqScale > 1 {
			liqScale = 1
		}
		// Nunca por debajo del 50% del Kelly fraccional: la liquidez ya pasó
		// el mínimo absoluto, solo modula la agresividad.
		size *= 0.5 + 0.5*liqScale
	}

	if size > params.MaxPositionSize {
		size = params.MaxPositionSize
	}
	if size < 0 {
		return 0
	}
	return size
}

// KellySizeForSignal es el atajo para una señal ya construida: usa el edge
// absoluto proyectado al lado correcto (para BUY_NO el mercado equivalente es
// comprar NO a precio 1-p con probabilidad 1-p̂).
func KellySizeForSignal(s MarketSignal, params KellyParams) float64 {
	switch s.Action {
	case ActionBuyYes:
		return KellySize(s.ModelProb, s.Price, params, s.Liquidity)
	case ActionBuyNo:
		return KellySize(1.0-s.ModelProb, 1.0-s.Price, params, s.Liquidity)
	default:
		return 0
	}
}
