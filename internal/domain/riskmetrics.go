package domain

// riskmetrics.go — biblioteca de métricas de riesgo sobre series de returns
// o curvas de equity.
//
// Contrato común: toda función degrada a un valor neutro (0, nunca NaN ni
// Inf) ante input degenerado — menos de 2 muestras (10 para VaR/CVaR),
// varianza cero, peak cero, longitudes desiguales. El caller distingue
// "sin datos" de "métrica cero real" por el tamaño del input, no por el valor.

import (
	"math"
	"sort"
)

// MetricsParams parametriza la anualización y umbrales de las métricas.
type MetricsParams struct {
	// PeriodsPerYear para anualizar. Los mercados de predicción cotizan a
	// diario, así que el default es 365.
	PeriodsPerYear float64
	// RiskFreeRate es el return mínimo aceptable por periodo (MAR).
	RiskFreeRate float64
	// MinVaRSamples: por debajo de esto VaR/CVaR devuelven 0.
	MinVaRSamples int
}

// DefaultMetricsParams devuelve la parametrización estándar.
func DefaultMetricsParams() MetricsParams {
	return MetricsParams{
		PeriodsPerYear: 365,
		RiskFreeRate:   0,
		MinVaRSamples:  10,
	}
}

// Sharpe devuelve el ratio de Sharpe anualizado de una serie de returns
// periódicos. 0 si hay menos de 2 muestras o la desviación es cero.
func Sharpe(returns []float64, p MetricsParams) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	sd := stdevOf(returns, mean)
	if sd == 0 {
		return 0
	}
	return (mean - p.RiskFreeRate) / sd * math.Sqrt(p.PeriodsPerYear)
}

// Sortino es como Sharpe pero penaliza solo la volatilidad a la baja:
// la desviación se calcula únicamente sobre returns por debajo del MAR.
// 0 si no hay downside (ninguna pérdida) o input degenerado.
func Sortino(returns []float64, p MetricsParams) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)

	var sumSq float64
	var downs int
	for _, r := range returns {
		if r < p.RiskFreeRate {
			d := r - p.RiskFreeRate
			sumSq += d * d
			downs++
		}
	}
	if downs == 0 {
		return 0
	}
	downside := math.Sqrt(sumSq / float64(len(returns)))
	if downside == 0 {
		return 0
	}
	return (mean - p.RiskFreeRate) / downside * math.Sqrt(p.PeriodsPerYear)
}

// DrawdownResult describe el peor drawdown de una curva de equity.
type DrawdownResult struct {
	MaxDrawdown float64 // fracción 0-1: (peak - trough) / peak
	PeakIndex   int     // índice del peak previo al peor drawdown
	TroughIndex int     // índice del mínimo
	// RecoveryPeriods: muestras desde el trough hasta volver a ≥ peak.
	// 0 si la curva nunca recupera.
	RecoveryPeriods int
}

// MaxDrawdown recorre la curva de equity manteniendo el peak acumulado y
// devuelve el peor drawdown con sus índices. Valores ≤ 0 en la curva se
// tratan como input inválido y devuelven el resultado neutro.
func MaxDrawdown(equity []float64) DrawdownResult {
	var res DrawdownResult
	if len(equity) < 2 {
		return res
	}

	peak := equity[0]
	peakIdx := 0
	for i, v := range equity {
		if v <= 0 {
			return DrawdownResult{}
		}
		if v > peak {
			peak = v
			peakIdx = i
			continue
		}
		dd := (peak - v) / peak
		if dd > res.MaxDrawdown {
			res.MaxDrawdown = dd
			res.PeakIndex = peakIdx
			res.TroughIndex = i
		}
	}

	if res.MaxDrawdown > 0 {
		refPeak := equity[res.PeakIndex]
		for i := res.TroughIndex + 1; i < len(equity); i++ {
			if equity[i] >= refPeak {
				res.RecoveryPeriods = i - res.TroughIndex
				break
			}
		}
	}
	return res
}

// VaR devuelve el Value-at-Risk histórico al nivel de confianza dado
// (p.ej. 0.95) como magnitud positiva. Método de percentil: ordena los
// returns ascendente e indexa en (1-confidence)·n.
// 0 si hay menos de MinVaRSamples muestras o confidence fuera de (0,1).
func VaR(returns []float64, confidence float64, p MetricsParams) float64 {
	if len(returns) < p.MinVaRSamples || confidence <= 0 || confidence >= 1 {
		return 0
	}
	sorted := sortedCopy(returns)
	idx := varIndex(len(sorted), confidence)
	v := sorted[idx]
	if v >= 0 {
		return 0 // el percentil no es una pérdida
	}
	return -v
}

// CVaR (expected shortfall) es la magnitud media de los returns en o por
// debajo del índice de VaR. Mismas condiciones de degradación que VaR.
func CVaR(returns []float64, confidence float64, p MetricsParams) float64 {
	if len(returns) < p.MinVaRSamples || confidence <= 0 || confidence >= 1 {
		return 0
	}
	sorted := sortedCopy(returns)
	idx := varIndex(len(sorted), confidence)

	var sum float64
	for i := 0; i <= idx; i++ {
		sum += sorted[i]
	}
	avg := sum / float64(idx+1)
	if avg >= 0 {
		return 0
	}
	return -avg
}

// Beta = cov(asset, benchmark) / var(benchmark).
// 0 si las longitudes no coinciden, hay <2 muestras o el benchmark no varía.
func Beta(asset, benchmark []float64, _ MetricsParams) float64 {
	if len(asset) != len(benchmark) || len(asset) < 2 {
		return 0
	}
	meanA := meanOf(asset)
	meanB := meanOf(benchmark)

	var cov, varB float64
	for i := range asset {
		da := asset[i] - meanA
		db := benchmark[i] - meanB
		cov += da * db
		varB += db * db
	}
	if varB == 0 {
		return 0
	}
	return cov / varB
}

// InformationRatio mide el exceso de return sobre el benchmark por unidad
// de tracking error, anualizado.
func InformationRatio(asset, benchmark []float64, p MetricsParams) float64 {
	if len(asset) != len(benchmark) || len(asset) < 2 {
		return 0
	}
	diff := make([]float64, len(asset))
	for i := range asset {
		diff[i] = asset[i] - benchmark[i]
	}
	mean := meanOf(diff)
	sd := stdevOf(diff, mean)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(p.PeriodsPerYear)
}

// Calmar = return total anualizado / max drawdown de la curva de equity.
// 0 si la curva es degenerada o no hay drawdown.
func Calmar(equity []float64, p MetricsParams) float64 {
	if len(equity) < 2 || equity[0] <= 0 {
		return 0
	}
	dd := MaxDrawdown(equity)
	if dd.MaxDrawdown == 0 {
		return 0
	}
	periods := float64(len(equity) - 1)
	total := equity[len(equity)-1] / equity[0]
	if total <= 0 {
		return 0
	}
	annualized := math.Pow(total, p.PeriodsPerYear/periods) - 1
	return annualized / dd.MaxDrawdown
}

// ReturnsFromEquity convierte una curva de equity en returns periódicos.
// Devuelve nil si la curva tiene menos de 2 puntos o algún valor ≤ 0.
func ReturnsFromEquity(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			return nil
		}
		out = append(out, equity[i]/equity[i-1]-1)
	}
	return out
}

// --- helpers internos ---

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdevOf usa la varianza poblacional: las series son la población completa
// de ciclos observados, no una muestra.
func stdevOf(xs []float64, mean float64) float64 {
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// varIndex devuelve el índice del percentil (1-confidence) acotado al rango.
func varIndex(n int, confidence float64) int {
	idx := int(float64(n) * (1 - confidence))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
