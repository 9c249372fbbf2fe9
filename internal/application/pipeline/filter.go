package pipeline

import (
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// FilterConfig contiene los criterios de pre-filtrado de candidatos:
// descartar temprano lo que el pipeline rechazaría de todas formas abarata
// el ciclo y acota el scan O(n²) de relaciones.
type FilterConfig struct {
	// MinLiquidity descarta mercados que el Kelly sizer pondría a 0 igualmente.
	MinLiquidity float64
	// MinAbsEdge descarta candidatos con edge crudo insignificante.
	MinAbsEdge float64
	// MinHoursToResolution descarta mercados que resuelven demasiado pronto.
	MinHoursToResolution float64
	// Categories, si no está vacío, es la allowlist de categorías.
	Categories []domain.Category
	// MaxCandidates acota el ciclo (el scan de relaciones es O(n²)).
	MaxCandidates int
}

// DefaultFilterConfig devuelve criterios conservadores.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinLiquidity:         1_000,
		MinAbsEdge:           0.02,
		MinHoursToResolution: 6,
		MaxCandidates:        100,
	}
}

// Filter aplica los criterios configurados sobre una lista de candidatos.
type Filter struct {
	cfg FilterConfig
	now func() time.Time
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg, now: time.Now}
}

// Apply devuelve los candidatos que pasan todos los criterios, acotados a
// MaxCandidates (los primeros: el provider ya ordena por relevancia).
func (f *Filter) Apply(candidates []domain.MarketSignal) []domain.MarketSignal {
	result := make([]domain.MarketSignal, 0, len(candidates))
	for _, c := range candidates {
		if !f.passes(c) {
			continue
		}
		result = append(result, c)
		if f.cfg.MaxCandidates > 0 && len(result) >= f.cfg.MaxCandidates {
			break
		}
	}
	return result
}

func (f *Filter) passes(c domain.MarketSignal) bool {
	if c.Liquidity < f.cfg.MinLiquidity {
		return false
	}
	if abs(c.Edge) < f.cfg.MinAbsEdge {
		return false
	}
	if f.cfg.MinHoursToResolution > 0 && c.HasResolution() {
		hours := c.DaysToResolution(f.now()) * 24
		if hours < f.cfg.MinHoursToResolution {
			return false
		}
	}
	if len(f.cfg.Categories) > 0 && !containsCategory(f.cfg.Categories, c.Category) {
		return false
	}
	return true
}

func containsCategory(cats []domain.Category, c domain.Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
