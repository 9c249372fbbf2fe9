package pipeline

// concurrent.go — worker pool para evaluar candidatos en paralelo.
//
// Los cuatro pasos del pipeline son puros dadas sus entradas, así que los
// candidatos de un ciclo se reparten entre workers sin coordinación extra.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// EvaluateAll evalúa todos los candidatos usando un worker pool y devuelve
// las recomendaciones en el mismo orden de entrada.
//
// relatedFor entrega las posiciones relacionadas con cada mercado (puede ser
// nil si no hay posiciones abiertas). Si workers <= 0 usa NumCPU × 2.
func EvaluateAll(
	ctx context.Context,
	p *Pipeline,
	candidates []domain.MarketSignal,
	relatedFor func(marketID string) []domain.RelatedHolding,
	workers int,
) []domain.Recommendation {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(candidates) && len(candidates) > 0 {
		workers = len(candidates)
	}

	type work struct {
		idx int
		sig domain.MarketSignal
	}

	workCh := make(chan work, len(candidates))
	results := make([]domain.Recommendation, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				var related []domain.RelatedHolding
				if relatedFor != nil {
					related = relatedFor(w.sig.MarketID)
				}
				results[w.idx] = p.Evaluate(ctx, w.sig, related)
			}
		}()
	}

	for i, sig := range candidates {
		workCh <- work{idx: i, sig: sig}
	}
	close(workCh)
	wg.Wait()

	slog.Debug("concurrent evaluation complete",
		"candidates", len(candidates),
		"workers", workers,
	)
	return results
}

// Accepted filtra las recomendaciones aceptadas.
func Accepted(recs []domain.Recommendation) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(recs))
	for _, r := range recs {
		if r.Accepted {
			out = append(out, r)
		}
	}
	return out
}
