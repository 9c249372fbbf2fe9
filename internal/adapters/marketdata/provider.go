package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	signalsPath      = "/signals"
	gammaPageSize    = 100
	maxGammaPages    = 5
)

// Provider implementa ports.MarketProvider: junta los mercados activos de
// Gamma con las probabilidades del servicio de señales. Un mercado sin señal
// del modelo no es candidato este ciclo.
type Provider struct {
	client  *Client
	minEdge float64
	now     func() time.Time
}

func NewProvider(client *Client, minEdge float64) *Provider {
	return &Provider{client: client, minEdge: minEdge, now: time.Now}
}

// FetchCandidates devuelve las señales crudas del ciclo.
func (p *Provider) FetchCandidates(ctx context.Context) ([]domain.MarketSignal, error) {
	markets, err := p.fetchActiveMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("marketdata.FetchCandidates: fetch markets: %w", err)
	}

	signals, err := p.fetchModelSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("marketdata.FetchCandidates: fetch signals: %w", err)
	}

	now := p.now()
	candidates := make([]domain.MarketSignal, 0, len(signals))
	skipped := 0
	for _, gm := range markets {
		sig, ok := signals[gm.ConditionID]
		if !ok {
			continue
		}
		candidate, err := toMarketSignal(gm, sig, p.minEdge, now)
		if err != nil {
			slog.Debug("skipping malformed market", "market", gm.ConditionID, "err", err)
			skipped++
			continue
		}
		candidates = append(candidates, candidate)
	}

	slog.Debug("candidates assembled",
		"markets", len(markets),
		"signals", len(signals),
		"candidates", len(candidates),
		"skipped", skipped,
	)
	return candidates, nil
}

// fetchActiveMarkets pagina GET /markets de Gamma hasta agotar resultados
// o llegar al tope de páginas.
func (p *Provider) fetchActiveMarkets(ctx context.Context) ([]gammaMarket, error) {
	var all []gammaMarket
	for page := 0; page < maxGammaPages; page++ {
		url := fmt.Sprintf("%s%s?active=true&closed=false&limit=%d&offset=%d",
			p.client.gammaBase, gammaMarketsPath, gammaPageSize, page*gammaPageSize)

		var resp gammaMarketsResponse
		if err := p.client.get(ctx, p.client.gammaLimiter, url, &resp); err != nil {
			return nil, err
		}

		for _, gm := range resp {
			if gm.Active && !gm.Closed {
				all = append(all, gm)
			}
		}
		if len(resp) < gammaPageSize {
			break
		}
	}
	return all, nil
}

// fetchModelSignals obtiene las probabilidades del modelo, indexadas por
// market id.
func (p *Provider) fetchModelSignals(ctx context.Context) (map[string]modelSignal, error) {
	url := p.client.signalsBase + signalsPath

	var resp signalsResponse
	if err := p.client.get(ctx, p.client.signalsLimiter, url, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]modelSignal, len(resp.Signals))
	for _, sig := range resp.Signals {
		out[sig.MarketID] = sig
	}
	return out, nil
}
