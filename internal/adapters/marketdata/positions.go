package marketdata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const (
	positionsPath = "/positions"
	exitsPath     = "/exits"
)

// PositionClient implementa ports.PositionStore contra el servicio de
// ejecución: lee posiciones abiertas y entrega recomendaciones de salida.
// Este core nunca ejecuta trades por su cuenta.
type PositionClient struct {
	client *Client
}

func NewPositionClient(client *Client) *PositionClient {
	return &PositionClient{client: client}
}

// OpenPositions devuelve las posiciones actualmente abiertas.
func (p *PositionClient) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	url := p.client.signalsBase + positionsPath

	var resp positionsResponse
	if err := p.client.get(ctx, p.client.signalsLimiter, url, &resp); err != nil {
		return nil, fmt.Errorf("marketdata.OpenPositions: %w", err)
	}

	positions := make([]domain.Position, 0, len(resp.Positions))
	for _, dto := range resp.Positions {
		pos, err := toPosition(dto)
		if err != nil {
			slog.Debug("skipping malformed position", "market", dto.MarketID, "err", err)
			continue
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// SubmitExits entrega las recomendaciones de salida del ciclo.
func (p *PositionClient) SubmitExits(ctx context.Context, recs []domain.ExitRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	dtos := make([]exitDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toExitDTO(rec)
	}

	url := p.client.signalsBase + exitsPath
	if err := p.client.postJSON(ctx, p.client.signalsLimiter, url, map[string]any{"exits": dtos}, nil); err != nil {
		return fmt.Errorf("marketdata.SubmitExits: %w", err)
	}
	return nil
}
