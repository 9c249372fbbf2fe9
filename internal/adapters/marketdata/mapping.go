package marketdata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// toMarketSignal combina la metadata de Gamma con la señal del modelo.
// El precio YES es el primer elemento de outcomePrices.
func toMarketSignal(gm gammaMarket, sig modelSignal, minEdge float64, now time.Time) (domain.MarketSignal, error) {
	price, err := yesPrice(gm.OutcomePrices)
	if err != nil {
		return domain.MarketSignal{}, fmt.Errorf("marketdata.toMarketSignal: %s: %w", gm.ConditionID, err)
	}

	liquidity, _ := gm.Liquidity.Float64()

	var resolution time.Time
	if gm.EndDateISO != "" {
		resolution, err = parseEndDate(gm.EndDateISO)
		if err != nil {
			return domain.MarketSignal{}, fmt.Errorf("marketdata.toMarketSignal: %s: %w", gm.ConditionID, err)
		}
	}

	return domain.NewMarketSignal(
		gm.ConditionID,
		gm.Question,
		domain.ParseCategory(gm.Category),
		sig.Probability,
		price,
		sig.Confidence,
		liquidity,
		minEdge,
		resolution,
		now,
	), nil
}

// yesPrice extrae el precio YES del campo outcomePrices de Gamma, que llega
// como string con un array JSON de strings dentro.
func yesPrice(outcomePrices string) (float64, error) {
	var prices []string
	if err := json.Unmarshal([]byte(outcomePrices), &prices); err != nil {
		return 0, fmt.Errorf("parse outcomePrices %q: %w", outcomePrices, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("outcomePrices vacío")
	}
	price, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse YES price %q: %w", prices[0], err)
	}
	return price, nil
}

// parseEndDate acepta los dos formatos de fecha que devuelve Gamma.
func parseEndDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse end date %q: %w", s, err)
	}
	return t, nil
}

// toPosition convierte una posición del servicio de ejecución.
func toPosition(dto positionDTO) (domain.Position, error) {
	enteredAt, err := time.Parse(time.RFC3339, dto.EnteredAt)
	if err != nil {
		return domain.Position{}, fmt.Errorf("marketdata.toPosition: %s: parse entered_at: %w", dto.MarketID, err)
	}

	var resolution time.Time
	if dto.Resolution != "" {
		resolution, err = time.Parse(time.RFC3339, dto.Resolution)
		if err != nil {
			return domain.Position{}, fmt.Errorf("marketdata.toPosition: %s: parse resolution: %w", dto.MarketID, err)
		}
	}

	side := domain.SideYes
	if dto.Side == string(domain.SideNo) {
		side = domain.SideNo
	}

	return domain.Position{
		MarketID:        dto.MarketID,
		Question:        dto.Question,
		Category:        domain.ParseCategory(dto.Category),
		Side:            side,
		EntryPrice:      dto.EntryPrice,
		Size:            dto.Size,
		EnteredAt:       enteredAt,
		Resolution:      resolution,
		EntryEdge:       dto.EntryEdge,
		EntryConfidence: dto.EntryConf,
	}, nil
}

// toExitDTO convierte una recomendación de salida al formato del servicio.
func toExitDTO(rec domain.ExitRecommendation) exitDTO {
	return exitDTO{
		MarketID:   rec.MarketID,
		Reason:     string(rec.Primary.Reason),
		Priority:   rec.Primary.Priority.String(),
		Urgency:    string(rec.Urgency),
		Message:    rec.Primary.Message,
		PnLPercent: rec.PnLPercent,
	}
}
