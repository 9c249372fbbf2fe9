package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

func TestFetchCandidates_MergesMarketsAndSignals(t *testing.T) {
	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		json.NewEncoder(w).Encode([]gammaMarket{
			{
				ConditionID:   "0xaaa",
				Question:      "Will BTC close above $150k?",
				Category:      "Crypto",
				OutcomePrices: `["0.55", "0.45"]`,
				Liquidity:     "25000",
				Active:        true,
			},
			{
				// Sin señal del modelo: no es candidato
				ConditionID:   "0xbbb",
				Question:      "Will it rain in Madrid tomorrow?",
				OutcomePrices: `["0.30", "0.70"]`,
				Liquidity:     "5000",
				Active:        true,
			},
			{
				// Cerrado: descartado aunque tenga señal
				ConditionID:   "0xccc",
				Question:      "Already settled?",
				OutcomePrices: `["0.99", "0.01"]`,
				Liquidity:     "1000",
				Active:        true,
				Closed:        true,
			},
		})
	}))
	defer gamma.Close()

	signals := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/signals", r.URL.Path)
		json.NewEncoder(w).Encode(signalsResponse{Signals: []modelSignal{
			{MarketID: "0xaaa", Probability: 0.70, Confidence: 68},
			{MarketID: "0xccc", Probability: 0.90, Confidence: 50},
		}})
	}))
	defer signals.Close()

	p := NewProvider(NewClient(gamma.URL, signals.URL), 0.05)
	got, err := p.FetchCandidates(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "0xaaa", got[0].MarketID)
	assert.InDelta(t, 0.15, got[0].Edge, 1e-9)
	assert.Equal(t, domain.ActionBuyYes, got[0].Action)
}

func TestFetchCandidates_SignalsServiceDown(t *testing.T) {
	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]gammaMarket{})
	}))
	defer gamma.Close()

	signals := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer signals.Close()

	p := NewProvider(NewClient(gamma.URL, signals.URL), 0.05)
	_, err := p.FetchCandidates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch signals")
}

func TestOpenPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/positions", r.URL.Path)
		json.NewEncoder(w).Encode(positionsResponse{Positions: []positionDTO{
			{
				MarketID:   "m1",
				Side:       "YES",
				EntryPrice: 0.55,
				Size:       0.05,
				EnteredAt:  "2026-02-01T00:00:00Z",
			},
			{
				// Timestamp corrupto: se salta, no tumba el ciclo
				MarketID:  "m2",
				EnteredAt: "not-a-time",
			},
		}})
	}))
	defer srv.Close()

	pc := NewPositionClient(NewClient("unused", srv.URL))
	got, err := pc.OpenPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].MarketID)
	assert.Equal(t, domain.SideYes, got[0].Side)
}

func TestSubmitExits(t *testing.T) {
	var received struct {
		Exits []exitDTO `json:"exits"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/exits", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pc := NewPositionClient(NewClient("unused", srv.URL))
	err := pc.SubmitExits(context.Background(), []domain.ExitRecommendation{{
		MarketID: "m1",
		Primary:  domain.ExitSignal{Reason: domain.ExitStopLoss, Priority: domain.PriorityCritical},
		Urgency:  domain.UrgencyImmediate,
	}})
	require.NoError(t, err)
	require.Len(t, received.Exits, 1)
	assert.Equal(t, "STOP_LOSS", received.Exits[0].Reason)
}

func TestSubmitExits_EmptyIsNoop(t *testing.T) {
	pc := NewPositionClient(NewClient("unused", "http://127.0.0.1:1"))
	assert.NoError(t, pc.SubmitExits(context.Background(), nil))
}
