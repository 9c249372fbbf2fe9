package domain

import "time"

// Outcome es la resolución final de un mercado.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// OutcomeRecord registra una señal emitida y, cuando el mercado resuelve,
// su resultado. Se crea con Outcome vacío al emitir la señal y se muta
// EXACTAMENTE una vez al resolverse. Un record ya resuelto es inmutable:
// reintentos de resolución deben ser idempotentes (mismo id → mismo estado
// final, nunca doble aplicación).
type OutcomeRecord struct {
	ID         string
	MarketID   string
	Category   Category
	Action     Action
	Edge       float64
	Confidence float64
	EmittedAt  time.Time
	Outcome    Outcome   // vacío mientras el mercado no resuelve
	ResolvedAt time.Time // cero mientras el mercado no resuelve
}

// Resolved devuelve true si el record tiene resultado final.
func (r OutcomeRecord) Resolved() bool {
	return r.Outcome == OutcomeYes || r.Outcome == OutcomeNo
}

// PredictionCorrect devuelve true si la dirección predicha por la acción
// coincide con el resultado resuelto. Devuelve false para records sin resolver.
func (r OutcomeRecord) PredictionCorrect() bool {
	if !r.Resolved() {
		return false
	}
	predictedYes := r.Action.PredictsYes()
	return (predictedYes && r.Outcome == OutcomeYes) ||
		(!predictedYes && r.Outcome == OutcomeNo)
}
