package domain

import "time"

// Side es el lado de una posición abierta.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Position es una posición abierta suministrada por el position store.
// Read-only para el pipeline: solo el tracker de peak P&L asociado se muta.
type Position struct {
	MarketID   string
	Question   string
	Category   Category
	Side       Side
	EntryPrice float64 // precio YES al entrar
	Size       float64 // fracción del bankroll
	EnteredAt  time.Time
	Resolution time.Time // cero si no hay fecha de resolución

	// Snapshot de la señal que originó la entrada.
	EntryEdge       float64
	EntryConfidence float64
}

// PnLPercent devuelve el P&L porcentual de la posición dado el precio YES actual.
// La fórmula es asimétrica por lado: una posición NO gana cuando el precio YES
// baja, y su base de coste es (1 - entry), no entry.
//
//	YES: (current - entry) / entry
//	NO:  (entry - current) / (1 - entry)
//
// Devuelve 0 si el precio de entrada hace la división degenerada.
func (p Position) PnLPercent(currentPrice float64) float64 {
	switch p.Side {
	case SideYes:
		if p.EntryPrice <= 0 {
			return 0
		}
		return (currentPrice - p.EntryPrice) / p.EntryPrice
	case SideNo:
		base := 1.0 - p.EntryPrice
		if base <= 0 {
			return 0
		}
		return (p.EntryPrice - currentPrice) / base
	default:
		return 0
	}
}

// DaysHeld devuelve los días que lleva abierta la posición.
func (p Position) DaysHeld(now time.Time) float64 {
	if p.EnteredAt.IsZero() {
		return 0
	}
	d := now.Sub(p.EnteredAt).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// DaysToResolution devuelve los días hasta la resolución, 0 si no hay fecha.
func (p Position) DaysToResolution(now time.Time) float64 {
	if p.Resolution.IsZero() {
		return 0
	}
	d := p.Resolution.Sub(now).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// PredictsYes devuelve true si la posición apuesta por resolución YES.
func (p Position) PredictsYes() bool {
	return p.Side == SideYes
}
