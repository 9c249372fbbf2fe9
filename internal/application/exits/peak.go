package exits

import (
	"sync"
	"time"
)

type peakEntry struct {
	value   float64
	updated time.Time
}

// PeakTracker guarda el máximo P&L% observado por posición. El scan de
// salidas y el pipeline de entrada pueden correr a la vez, así que cada
// read-modify-write va bajo el mutex. Las entradas se borran al cerrar
// la posición para acotar memoria; Prune cubre los cierres que el store
// nunca nos comunicó.
type PeakTracker struct {
	mu    sync.Mutex
	peaks map[string]peakEntry
	now   func() time.Time
}

func NewPeakTracker() *PeakTracker {
	return &PeakTracker{
		peaks: make(map[string]peakEntry),
		now:   time.Now,
	}
}

// Observe registra el P&L actual y devuelve el máximo histórico de la
// posición, incluyendo esta observación.
func (t *PeakTracker) Observe(positionID string, pnl float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.peaks[positionID]
	if !ok || pnl > entry.value {
		entry = peakEntry{value: pnl, updated: now}
	} else {
		entry.updated = now
	}
	t.peaks[positionID] = entry
	return entry.value
}

// Peek devuelve el máximo registrado sin modificarlo.
func (t *PeakTracker) Peek(positionID string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.peaks[positionID]
	return entry.value, ok
}

// Forget elimina el registro de una posición cerrada.
func (t *PeakTracker) Forget(positionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peaks, positionID)
}

// Prune elimina entradas que no se observan desde hace maxAge.
// Devuelve cuántas se eliminaron.
func (t *PeakTracker) Prune(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxAge)
	removed := 0
	for id, entry := range t.peaks {
		if entry.updated.Before(cutoff) {
			delete(t.peaks, id)
			removed++
		}
	}
	return removed
}

// Len devuelve el número de posiciones con peak registrado.
func (t *PeakTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.peaks)
}
