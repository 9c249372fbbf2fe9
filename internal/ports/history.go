package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// OutcomeHistory es el collaborator de historia de resultados que alimenta
// la calibración adaptativa.
type OutcomeHistory interface {
	// FetchOutcomes devuelve los records de categoría+acción emitidos desde
	// `since`, más recientes primero. La implementación puede acotar el
	// resultado; el caller aplica su propio cap de ventana.
	FetchOutcomes(ctx context.Context, cat domain.Category, action domain.Action, since time.Time) ([]domain.OutcomeRecord, error)

	// RecordSignal registra una señal emitida (outcome aún desconocido).
	RecordSignal(ctx context.Context, rec domain.OutcomeRecord) error

	// ResolveOutcome fija el resultado de un record. Idempotente: llamadas
	// repetidas con el mismo id no reaplican el cambio; un record ya
	// resuelto nunca se sobreescribe.
	ResolveOutcome(ctx context.Context, id string, outcome domain.Outcome, resolvedAt time.Time) error
}
