package storage

// sqlite.go — persistencia de recomendaciones e historia de resultados.
//
// Estrategia:
//   - `cycles`: resumen ligero por ciclo (recuento, mejor edge). Siempre 1 fila.
//   - `recommendations`: una fila por recomendación aceptada.
//   - `outcomes`: una fila por señal emitida; el outcome se fija una sola vez
//     cuando el mercado resuelve (UPDATE condicionado a outcome IS NULL).
//   - Cache en memoria de ids ya registrados: el mismo mercado aceptado en
//     ciclos consecutivos no reinserta su señal.
//   - Prune automático al arrancar: cycles > 30d, outcomes resueltos > 90d.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de análisis
CREATE TABLE IF NOT EXISTS cycles (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    analyzed_at DATETIME NOT NULL,
    accepted    INTEGER  NOT NULL DEFAULT 0,
    best_edge   REAL     NOT NULL DEFAULT 0
);

-- Una fila por recomendación aceptada
CREATE TABLE IF NOT EXISTS recommendations (
    id           TEXT PRIMARY KEY,
    market_id    TEXT NOT NULL,
    question     TEXT,
    category     TEXT NOT NULL,
    action       TEXT NOT NULL,
    price        REAL NOT NULL DEFAULT 0,
    raw_edge     REAL NOT NULL DEFAULT 0,
    edge         REAL NOT NULL DEFAULT 0,
    confidence   REAL NOT NULL DEFAULT 0,
    kelly_base   REAL NOT NULL DEFAULT 0,
    final_size   REAL NOT NULL DEFAULT 0,
    generated_at DATETIME NOT NULL
);

-- Historia de señales para la calibración adaptativa
CREATE TABLE IF NOT EXISTS outcomes (
    id          TEXT PRIMARY KEY,
    market_id   TEXT NOT NULL,
    category    TEXT NOT NULL,
    action      TEXT NOT NULL,
    edge        REAL NOT NULL DEFAULT 0,
    confidence  REAL NOT NULL DEFAULT 0,
    emitted_at  DATETIME NOT NULL,
    outcome     TEXT,
    resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_cycles_at    ON cycles(analyzed_at DESC);
CREATE INDEX IF NOT EXISTS idx_rec_at       ON recommendations(generated_at DESC);
CREATE INDEX IF NOT EXISTS idx_rec_market   ON recommendations(market_id);
CREATE INDEX IF NOT EXISTS idx_out_window   ON outcomes(category, action, emitted_at DESC);
`

const (
	retentionCycles   = 30 * 24 * time.Hour // ciclos: 30 días
	retentionOutcomes = 90 * 24 * time.Hour // outcomes resueltos: 90 días
	fetchOutcomesCap  = 500                 // el caller aplica su propia ventana encima
)

// SQLiteStore implementa ports.Storage y ports.OutcomeHistory usando SQLite
// (pure Go, sin CGo).
type SQLiteStore struct {
	db       *sql.DB
	recorded map[string]bool // ids de señales ya registradas
	mu       sync.Mutex
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache de ids.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		recorded: make(map[string]bool),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SaveCycle persiste el resumen del ciclo y las recomendaciones aceptadas.
func (s *SQLiteStore) SaveCycle(ctx context.Context, recs []domain.Recommendation) error {
	now := time.Now().UTC()

	// 1. Resumen del ciclo — siempre una fila, pesa ~30 bytes
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (analyzed_at, accepted, best_edge) VALUES (?, ?, ?)`,
		now.Format(time.RFC3339), len(recs), bestEdge(recs),
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert cycle: %w", err)
	}

	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO recommendations
			(id, market_id, question, category, action, price, raw_edge, edge,
			 confidence, kelly_base, final_size, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.Signal.MarketID,
			rec.Signal.Question,
			string(rec.Signal.Category),
			string(rec.Signal.Action),
			rec.Signal.Price,
			rec.RawEdge,
			rec.Signal.Edge,
			rec.Signal.Confidence,
			rec.KellyBase,
			rec.FinalSize,
			rec.GeneratedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("storage.SaveCycle: insert %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCycle: commit: %w", err)
	}
	return nil
}

// GetRecommendations devuelve las recomendaciones generadas en el rango dado,
// más recientes primero.
func (s *SQLiteStore) GetRecommendations(ctx context.Context, from, to time.Time) ([]domain.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, question, category, action, price, raw_edge, edge,
		       confidence, kelly_base, final_size, generated_at
		FROM recommendations
		WHERE generated_at BETWEEN ? AND ?
		ORDER BY generated_at DESC
	`, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("storage.GetRecommendations: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.Recommendation
	for rows.Next() {
		var rec domain.Recommendation
		var cat, action, generatedAt string

		if err := rows.Scan(
			&rec.ID,
			&rec.Signal.MarketID,
			&rec.Signal.Question,
			&cat,
			&action,
			&rec.Signal.Price,
			&rec.RawEdge,
			&rec.Signal.Edge,
			&rec.Signal.Confidence,
			&rec.KellyBase,
			&rec.FinalSize,
			&generatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRecommendations: scan row: %w", err)
		}

		rec.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
		rec.Signal.Category = domain.Category(cat)
		rec.Signal.Action = domain.Action(action)
		rec.Accepted = true
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// FetchOutcomes devuelve los records de categoría+acción emitidos desde
// `since`, más recientes primero. Acotado a fetchOutcomesCap filas.
func (s *SQLiteStore) FetchOutcomes(ctx context.Context, cat domain.Category, action domain.Action, since time.Time) ([]domain.OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, category, action, edge, confidence, emitted_at,
		       COALESCE(outcome, ''), COALESCE(resolved_at, '')
		FROM outcomes
		WHERE category = ? AND action = ? AND emitted_at >= ?
		ORDER BY emitted_at DESC
		LIMIT ?
	`, string(cat), string(action), since.UTC().Format(time.RFC3339), fetchOutcomesCap)
	if err != nil {
		return nil, fmt.Errorf("storage.FetchOutcomes: query: %w", err)
	}
	defer rows.Close()

	var records []domain.OutcomeRecord
	for rows.Next() {
		var rec domain.OutcomeRecord
		var recCat, recAction, emittedAt, outcome, resolvedAt string

		if err := rows.Scan(
			&rec.ID,
			&rec.MarketID,
			&recCat,
			&recAction,
			&rec.Edge,
			&rec.Confidence,
			&emittedAt,
			&outcome,
			&resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.FetchOutcomes: scan row: %w", err)
		}

		rec.EmittedAt, _ = time.Parse(time.RFC3339, emittedAt)
		rec.Category = domain.Category(recCat)
		rec.Action = domain.Action(recAction)
		rec.Outcome = domain.Outcome(outcome)
		if resolvedAt != "" {
			rec.ResolvedAt, _ = time.Parse(time.RFC3339, resolvedAt)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// RecordSignal registra una señal emitida con outcome aún desconocido.
// Reinsertar el mismo id es un no-op.
func (s *SQLiteStore) RecordSignal(ctx context.Context, rec domain.OutcomeRecord) error {
	s.mu.Lock()
	if s.recorded[rec.ID] {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO outcomes
			(id, market_id, category, action, edge, confidence, emitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.MarketID,
		string(rec.Category),
		string(rec.Action),
		rec.Edge,
		rec.Confidence,
		rec.EmittedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("storage.RecordSignal: insert %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	s.recorded[rec.ID] = true
	s.mu.Unlock()
	return nil
}

// ResolveOutcome fija el resultado de un record. Idempotente: el WHERE
// condicionado a outcome IS NULL garantiza que un record resuelto nunca
// se sobreescribe, y reintentos con el mismo id no reaplican nada.
func (s *SQLiteStore) ResolveOutcome(ctx context.Context, id string, outcome domain.Outcome, resolvedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE outcomes
		SET outcome = ?, resolved_at = ?
		WHERE id = ? AND outcome IS NULL
	`, string(outcome), resolvedAt.UTC().Format(time.RFC3339), id); err != nil {
		return fmt.Errorf("storage.ResolveOutcome: update %s: %w", id, err)
	}
	return nil
}

// ResolvedReturns devuelve los retornos por señal resuelta desde `since`,
// ordenados por fecha de resolución. El retorno por señal es un proxy:
// +|edge| si la predicción acertó, -|edge| si falló. La tabla de outcomes no
// guarda el precio de entrada, así que el PnL exacto no es reconstruible;
// para métricas de riesgo agregadas el proxy basta.
func (s *SQLiteStore) ResolvedReturns(ctx context.Context, since time.Time) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, edge, outcome
		FROM outcomes
		WHERE outcome IS NOT NULL AND resolved_at >= ?
		ORDER BY resolved_at ASC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("storage.ResolvedReturns: query: %w", err)
	}
	defer rows.Close()

	var returns []float64
	for rows.Next() {
		var action, outcome string
		var edge float64
		if err := rows.Scan(&action, &edge, &outcome); err != nil {
			return nil, fmt.Errorf("storage.ResolvedReturns: scan row: %w", err)
		}

		rec := domain.OutcomeRecord{
			Action:  domain.Action(action),
			Edge:    edge,
			Outcome: domain.Outcome(outcome),
		}
		r := math.Abs(edge)
		if !rec.PredictionCorrect() {
			r = -r
		}
		returns = append(returns, r)
	}

	return returns, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina datos antiguos para mantener la DB ligera. Los outcomes
// sin resolver no se tocan: la calibración aún puede necesitarlos.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoffCycles := time.Now().UTC().Add(-retentionCycles)
	cutoffOutcomes := time.Now().UTC().Add(-retentionOutcomes)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE analyzed_at < ?`, cutoffCycles.Format(time.RFC3339))
	s.db.ExecContext(ctx, `DELETE FROM outcomes WHERE outcome IS NOT NULL AND resolved_at < ?`, cutoffOutcomes.Format(time.RFC3339))
}

// warmCache precarga los ids de señales registradas, evitando inserts
// redundantes tras un reinicio.
func (s *SQLiteStore) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM outcomes`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			s.recorded[id] = true
		}
	}
}

// bestEdge devuelve el mayor edge absoluto del ciclo.
func bestEdge(recs []domain.Recommendation) float64 {
	var best float64
	for _, r := range recs {
		edge := r.Signal.Edge
		if edge < 0 {
			edge = -edge
		}
		if edge > best {
			best = edge
		}
	}
	return best
}
