package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/pkg/logger"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id         TEXT PRIMARY KEY,
	saved_at   TIMESTAMPTZ NOT NULL,
	signals    JSONB,
	candidates JSONB
);
CREATE INDEX IF NOT EXISTS pipeline_runs_saved_at_idx ON pipeline_runs (saved_at DESC);
`

// PostgresStore persists runs in a shared database. It satisfies the same
// contract as FileStore; an upsert keyed by run id makes the two-step save
// (signals first, candidates later) idempotent.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
	now    func() time.Time
}

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresLogger sets a custom logger for the Postgres store.
func WithPostgresLogger(l logger.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPostgresClock overrides the time source. Intended for tests.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(s *PostgresStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPostgresStore connects to the database and ensures the runs schema
// exists.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger.Get().Named("pgstore"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := pool.Exec(ctx, runsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring runs schema: %w", err)
	}

	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// SaveSignals records the retained signals of a run.
func (s *PostgresStore) SaveSignals(ctx context.Context, runID string, signals []model.Signal) error {
	payload, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("encoding signals: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (id, saved_at, signals)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at, signals = EXCLUDED.signals`,
		runID, s.now(), payload,
	)
	if err != nil {
		return fmt.Errorf("saving signals for run %s: %w", runID, err)
	}

	s.logger.Debug(ctx, "persisted signals",
		logger.String("run_id", runID),
		logger.Int("count", len(signals)),
	)

	return nil
}

// Save records the ranked candidates of a run.
func (s *PostgresStore) Save(ctx context.Context, runID string, candidates []model.Candidate) error {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encoding candidates: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (id, saved_at, candidates)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at, candidates = EXCLUDED.candidates`,
		runID, s.now(), payload,
	)
	if err != nil {
		return fmt.Errorf("saving candidates for run %s: %w", runID, err)
	}

	s.logger.Debug(ctx, "persisted candidates",
		logger.String("run_id", runID),
		logger.Int("count", len(candidates)),
	)

	return nil
}

// LoadLatestSignals returns the signals of the most recently saved run.
func (s *PostgresStore) LoadLatestSignals(ctx context.Context) ([]model.Signal, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(signals, 'null'::jsonb) FROM pipeline_runs
		ORDER BY saved_at DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest signals: %w", err)
	}

	var signals []model.Signal
	if err := json.Unmarshal(payload, &signals); err != nil {
		return nil, fmt.Errorf("decoding signals: %w", err)
	}
	return signals, nil
}

// LoadLatest returns the ranked candidates of the most recently saved run.
func (s *PostgresStore) LoadLatest(ctx context.Context) ([]model.Candidate, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(candidates, 'null'::jsonb) FROM pipeline_runs
		ORDER BY saved_at DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest candidates: %w", err)
	}

	var candidates []model.Candidate
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return nil, fmt.Errorf("decoding candidates: %w", err)
	}
	return candidates, nil
}

// LoadRun returns one persisted run by id.
func (s *PostgresStore) LoadRun(ctx context.Context, runID string) (model.Run, error) {
	var (
		run               model.Run
		sigsRaw, candsRaw []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, saved_at, COALESCE(signals, 'null'::jsonb), COALESCE(candidates, 'null'::jsonb)
		FROM pipeline_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.SavedAt, &sigsRaw, &candsRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Run{}, fmt.Errorf("run %s: %w", runID, ErrNoRuns)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("loading run %s: %w", runID, err)
	}

	if err := json.Unmarshal(sigsRaw, &run.Signals); err != nil {
		return model.Run{}, fmt.Errorf("decoding signals: %w", err)
	}
	if err := json.Unmarshal(candsRaw, &run.Candidates); err != nil {
		return model.Run{}, fmt.Errorf("decoding candidates: %w", err)
	}
	return run, nil
}
