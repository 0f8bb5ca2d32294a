package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// SegmentStore implements domain.SegmentStore using PostgreSQL. Segment
// configurations are stored as JSONB so reconfiguration commands survive
// restarts without schema churn.
type SegmentStore struct {
	pool *pgxpool.Pool
}

// NewSegmentStore creates a SegmentStore backed by the given pool.
func NewSegmentStore(pool *pgxpool.Pool) *SegmentStore {
	return &SegmentStore{pool: pool}
}

// List returns every persisted segment configuration.
func (s *SegmentStore) List(ctx context.Context) ([]domain.SegmentConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT config FROM segments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list segments: %w", err)
	}
	defer rows.Close()

	var out []domain.SegmentConfig
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("postgres: scan segment row: %w", err)
		}
		var cfg domain.SegmentConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("postgres: decode segment config: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: read segments: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces a segment configuration.
func (s *SegmentStore) Upsert(ctx context.Context, cfg domain.SegmentConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("postgres: encode segment %s: %w", cfg.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO segments (id, config, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()`,
		cfg.ID, raw,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert segment %s: %w", cfg.ID, err)
	}
	return nil
}

var _ domain.SegmentStore = (*SegmentStore)(nil)
