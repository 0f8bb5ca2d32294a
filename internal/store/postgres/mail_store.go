package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// MailStore implements domain.MailStore using PostgreSQL. The engine only
// enqueues; delivery is handled by whatever in-world mail system drains the
// table.
type MailStore struct {
	pool *pgxpool.Pool
}

// NewMailStore creates a MailStore backed by the given pool.
func NewMailStore(pool *pgxpool.Pool) *MailStore {
	return &MailStore{pool: pool}
}

// Enqueue stores one mail for later delivery.
func (s *MailStore) Enqueue(ctx context.Context, m domain.Mail) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mail (recipient, subject, body, listing_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(m.Recipient), m.Subject, m.Body, m.ListingID, m.Amount, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: enqueue mail for %s: %w", m.Recipient, err)
	}
	return nil
}

var _ domain.MailStore = (*MailStore)(nil)
