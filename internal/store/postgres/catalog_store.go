package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// CatalogStore implements domain.CatalogStore using PostgreSQL.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a CatalogStore backed by the given pool.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// templateRow is the column shape of one item_templates row. Quality is
// stored numerically; kind and class are stored as their text names so the
// rows stay readable and survive enum reordering.
type templateRow struct {
	ID        string
	Name      string
	Quality   int
	Kind      string
	Class     string
	ItemLevel int
	BuyPrice  int64
	SellPrice int64
	MaxStack  int
}

func rowFromTemplate(t domain.ItemTemplate) templateRow {
	class := t.Class
	if class == "" {
		class = domain.ClassGeneric
	}
	return templateRow{
		ID:        t.ID,
		Name:      t.Name,
		Quality:   int(t.Quality),
		Kind:      t.Kind.String(),
		Class:     string(class),
		ItemLevel: t.ItemLevel,
		BuyPrice:  t.BuyPrice,
		SellPrice: t.SellPrice,
		MaxStack:  t.MaxStack,
	}
}

func (r templateRow) toTemplate() (domain.ItemTemplate, error) {
	kind, err := domain.ParseItemKind(r.Kind)
	if err != nil {
		return domain.ItemTemplate{}, fmt.Errorf("postgres: template %s: %w", r.ID, err)
	}
	return domain.ItemTemplate{
		ID:        r.ID,
		Name:      r.Name,
		Quality:   domain.Quality(r.Quality),
		Kind:      kind,
		Class:     domain.ItemClass(r.Class),
		ItemLevel: r.ItemLevel,
		BuyPrice:  r.BuyPrice,
		SellPrice: r.SellPrice,
		MaxStack:  r.MaxStack,
	}, nil
}

// All returns every item template in the catalog.
func (s *CatalogStore) All(ctx context.Context) ([]domain.ItemTemplate, error) {
	const query = `
		SELECT id, name, quality, kind, class, item_level,
			buy_price, sell_price, max_stack
		FROM item_templates ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: load catalog: %w", err)
	}
	defer rows.Close()

	var out []domain.ItemTemplate
	for rows.Next() {
		var r templateRow
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Quality, &r.Kind, &r.Class, &r.ItemLevel,
			&r.BuyPrice, &r.SellPrice, &r.MaxStack,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan catalog row: %w", err)
		}
		t, err := r.toTemplate()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: read catalog: %w", err)
	}
	return out, nil
}

// UpsertBatch inserts or replaces item templates in one transaction.
func (s *CatalogStore) UpsertBatch(ctx context.Context, templates []domain.ItemTemplate) error {
	if len(templates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin catalog upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO item_templates (
			id, name, quality, kind, class, item_level,
			buy_price, sell_price, max_stack, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			quality = EXCLUDED.quality,
			kind = EXCLUDED.kind,
			class = EXCLUDED.class,
			item_level = EXCLUDED.item_level,
			buy_price = EXCLUDED.buy_price,
			sell_price = EXCLUDED.sell_price,
			max_stack = EXCLUDED.max_stack,
			updated_at = NOW()`

	batch := &pgx.Batch{}
	for _, t := range templates {
		r := rowFromTemplate(t)
		batch.Queue(query,
			r.ID, r.Name, r.Quality, r.Kind, r.Class,
			r.ItemLevel, r.BuyPrice, r.SellPrice, r.MaxStack,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range templates {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: upsert template: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close catalog batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit catalog upsert: %w", err)
	}
	return nil
}

var _ domain.CatalogStore = (*CatalogStore)(nil)
