package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// ListingStore implements domain.ListingStore using PostgreSQL.
type ListingStore struct {
	pool *pgxpool.Pool
}

// NewListingStore creates a ListingStore backed by the given pool.
func NewListingStore(pool *pgxpool.Pool) *ListingStore {
	return &ListingStore{pool: pool}
}

const listingSelectCols = `id, segment_id, item_id, template_id, count, seller,
	start_bid, buyout, bid, bidder, deposit, created_at, expires_at`

func scanListing(scanner interface{ Scan(dest ...any) error }) (domain.Listing, error) {
	var l domain.Listing
	var seller, bidder string
	err := scanner.Scan(
		&l.ID, &l.SegmentID, &l.ItemID, &l.TemplateID, &l.Count, &seller,
		&l.StartBid, &l.Buyout, &l.Bid, &bidder, &l.Deposit,
		&l.CreatedAt, &l.ExpiresAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Seller = domain.AgentID(seller)
	l.Bidder = domain.AgentID(bidder)
	return l, nil
}

func collectListings(rows pgx.Rows) ([]domain.Listing, error) {
	defer rows.Close()
	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Get returns a listing by id, or domain.ErrNotFound.
func (s *ListingStore) Get(ctx context.Context, id string) (domain.Listing, error) {
	query := `SELECT ` + listingSelectCols + ` FROM listings WHERE id = $1`
	l, err := scanListing(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("postgres: get listing %s: %w", id, err)
	}
	return l, nil
}

// ListBySegment returns all listings of a segment.
func (s *ListingStore) ListBySegment(ctx context.Context, segmentID string) ([]domain.Listing, error) {
	query := `SELECT ` + listingSelectCols + ` FROM listings
		WHERE segment_id = $1 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query, segmentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list listings for %s: %w", segmentID, err)
	}
	out, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan listings for %s: %w", segmentID, err)
	}
	return out, nil
}

// ListByOwner returns a segment's listings sold by the given agent.
func (s *ListingStore) ListByOwner(ctx context.Context, segmentID string, owner domain.AgentID) ([]domain.Listing, error) {
	query := `SELECT ` + listingSelectCols + ` FROM listings
		WHERE segment_id = $1 AND seller = $2 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query, segmentID, string(owner))
	if err != nil {
		return nil, fmt.Errorf("postgres: list listings by owner: %w", err)
	}
	out, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan listings by owner: %w", err)
	}
	return out, nil
}

// ListCandidates returns a segment's listings neither owned nor currently
// bid on by the given agent.
func (s *ListingStore) ListCandidates(ctx context.Context, segmentID string, agent domain.AgentID) ([]domain.Listing, error) {
	query := `SELECT ` + listingSelectCols + ` FROM listings
		WHERE segment_id = $1 AND seller <> $2 AND bidder <> $2`
	rows, err := s.pool.Query(ctx, query, segmentID, string(agent))
	if err != nil {
		return nil, fmt.Errorf("postgres: list candidates: %w", err)
	}
	out, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan candidates: %w", err)
	}
	return out, nil
}

// CountBySegment returns the number of active listings in a segment.
func (s *ListingStore) CountBySegment(ctx context.Context, segmentID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM listings WHERE segment_id = $1`, segmentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count listings for %s: %w", segmentID, err)
	}
	return n, nil
}

// ExpireByOwner rewrites the expiry of an owner's listings in a segment to
// now and returns how many rows were touched.
func (s *ListingStore) ExpireByOwner(ctx context.Context, segmentID string, owner domain.AgentID, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE listings SET expires_at = $3 WHERE segment_id = $1 AND seller = $2`,
		segmentID, string(owner), now,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: expire listings by owner: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Begin starts a listing transaction.
func (s *ListingStore) Begin(ctx context.Context) (domain.ListingTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin listing tx: %w", err)
	}
	return &listingTx{tx: tx}, nil
}

// listingTx implements domain.ListingTx over a pgx transaction.
type listingTx struct {
	tx pgx.Tx
}

func (t *listingTx) Create(ctx context.Context, l domain.Listing) error {
	const query = `
		INSERT INTO listings (
			id, segment_id, item_id, template_id, count, seller,
			start_bid, buyout, bid, bidder, deposit, created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13
		)`
	_, err := t.tx.Exec(ctx, query,
		l.ID, l.SegmentID, l.ItemID, l.TemplateID, l.Count, string(l.Seller),
		l.StartBid, l.Buyout, l.Bid, string(l.Bidder), l.Deposit,
		l.CreatedAt, l.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create listing %s: %w", l.ID, err)
	}
	return nil
}

func (t *listingTx) CreateItem(ctx context.Context, it domain.ItemInstance) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO items (id, template_id, count, owner) VALUES ($1, $2, $3, $4)`,
		it.ID, it.TemplateID, it.Count, string(it.Owner),
	)
	if err != nil {
		return fmt.Errorf("postgres: create item %s: %w", it.ID, err)
	}
	return nil
}

func (t *listingTx) SetBid(ctx context.Context, listingID string, bidder domain.AgentID, amount int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE listings SET bid = $2, bidder = $3 WHERE id = $1`,
		listingID, amount, string(bidder),
	)
	if err != nil {
		return fmt.Errorf("postgres: set bid on %s: %w", listingID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *listingTx) Delete(ctx context.Context, listingID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM listings WHERE id = $1`, listingID)
	if err != nil {
		return fmt.Errorf("postgres: delete listing %s: %w", listingID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *listingTx) DeleteItem(ctx context.Context, itemID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("postgres: delete item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *listingTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit listing tx: %w", err)
	}
	return nil
}

func (t *listingTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback listing tx: %w", err)
	}
	return nil
}

var _ domain.ListingStore = (*ListingStore)(nil)
