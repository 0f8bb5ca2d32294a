package domain

import (
	"context"
	"time"
)

// ListingStore is the marketplace persistence layer. Multiple independent
// agents mutate the same store concurrently, so every read-modify-write
// runs inside a ListingTx and callers re-validate a listing's existence
// immediately before mutating it.
type ListingStore interface {
	Get(ctx context.Context, id string) (Listing, error)
	ListBySegment(ctx context.Context, segmentID string) ([]Listing, error)
	ListByOwner(ctx context.Context, segmentID string, owner AgentID) ([]Listing, error)
	// ListCandidates returns listings in a segment neither owned nor
	// currently bid on by the given agent.
	ListCandidates(ctx context.Context, segmentID string, agent AgentID) ([]Listing, error)
	CountBySegment(ctx context.Context, segmentID string) (int, error)
	// ExpireByOwner rewrites the expiry of all of an owner's listings in a
	// segment to now, handing them to the store's expiry sweep.
	ExpireByOwner(ctx context.Context, segmentID string, owner AgentID, now time.Time) (int, error)

	Begin(ctx context.Context) (ListingTx, error)
}

// ListingTx batches listing and item mutations into one atomic commit.
// Either everything in the cycle persists or nothing does.
type ListingTx interface {
	Create(ctx context.Context, l Listing) error
	CreateItem(ctx context.Context, it ItemInstance) error
	// SetBid overwrites the bidder and bid amount of a listing.
	SetBid(ctx context.Context, listingID string, bidder AgentID, amount int64) error
	Delete(ctx context.Context, listingID string) error
	DeleteItem(ctx context.Context, itemID string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Catalog resolves item templates. It returns ErrNotFound for unknown ids;
// the workflows treat that as a routine miss, not an error.
type Catalog interface {
	Template(ctx context.Context, templateID string) (ItemTemplate, error)
}

// CatalogStore persists the item catalog that the in-memory registry is
// built from at startup.
type CatalogStore interface {
	All(ctx context.Context) ([]ItemTemplate, error)
	UpsertBatch(ctx context.Context, templates []ItemTemplate) error
}

// SegmentStore persists per-segment configuration so reconfiguration
// commands survive restarts.
type SegmentStore interface {
	List(ctx context.Context) ([]SegmentConfig, error)
	Upsert(ctx context.Context, cfg SegmentConfig) error
}

// Mint materializes item units for new listings and prices their deposits.
type Mint interface {
	CreateUnit(templateID string, count int, owner AgentID) ItemInstance
	Deposit(d time.Duration, tpl ItemTemplate, count int) int64
}

// Mail is one in-world message to a marketplace participant.
type Mail struct {
	Recipient AgentID
	Subject   string
	Body      string
	ListingID string
	Amount    int64
	CreatedAt time.Time
}

// MailStore queues in-world mail for delivery outside the engine.
type MailStore interface {
	Enqueue(ctx context.Context, m Mail) error
}

// Notifier delivers the marketplace notifications the workflows owe other
// participants. Delivery failures never abort a cycle.
type Notifier interface {
	// NotifyOutbid tells a previous bidder they were outbid at newAmount
	// and that their escrowed funds are returned.
	NotifyOutbid(ctx context.Context, l Listing, newAmount int64, recipient AgentID) error
	// NotifySuccess tells the seller their listing sold.
	NotifySuccess(ctx context.Context, l Listing) error
	// NotifyWon tells the winning bidder the item is theirs.
	NotifyWon(ctx context.Context, l Listing) error
}

// MarketPriceCache exposes tracked market prices per catalog template.
// GetPrice returns ErrNotFound when no price is tracked.
type MarketPriceCache interface {
	GetPrice(ctx context.Context, templateID string) (int64, error)
	SetPrice(ctx context.Context, templateID string, price int64, ts time.Time) error
}

// SignalBus is the pub/sub fabric carrying cycle summaries and trade events
// to observers (websocket hub, dashboards).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter archives payloads (cycle reports) to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
