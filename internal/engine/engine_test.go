package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/catalog"
	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// testLogger discards output so test runs stay quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memListingStore is an in-memory ListingStore. Transactions buffer their
// mutations and apply them atomically on Commit, so commit failures leave
// the store untouched.
type memListingStore struct {
	mu       sync.Mutex
	listings map[string]domain.Listing
	items    map[string]domain.ItemInstance

	failCommit bool
	commits    int
}

func newMemListingStore() *memListingStore {
	return &memListingStore{
		listings: make(map[string]domain.Listing),
		items:    make(map[string]domain.ItemInstance),
	}
}

func (s *memListingStore) put(l domain.Listing) {
	s.mu.Lock()
	s.listings[l.ID] = l
	s.mu.Unlock()
}

func (s *memListingStore) Get(_ context.Context, id string) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *memListingStore) ListBySegment(_ context.Context, segmentID string) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Listing
	for _, l := range s.listings {
		if l.SegmentID == segmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memListingStore) ListByOwner(_ context.Context, segmentID string, owner domain.AgentID) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Listing
	for _, l := range s.listings {
		if l.SegmentID == segmentID && l.Seller == owner {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memListingStore) ListCandidates(_ context.Context, segmentID string, agent domain.AgentID) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Listing
	for _, l := range s.listings {
		if l.SegmentID == segmentID && l.Seller != agent && l.Bidder != agent {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memListingStore) CountBySegment(_ context.Context, segmentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.listings {
		if l.SegmentID == segmentID {
			n++
		}
	}
	return n, nil
}

func (s *memListingStore) ExpireByOwner(_ context.Context, segmentID string, owner domain.AgentID, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, l := range s.listings {
		if l.SegmentID == segmentID && l.Seller == owner {
			l.ExpiresAt = now
			s.listings[id] = l
			n++
		}
	}
	return n, nil
}

func (s *memListingStore) Begin(context.Context) (domain.ListingTx, error) {
	return &memTx{store: s}, nil
}

type memTx struct {
	store *memListingStore
	ops   []func()
	done  bool
}

func (t *memTx) Create(_ context.Context, l domain.Listing) error {
	t.ops = append(t.ops, func() { t.store.listings[l.ID] = l })
	return nil
}

func (t *memTx) CreateItem(_ context.Context, it domain.ItemInstance) error {
	t.ops = append(t.ops, func() { t.store.items[it.ID] = it })
	return nil
}

func (t *memTx) SetBid(_ context.Context, listingID string, bidder domain.AgentID, amount int64) error {
	t.ops = append(t.ops, func() {
		if l, ok := t.store.listings[listingID]; ok {
			l.Bidder = bidder
			l.Bid = amount
			t.store.listings[listingID] = l
		}
	})
	return nil
}

func (t *memTx) Delete(_ context.Context, listingID string) error {
	t.ops = append(t.ops, func() { delete(t.store.listings, listingID) })
	return nil
}

func (t *memTx) DeleteItem(_ context.Context, itemID string) error {
	t.ops = append(t.ops, func() { delete(t.store.items, itemID) })
	return nil
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return fmt.Errorf("tx already finished")
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.failCommit {
		return fmt.Errorf("simulated commit failure")
	}
	for _, op := range t.ops {
		op()
	}
	t.store.commits++
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	t.done = true
	t.ops = nil
	return nil
}

// memPriceCache is an in-memory MarketPriceCache.
type memPriceCache struct {
	prices map[string]int64
}

func (c *memPriceCache) GetPrice(_ context.Context, templateID string) (int64, error) {
	p, ok := c.prices[templateID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return p, nil
}

func (c *memPriceCache) SetPrice(_ context.Context, templateID string, price int64, _ time.Time) error {
	c.prices[templateID] = price
	return nil
}

// recordingNotifier records every notification it is asked to deliver.
type recordingNotifier struct {
	outbid  []domain.AgentID
	success []string
	won     []string
}

func (n *recordingNotifier) NotifyOutbid(_ context.Context, l domain.Listing, _ int64, recipient domain.AgentID) error {
	n.outbid = append(n.outbid, recipient)
	return nil
}

func (n *recordingNotifier) NotifySuccess(_ context.Context, l domain.Listing) error {
	n.success = append(n.success, l.ID)
	return nil
}

func (n *recordingNotifier) NotifyWon(_ context.Context, l domain.Listing) error {
	n.won = append(n.won, l.ID)
	return nil
}

// memBus collects published payloads per channel.
type memBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newMemBus() *memBus {
	return &memBus{published: make(map[string][][]byte)}
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	b.published[channel] = append(b.published[channel], payload)
	b.mu.Unlock()
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

// tradeGoodTemplate and itemTemplate build catalog entries with enough
// fields for engine tests.
func itemTemplate(id string, q domain.Quality, sellPrice int64, maxStack int) domain.ItemTemplate {
	return domain.ItemTemplate{
		ID:        id,
		Name:      id,
		Quality:   q,
		Kind:      domain.KindItem,
		ItemLevel: 10,
		BuyPrice:  sellPrice * 4,
		SellPrice: sellPrice,
		MaxStack:  maxStack,
	}
}

func tradeGoodTemplate(id string, q domain.Quality, sellPrice int64, maxStack int) domain.ItemTemplate {
	t := itemTemplate(id, q, sellPrice, maxStack)
	t.Kind = domain.KindTradeGood
	return t
}

func registryOf(templates ...domain.ItemTemplate) *catalog.Registry {
	return catalog.NewRegistry(templates, testLogger())
}

// baseSegmentConfig returns a permissive configuration that tests tighten
// as needed.
func baseSegmentConfig() domain.SegmentConfig {
	cfg := domain.SegmentConfig{
		ID:            "test",
		Name:          "Test Segment",
		SellerEnabled: true,
		BuyerEnabled:  true,
		MinItems:      100,
		MaxItems:      1000,
		ItemsPerCycle: 10,
		DuplicateCap:  0,

		SellZeroPriceItems: true,
		DurationClass:      domain.DurationLong,
		BiddingInterval:    time.Hour,
		BidsPerInterval:    1,
	}
	for i := range cfg.Percents {
		cfg.Percents[i] = 100
	}
	for q := 0; q < domain.NumQualities; q++ {
		cfg.MinPriceFactor[q] = 25
		cfg.MaxPriceFactor[q] = 25
		cfg.MinBidFactor[q] = 100
		cfg.MaxBidFactor[q] = 100
		cfg.BuyerPriceRatio[q] = 1
	}
	return cfg
}
