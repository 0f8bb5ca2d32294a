package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

var buyerAgent = domain.Agent{ID: "buyer-bot", Name: "buyer-bot"}

var testBots = map[domain.AgentID]bool{
	sellerAgent.ID: true,
	buyerAgent.ID:  true,
}

func newTestBuyer(store *memListingStore, seed int64, notifier domain.Notifier, templates ...domain.ItemTemplate) *Buyer {
	rng := rand.New(rand.NewSource(seed))
	pricer := NewPricer(nil, rng, testLogger())
	return NewBuyer(store, registryOf(templates...), pricer, notifier, testBots, rng, testLogger())
}

// buyerScenario stages one human-owned candidate listing. The ore template
// has BuyPrice 400; with a buyer ratio of 2 the ceiling for a single unit is
// 800.
func buyerScenario(startBid, bid, buyout int64, bidder domain.AgentID) (*memListingStore, *domain.Segment, domain.ItemTemplate) {
	store := newMemListingStore()
	cfg := baseSegmentConfig()
	cfg.BuyerPriceRatio[domain.QualityNormal] = 2
	seg := domain.NewSegment(cfg)

	store.put(domain.Listing{
		ID: "l1", SegmentID: cfg.ID, ItemID: "i1", TemplateID: "ore",
		Count: 1, Seller: "human", StartBid: startBid, Bid: bid, Bidder: bidder,
		Buyout: buyout,
	})
	store.items["i1"] = domain.ItemInstance{ID: "i1", TemplateID: "ore", Count: 1, Owner: "human"}

	return store, seg, itemTemplate("ore", domain.QualityNormal, 100, 20)
}

// expectedOffer replays the buyer's draws for a single-candidate cycle.
func expectedOffer(seed int64, currentPrice, ceiling int64) int64 {
	rng := rand.New(rand.NewSource(seed))
	_ = rng.Intn(1) // candidate index draw
	f := float64(rng.Intn(100)+1) / 100
	return currentPrice + int64(float64(ceiling-currentPrice)*f)
}

func TestBuyerPlacesBid(t *testing.T) {
	const seed = 3
	store, seg, ore := buyerScenario(300, 0, 0, "")

	b := newTestBuyer(store, seed, &recordingNotifier{}, ore)
	sum, events, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Bids != 1 || sum.Buyouts != 0 {
		t.Fatalf("Bids = %d, Buyouts = %d, want exactly one bid", sum.Bids, sum.Buyouts)
	}

	want := expectedOffer(seed, 300, 800)
	if min := int64(300 + 15); want < min { // 5% outbid increment
		want = min
	}

	l, _ := store.Get(context.Background(), "l1")
	if l.Bid != want {
		t.Errorf("Bid = %d, want %d", l.Bid, want)
	}
	if l.Bidder != buyerAgent.ID {
		t.Errorf("Bidder = %s, want %s", l.Bidder, buyerAgent.ID)
	}
	if l.Bid < 315 || l.Bid > 800 {
		t.Errorf("Bid = %d, want within [315, 800]", l.Bid)
	}

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Buyout || events[0].Amount != want {
		t.Errorf("event = %+v, want a bid event of %d", events[0], want)
	}
}

func TestBuyerOutbidsPriorBidderExactlyOnce(t *testing.T) {
	store, seg, ore := buyerScenario(300, 350, 0, "rival")

	n := &recordingNotifier{}
	b := newTestBuyer(store, 3, n, ore)
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Bids != 1 {
		t.Fatalf("Bids = %d, want 1", sum.Bids)
	}

	if len(n.outbid) != 1 || n.outbid[0] != "rival" {
		t.Errorf("outbid notifications = %v, want exactly one to rival", n.outbid)
	}

	l, _ := store.Get(context.Background(), "l1")
	if l.Bid <= 350 {
		t.Errorf("Bid = %d, want above the prior bid", l.Bid)
	}
}

func TestBuyerNoOutbidNoticeWithoutPriorBidder(t *testing.T) {
	store, seg, ore := buyerScenario(300, 0, 0, "")

	n := &recordingNotifier{}
	b := newTestBuyer(store, 3, n, ore)
	if _, _, err := b.RunCycle(context.Background(), seg, buyerAgent); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(n.outbid) != 0 {
		t.Errorf("outbid notifications = %v, want none", n.outbid)
	}
}

func TestBuyerBuyout(t *testing.T) {
	// Buyout 301 sits below the smallest possible offer (305), so the
	// buyout path always triggers.
	store, seg, ore := buyerScenario(300, 0, 301, "")

	n := &recordingNotifier{}
	b := newTestBuyer(store, 3, n, ore)
	sum, events, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Buyouts != 1 || sum.Bids != 0 {
		t.Fatalf("Buyouts = %d, Bids = %d, want exactly one buyout", sum.Buyouts, sum.Bids)
	}

	// Listing and item are gone.
	if _, err := store.Get(context.Background(), "l1"); err != domain.ErrNotFound {
		t.Errorf("listing still present after buyout")
	}
	if _, ok := store.items["i1"]; ok {
		t.Errorf("item unit still present after buyout")
	}

	if len(n.success) != 1 || len(n.won) != 1 {
		t.Errorf("success = %v, won = %v, want one of each", n.success, n.won)
	}

	if len(events) != 1 || !events[0].Buyout || events[0].Amount != 301 {
		t.Errorf("events = %+v, want one buyout event at 301", events)
	}
}

func TestBuyerNoBuyoutWhenUnset(t *testing.T) {
	// Buyout 0 means no buyout; even a maximal offer stays a bid.
	store, seg, ore := buyerScenario(300, 0, 0, "")

	b := newTestBuyer(store, 3, &recordingNotifier{}, ore)
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Buyouts != 0 {
		t.Errorf("Buyouts = %d, want 0 when no buyout is set", sum.Buyouts)
	}
	if _, err := store.Get(context.Background(), "l1"); err != nil {
		t.Errorf("listing removed without a buyout")
	}
}

func TestBuyerOfferBelowBuyoutBids(t *testing.T) {
	// A buyout above the ceiling can never be reached; the raw offer
	// decides the branch, so this always lands in the bid path.
	store, seg, ore := buyerScenario(300, 0, 10000, "")

	b := newTestBuyer(store, 3, &recordingNotifier{}, ore)
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Bids != 1 || sum.Buyouts != 0 {
		t.Errorf("Bids = %d, Buyouts = %d, want a plain bid", sum.Bids, sum.Buyouts)
	}
}

func TestBuyerSkipsBotListings(t *testing.T) {
	store, seg, ore := buyerScenario(300, 0, 0, "")
	l, _ := store.Get(context.Background(), "l1")
	l.Seller = sellerAgent.ID
	store.put(l)

	b := newTestBuyer(store, 3, &recordingNotifier{}, ore)
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Skipped != 1 || sum.Bids != 0 {
		t.Errorf("Skipped = %d, Bids = %d, want the bot listing skipped", sum.Skipped, sum.Bids)
	}
}

func TestBuyerSkipsPricedOutListings(t *testing.T) {
	// Current price already at the ceiling (800).
	store, seg, ore := buyerScenario(800, 0, 0, "")

	b := newTestBuyer(store, 3, &recordingNotifier{}, ore)
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Skipped != 1 || sum.Bids != 0 {
		t.Errorf("Skipped = %d, Bids = %d, want the overpriced listing skipped", sum.Skipped, sum.Bids)
	}
}

func TestBuyerVanishedTemplate(t *testing.T) {
	store, seg, _ := buyerScenario(300, 0, 0, "")

	// Catalog without the listed template.
	b := newTestBuyer(store, 3, &recordingNotifier{})
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.Vanished != 1 {
		t.Errorf("Vanished = %d, want 1 for an unresolvable template", sum.Vanished)
	}
}

func TestBuyerCommitFailureLeavesListingUntouched(t *testing.T) {
	store, seg, ore := buyerScenario(300, 0, 0, "")
	store.failCommit = true

	b := newTestBuyer(store, 3, &recordingNotifier{}, ore)
	if _, _, err := b.RunCycle(context.Background(), seg, buyerAgent); err == nil {
		t.Fatal("RunCycle succeeded, want a commit error")
	}

	l, _ := store.Get(context.Background(), "l1")
	if l.Bid != 0 || l.Bidder != "" {
		t.Errorf("listing mutated after a failed commit: bid=%d bidder=%s", l.Bid, l.Bidder)
	}
}

func TestBuyerDisabled(t *testing.T) {
	store, seg, ore := buyerScenario(300, 0, 0, "")
	cfg, _ := seg.Snapshot()
	cfg.BuyerEnabled = false
	seg = domain.NewSegment(cfg)

	b := newTestBuyer(store, 3, &recordingNotifier{}, ore)
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if sum.BuyRan {
		t.Errorf("BuyRan = true, want false when disabled")
	}
}

func TestBuyerRespectsBidsPerInterval(t *testing.T) {
	store := newMemListingStore()
	cfg := baseSegmentConfig()
	cfg.BuyerPriceRatio[domain.QualityNormal] = 2
	cfg.BidsPerInterval = 2
	seg := domain.NewSegment(cfg)

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		store.put(domain.Listing{
			ID: id, SegmentID: cfg.ID, ItemID: "i" + id, TemplateID: "ore",
			Count: 1, Seller: "human", StartBid: 300,
		})
	}

	b := newTestBuyer(store, 3, &recordingNotifier{}, itemTemplate("ore", domain.QualityNormal, 100, 20))
	sum, _, err := b.RunCycle(context.Background(), seg, buyerAgent)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if total := sum.Bids + sum.Buyouts + sum.Skipped + sum.Vanished; total != 2 {
		t.Errorf("decisions = %d, want bids_per_interval = 2", total)
	}
}
