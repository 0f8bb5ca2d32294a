package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/catalog"
	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// Buyer places bids and buyouts on other participants' listings to keep a
// segment's market moving. Decisions are made against a fresh read of each
// listing so concurrent buyers never double-spend on a vanished one.
type Buyer struct {
	listings domain.ListingStore
	bins     *catalog.Registry
	pricer   *Pricer
	notifier domain.Notifier
	bots     map[domain.AgentID]bool
	rng      *rand.Rand
	now      func() time.Time
	logger   *slog.Logger
}

// NewBuyer creates a Buyer. bots marks agent identities whose listings the
// buyer must never trade on.
func NewBuyer(listings domain.ListingStore, bins *catalog.Registry, pricer *Pricer, notifier domain.Notifier, bots map[domain.AgentID]bool, rng *rand.Rand, logger *slog.Logger) *Buyer {
	return &Buyer{
		listings: listings,
		bins:     bins,
		pricer:   pricer,
		notifier: notifier,
		bots:     bots,
		rng:      rng,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "buyer")),
	}
}

// RunCycle runs one buy pass over a segment under the given agent identity.
// It returns the trade events it committed; on a failed batch commit the
// interval is considered not to have run and nothing persists.
func (b *Buyer) RunCycle(ctx context.Context, seg *domain.Segment, agent domain.Agent) (domain.CycleSummary, []domain.TradeEvent, error) {
	cfg, _ := seg.Snapshot()
	sum := domain.CycleSummary{SegmentID: cfg.ID, StartedAt: b.now()}

	if !cfg.BuyerEnabled || cfg.BidsPerInterval <= 0 {
		return sum, nil, nil
	}
	sum.BuyRan = true

	cands, err := b.listings.ListCandidates(ctx, cfg.ID, agent.ID)
	if err != nil {
		return sum, nil, fmt.Errorf("buyer: list candidates: %w", err)
	}
	if len(cands) == 0 {
		if cfg.DebugBuyer {
			b.logger.DebugContext(ctx, "no listings to consider",
				slog.String("segment", cfg.ID),
			)
		}
		return sum, nil, nil
	}

	tx, err := b.listings.Begin(ctx)
	if err != nil {
		return sum, nil, fmt.Errorf("buyer: begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	var events []domain.TradeEvent
	for n := 0; n < cfg.BidsPerInterval && len(cands) > 0; n++ {
		i := b.rng.Intn(len(cands))
		picked := cands[i]
		cands[i] = cands[len(cands)-1]
		cands = cands[:len(cands)-1]

		// Re-read: another agent may have bought or outbid it since the
		// candidate list was taken.
		cur, err := b.listings.Get(ctx, picked.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				sum.Vanished++
				continue
			}
			return sum, nil, fmt.Errorf("buyer: reload listing %s: %w", picked.ID, err)
		}

		if b.bots[cur.Seller] {
			sum.Skipped++
			continue
		}
		if cur.Bidder == agent.ID {
			sum.Skipped++
			continue
		}

		tpl, err := b.bins.Template(ctx, cur.TemplateID)
		if err != nil {
			sum.Vanished++
			if cfg.DebugBuyer {
				b.logger.DebugContext(ctx, "item not in catalog, perhaps bought already",
					slog.String("listing_id", cur.ID),
					slog.String("template_id", cur.TemplateID),
				)
			}
			continue
		}

		currentPrice := cur.CurrentPrice()
		ceiling := b.pricer.QuoteMaxBid(cfg, tpl, cur.Count, currentPrice)
		if ceiling == 0 {
			sum.Skipped++
			continue
		}

		// Offer a random fraction of the remaining headroom above the
		// current price.
		f := float64(b.rng.Intn(100)+1) / 100
		offer := currentPrice + int64(float64(ceiling-currentPrice)*f)

		if cur.Buyout != 0 && offer >= cur.Buyout {
			if cur.Bidder != "" && cur.Bidder != agent.ID {
				if nerr := b.notifier.NotifyOutbid(ctx, cur, cur.Buyout, cur.Bidder); nerr != nil {
					b.logger.WarnContext(ctx, "outbid notification failed",
						slog.String("listing_id", cur.ID),
						slog.Any("error", nerr),
					)
				}
			}
			cur.Bidder = agent.ID
			cur.Bid = cur.Buyout
			if nerr := b.notifier.NotifySuccess(ctx, cur); nerr != nil {
				b.logger.WarnContext(ctx, "sale notification failed",
					slog.String("listing_id", cur.ID),
					slog.Any("error", nerr),
				)
			}
			if nerr := b.notifier.NotifyWon(ctx, cur); nerr != nil {
				b.logger.WarnContext(ctx, "win notification failed",
					slog.String("listing_id", cur.ID),
					slog.Any("error", nerr),
				)
			}
			if err := tx.Delete(ctx, cur.ID); err != nil {
				return sum, nil, fmt.Errorf("buyer: remove listing %s: %w", cur.ID, err)
			}
			if err := tx.DeleteItem(ctx, cur.ItemID); err != nil {
				return sum, nil, fmt.Errorf("buyer: remove item %s: %w", cur.ItemID, err)
			}
			sum.Buyouts++
			events = append(events, domain.TradeEvent{
				SegmentID: cfg.ID,
				ListingID: cur.ID,
				ItemID:    cur.ItemID,
				Amount:    cur.Buyout,
				Buyout:    true,
				At:        b.now(),
			})
			if cfg.TraceBuyer {
				b.logger.InfoContext(ctx, "bought",
					slog.String("segment", cfg.ID),
					slog.String("template_id", tpl.ID),
					slog.Int("count", cur.Count),
					slog.Int64("amount", cur.Buyout),
				)
			}
			continue
		}

		bid := offer
		if min := currentPrice + cur.OutbidIncrement(); bid < min {
			bid = min
		}
		if cur.Bidder != "" && cur.Bidder != agent.ID {
			if nerr := b.notifier.NotifyOutbid(ctx, cur, bid, cur.Bidder); nerr != nil {
				b.logger.WarnContext(ctx, "outbid notification failed",
					slog.String("listing_id", cur.ID),
					slog.Any("error", nerr),
				)
			}
		}
		if err := tx.SetBid(ctx, cur.ID, agent.ID, bid); err != nil {
			return sum, nil, fmt.Errorf("buyer: place bid on %s: %w", cur.ID, err)
		}
		sum.Bids++
		events = append(events, domain.TradeEvent{
			SegmentID: cfg.ID,
			ListingID: cur.ID,
			ItemID:    cur.ItemID,
			Amount:    bid,
			At:        b.now(),
		})
		if cfg.TraceBuyer {
			b.logger.InfoContext(ctx, "new bid",
				slog.String("segment", cfg.ID),
				slog.String("template_id", tpl.ID),
				slog.Int("count", cur.Count),
				slog.Int64("amount", bid),
			)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sum, nil, fmt.Errorf("buyer: commit cycle batch: %w", err)
	}
	return sum, events, nil
}
