package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/bazaarbot/internal/catalog"
	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// Seller materializes new listings for a segment: it selects items under
// the category quotas, prices and stacks them, and commits the whole cycle
// as one atomic batch.
type Seller struct {
	listings domain.ListingStore
	bins     *catalog.Registry
	mint     domain.Mint
	pricer   *Pricer
	rng      *rand.Rand
	now      func() time.Time
	logger   *slog.Logger
}

// NewSeller creates a Seller.
func NewSeller(listings domain.ListingStore, bins *catalog.Registry, mint domain.Mint, pricer *Pricer, rng *rand.Rand, logger *slog.Logger) *Seller {
	return &Seller{
		listings: listings,
		bins:     bins,
		mint:     mint,
		pricer:   pricer,
		rng:      rng,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "seller")),
	}
}

// RunCycle runs one sell pass over a segment under the given agent
// identity. Routine misses (empty bins, unpriceable or unresolvable items)
// are recorded as counters and skipped; only a failed batch commit is
// returned as an error, in which case nothing from this cycle persists and
// the next tick retries from scratch.
func (s *Seller) RunCycle(ctx context.Context, seg *domain.Segment, agent domain.Agent) (domain.CycleSummary, error) {
	cfg, _ := seg.Snapshot()
	sum := domain.CycleSummary{SegmentID: cfg.ID, StartedAt: s.now()}

	if !cfg.SellerEnabled || cfg.MaxItems == 0 {
		return sum, nil
	}

	owned, err := s.listings.ListByOwner(ctx, cfg.ID, agent.ID)
	if err != nil {
		return sum, fmt.Errorf("seller: list own listings: %w", err)
	}

	count := len(owned)
	if !cfg.OnlyOwnListings {
		count, err = s.listings.CountBySegment(ctx, cfg.ID)
		if err != nil {
			return sum, fmt.Errorf("seller: count listings: %w", err)
		}
	}

	// Refresh the segment's live-count table from what is actually on the
	// market, then work on a cycle-local copy.
	var counts [domain.NumCategories]int
	ownedByTemplate := make(map[string][]domain.Listing)
	for _, l := range owned {
		ownedByTemplate[l.TemplateID] = append(ownedByTemplate[l.TemplateID], l)
		if tpl, terr := s.bins.Template(ctx, l.TemplateID); terr == nil {
			counts[tpl.Category().Index()]++
		}
	}
	seg.SetLiveCounts(counts)

	if count >= cfg.MinItems {
		if cfg.DebugSeller {
			s.logger.DebugContext(ctx, "market healthy, nothing to list",
				slog.String("segment", cfg.ID),
				slog.Int("count", count),
			)
		}
		return sum, nil
	}
	if count >= cfg.MaxItems {
		return sum, nil
	}

	var target int
	switch {
	case count == 0:
		// Cold start: ramp up instead of flooding an empty market.
		target = cfg.MinItems / 10
	case cfg.MaxItems-count >= cfg.ItemsPerCycle:
		target = cfg.ItemsPerCycle
	default:
		target = cfg.MaxItems - count
	}
	sum.Requested = target
	if target == 0 {
		return sum, nil
	}

	dupUnits := func(templateID string) int {
		total := 0
		for _, l := range ownedByTemplate[templateID] {
			total += StackUnits(s.rng, cfg.DivisibleStacks, l.Count)
		}
		return total
	}

	tx, err := s.listings.Begin(ctx)
	if err != nil {
		return sum, fmt.Errorf("seller: begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for slot := 0; slot < target; slot++ {
		p, err := pickItem(s.rng, cfg, &counts, s.bins, dupUnits)
		if err != nil {
			if errors.Is(err, domain.ErrBinsEmpty) {
				sum.EmptyBins++
				if cfg.DebugSeller {
					s.logger.DebugContext(ctx, "no stocked category under quota",
						slog.String("segment", cfg.ID),
					)
				}
			} else {
				sum.LoopBreaks++
				if cfg.DebugSeller {
					s.logger.DebugContext(ctx, "selection attempts exhausted",
						slog.String("segment", cfg.ID),
					)
				}
			}
			continue
		}

		tpl, err := s.bins.Template(ctx, p.TemplateID)
		if err != nil {
			sum.Errors++
			if cfg.DebugSeller {
				s.logger.DebugContext(ctx, "catalog entry unresolvable",
					slog.String("template_id", p.TemplateID),
				)
			}
			continue
		}

		buyout, bidFloor, err := s.pricer.QuoteSellPrice(ctx, cfg, tpl)
		if err != nil {
			if errors.Is(err, domain.ErrUnpriceable) {
				sum.Errors++
				if cfg.DebugSeller {
					s.logger.DebugContext(ctx, "could not determine a price",
						slog.String("template_id", tpl.ID),
						slog.String("quality", tpl.Quality.String()),
					)
				}
				continue
			}
			return sum, fmt.Errorf("seller: quote %s: %w", tpl.ID, err)
		}

		stack := SizeFor(s.rng, cfg, tpl)
		dur := ListingDuration(s.rng, cfg.DurationClass)
		unit := s.mint.CreateUnit(tpl.ID, stack, agent.ID)
		now := s.now()

		listing := domain.Listing{
			ID:         uuid.NewString(),
			SegmentID:  cfg.ID,
			ItemID:     unit.ID,
			TemplateID: tpl.ID,
			Count:      stack,
			Seller:     agent.ID,
			StartBid:   bidFloor * int64(stack),
			Buyout:     buyout * int64(stack),
			Deposit:    s.mint.Deposit(dur, tpl, stack),
			CreatedAt:  now,
			ExpiresAt:  now.Add(dur),
		}

		if err := tx.CreateItem(ctx, unit); err != nil {
			return sum, fmt.Errorf("seller: stage item %s: %w", unit.ID, err)
		}
		if err := tx.Create(ctx, listing); err != nil {
			return sum, fmt.Errorf("seller: stage listing %s: %w", listing.ID, err)
		}

		seg.IncrementLiveCount(p.Category)
		counts[p.Category.Index()]++
		ownedByTemplate[tpl.ID] = append(ownedByTemplate[tpl.ID], listing)
		sum.Sold++

		if cfg.TraceSeller {
			s.logger.InfoContext(ctx, "new stack listed",
				slog.String("segment", cfg.ID),
				slog.String("template_id", tpl.ID),
				slog.Int("stack", stack),
				slog.Int64("start_bid", listing.StartBid),
				slog.Int64("buyout", listing.Buyout),
				slog.Time("expires_at", listing.ExpiresAt),
			)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sum, fmt.Errorf("seller: commit cycle batch: %w", err)
	}

	if cfg.TraceSeller {
		s.logger.InfoContext(ctx, "sell cycle complete",
			slog.String("segment", cfg.ID),
			slog.Int("requested", sum.Requested),
			slog.Int("sold", sum.Sold),
			slog.Int("loop_breaks", sum.LoopBreaks),
			slog.Int("empty_bins", sum.EmptyBins),
			slog.Int("errors", sum.Errors),
		)
	}
	return sum, nil
}
