package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// CyclesChannel is the signal bus channel carrying cycle summaries.
const CyclesChannel = "cycles"

// TradesChannel is the signal bus channel carrying trade events.
const TradesChannel = "trades"

// Archiver persists completed cycle summaries outside the hot path.
type Archiver interface {
	ArchiveCycle(ctx context.Context, sum domain.CycleSummary) error
}

// Scheduler drives the seller and buyer over all configured segments,
// advancing one segment per tick in round-robin order. The buyer for a
// segment only runs once its bidding interval has elapsed since the last
// successful buy pass.
type Scheduler struct {
	segments []*domain.Segment
	seller   *Seller
	buyer    *Buyer
	agents   SegmentAgents
	bus      domain.SignalBus
	archiver Archiver // optional
	now      func() time.Time
	logger   *slog.Logger

	next    int
	lastBuy map[string]time.Time
}

// SegmentAgents resolves the seller and buyer identities acting on a
// segment.
type SegmentAgents func(segmentID string) (seller, buyer domain.Agent)

// NewScheduler creates a Scheduler over the given segments.
func NewScheduler(segments []*domain.Segment, seller *Seller, buyer *Buyer, agents SegmentAgents, bus domain.SignalBus, archiver Archiver, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		segments: segments,
		seller:   seller,
		buyer:    buyer,
		agents:   agents,
		bus:      bus,
		archiver: archiver,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "scheduler")),
		lastBuy:  make(map[string]time.Time),
	}
}

// Tick runs one sell cycle, and if due one buy cycle, on the next segment
// in rotation. Seller and buyer failures are joined so one does not hide
// the other; a failed buy pass leaves the interval unconsumed and the next
// due tick retries it.
func (s *Scheduler) Tick(ctx context.Context) (domain.CycleSummary, error) {
	if len(s.segments) == 0 {
		return domain.CycleSummary{}, nil
	}

	seg := s.segments[s.next]
	s.next = (s.next + 1) % len(s.segments)

	cfg, _ := seg.Snapshot()
	sellerAgent, buyerAgent := s.agents(cfg.ID)
	started := s.now()

	sum, sellErr := s.seller.RunCycle(ctx, seg, sellerAgent)
	sum.SegmentID = cfg.ID
	sum.StartedAt = started

	var buyErr error
	var events []domain.TradeEvent
	if cfg.BuyerEnabled && cfg.BidsPerInterval > 0 &&
		s.now().Sub(s.lastBuy[cfg.ID]) >= cfg.BiddingInterval {
		var buySum domain.CycleSummary
		buySum, events, buyErr = s.buyer.RunCycle(ctx, seg, buyerAgent)
		if buyErr == nil {
			s.lastBuy[cfg.ID] = s.now()
			sum.BuyRan = buySum.BuyRan
			sum.Bids = buySum.Bids
			sum.Buyouts = buySum.Buyouts
			sum.Skipped = buySum.Skipped
			sum.Vanished = buySum.Vanished
		}
	}

	sum.Duration = s.now().Sub(started)
	s.publish(ctx, sum, events)

	return sum, errors.Join(sellErr, buyErr)
}

func (s *Scheduler) publish(ctx context.Context, sum domain.CycleSummary, events []domain.TradeEvent) {
	if s.bus != nil {
		if payload, err := json.Marshal(sum); err == nil {
			if err := s.bus.Publish(ctx, CyclesChannel, payload); err != nil {
				s.logger.WarnContext(ctx, "publish cycle summary failed",
					slog.String("segment", sum.SegmentID),
					slog.Any("error", err),
				)
			}
		}
		for _, ev := range events {
			if payload, err := json.Marshal(ev); err == nil {
				if err := s.bus.Publish(ctx, TradesChannel, payload); err != nil {
					s.logger.WarnContext(ctx, "publish trade event failed",
						slog.String("listing_id", ev.ListingID),
						slog.Any("error", err),
					)
				}
			}
		}
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveCycle(ctx, sum); err != nil {
			s.logger.WarnContext(ctx, "archive cycle summary failed",
				slog.String("segment", sum.SegmentID),
				slog.Any("error", err),
			)
		}
	}
}

// Run ticks the scheduler at the given interval until ctx is cancelled.
// Tick errors are logged; the loop keeps running.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "scheduler started",
		slog.Int("segments", len(s.segments)),
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.ErrorContext(ctx, "cycle failed",
					slog.Any("error", err),
				)
			}
		}
	}
}
