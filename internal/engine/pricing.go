// Package engine implements the market-making core: pricing, stack sizing,
// listing selection, and the seller/buyer workflows driven by the cycle
// scheduler. The engine runs sequentially on one goroutine; all randomness
// flows through a single injected rand.Rand so behavior is reproducible
// under a fixed seed.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// qualityMultipliers scale the synthesized price of items the catalog
// assigns no vendor value to.
var qualityMultipliers = [domain.NumQualities]int64{
	domain.QualityPoor:      1,
	domain.QualityNormal:    2,
	domain.QualityUncommon:  5,
	domain.QualityRare:      10,
	domain.QualityEpic:      20,
	domain.QualityLegendary: 50,
	domain.QualityArtifact:  50,
}

func qualityMultiplier(q domain.Quality) int64 {
	if !q.Valid() {
		return 1
	}
	return qualityMultipliers[q]
}

// randRange draws uniformly from [lo, hi] inclusive. A degenerate range
// collapses to lo.
func randRange(rng *rand.Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Int63n(hi-lo+1)
}

// Pricer computes seller-side quotes and buyer-side bid ceilings. The
// market price cache is optional; without it pricing starts at the
// intrinsic vendor basis.
type Pricer struct {
	prices domain.MarketPriceCache
	rng    *rand.Rand
	logger *slog.Logger
}

// NewPricer creates a Pricer. prices may be nil.
func NewPricer(prices domain.MarketPriceCache, rng *rand.Rand, logger *slog.Logger) *Pricer {
	return &Pricer{
		prices: prices,
		rng:    rng,
		logger: logger.With(slog.String("component", "pricer")),
	}
}

// QuoteSellPrice returns the per-unit buyout price and bid floor for a new
// listing. Pricing falls through three tiers: tracked market price,
// intrinsic vendor basis, and (when enabled) a synthesized price from item
// level and quality. It returns domain.ErrUnpriceable when every tier
// yields zero; callers treat that as a routine selection miss.
func (p *Pricer) QuoteSellPrice(ctx context.Context, cfg domain.SegmentConfig, tpl domain.ItemTemplate) (buyout, bidFloor int64, err error) {
	var price int64

	if cfg.SellAtMarketPrice && p.prices != nil {
		v, perr := p.prices.GetPrice(ctx, tpl.ID)
		switch {
		case perr == nil:
			price = v
		case !errors.Is(perr, domain.ErrNotFound):
			// Cache trouble degrades to the intrinsic basis.
			p.logger.WarnContext(ctx, "market price lookup failed",
				slog.String("template_id", tpl.ID),
				slog.String("error", perr.Error()),
			)
		}
	}

	if price == 0 {
		if cfg.SellBasisBuyPrice {
			price = tpl.BuyPrice
		} else {
			price = tpl.SellPrice
		}
	}

	if price == 0 && cfg.SellZeroPriceItems {
		base := randRange(p.rng, int64(tpl.ItemLevel), int64(tpl.ItemLevel)+10) * 10
		price = base * qualityMultiplier(tpl.Quality)
	}

	if price == 0 {
		return 0, 0, domain.ErrUnpriceable
	}

	q := tpl.Quality
	buyout = price * randRange(p.rng, cfg.MinPriceFactor[q], cfg.MaxPriceFactor[q]) / 25
	bidFloor = buyout * randRange(p.rng, cfg.MinBidFactor[q], cfg.MaxBidFactor[q]) / 100
	return buyout, bidFloor, nil
}

// QuoteMaxBid returns the highest total amount the buyer may offer for a
// candidate listing, or 0 when the listing should not be bid on at all:
// unsupported quality, ammunition-class items, or a current price already
// at or beyond the ceiling.
func (p *Pricer) QuoteMaxBid(cfg domain.SegmentConfig, tpl domain.ItemTemplate, count int, currentPrice int64) int64 {
	if !tpl.Quality.Valid() {
		return 0
	}
	if tpl.Class == domain.ClassAmmunition {
		return 0
	}

	basis := tpl.BuyPrice
	if cfg.BuyBasisSellPrice {
		basis = tpl.SellPrice
	}

	ceiling := basis * int64(count) * cfg.BuyerPriceRatio[tpl.Quality]
	if currentPrice >= ceiling {
		return 0
	}
	return ceiling
}
