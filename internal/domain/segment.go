package domain

import (
	"fmt"
	"sync"
	"time"
)

// DurationClass selects how listing durations are drawn.
type DurationClass string

const (
	DurationRandom DurationClass = "random" // uniform [10m, 3d]
	DurationShort  DurationClass = "short"  // multiple of 10m in [10m, 1h]
	DurationMedium DurationClass = "medium" // multiple of 1h in [1h, 1d]
	DurationLong   DurationClass = "long"   // multiple of 1d in [1d, 3d]
)

// SegmentConfig is the serializable configuration of one marketplace
// segment. It is loaded from the segment store at startup and mutated only
// through typed SegmentCommands.
type SegmentConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	SellerEnabled bool `json:"seller_enabled"`
	BuyerEnabled  bool `json:"buyer_enabled"`

	MinItems        int  `json:"min_items"`
	MaxItems        int  `json:"max_items"`
	ItemsPerCycle   int  `json:"items_per_cycle"`
	OnlyOwnListings bool `json:"only_own_listings"` // count only this agent's listings for the health check

	// Percents holds, per category slot, the share of MaxItems that the
	// category may occupy. Quotas are derived as percent * MaxItems / 100.
	Percents [NumCategories]int `json:"percents"`

	// Per-quality pricing tables. Price factors scale the buyout as
	// price * rand(min,max) / 25; bid factors derive the bid floor as
	// buyout * rand(min,max) / 100; buyer ratios cap what the buyer pays.
	MinPriceFactor  [NumQualities]int64 `json:"min_price_factor"`
	MaxPriceFactor  [NumQualities]int64 `json:"max_price_factor"`
	MinBidFactor    [NumQualities]int64 `json:"min_bid_factor"`
	MaxBidFactor    [NumQualities]int64 `json:"max_bid_factor"`
	BuyerPriceRatio [NumQualities]int64 `json:"buyer_price_ratio"`

	MaxStack        [NumQualities]int `json:"max_stack"` // 0 = no override
	DuplicateCap    int               `json:"duplicate_cap"`
	DivisibleStacks bool              `json:"divisible_stacks"`

	SellAtMarketPrice  bool `json:"sell_at_market_price"`
	SellBasisBuyPrice  bool `json:"sell_basis_buy_price"` // intrinsic fallback uses BuyPrice instead of SellPrice
	BuyBasisSellPrice  bool `json:"buy_basis_sell_price"` // buyer ceiling uses SellPrice instead of BuyPrice
	SellZeroPriceItems bool `json:"sell_zero_price_items"`

	DurationClass   DurationClass `json:"duration_class"`
	BiddingInterval time.Duration `json:"bidding_interval"`
	BidsPerInterval int           `json:"bids_per_interval"`

	DebugSeller bool `json:"debug_seller"`
	DebugBuyer  bool `json:"debug_buyer"`
	TraceSeller bool `json:"trace_seller"`
	TraceBuyer  bool `json:"trace_buyer"`
}

// Quota returns the maximum number of live listings allowed in a category.
func (c SegmentConfig) Quota(cat Category) int {
	return c.Percents[cat.Index()] * c.MaxItems / 100
}

// DuplicateCapFor returns the duplicate-listing cap for a quality tier.
// Rare and epic tiers keep fewer duplicates on the market than the base cap.
func (c SegmentConfig) DuplicateCapFor(q Quality) int {
	switch q {
	case QualityRare:
		return c.DuplicateCap / 2
	case QualityEpic:
		return c.DuplicateCap / 4
	default:
		return c.DuplicateCap
	}
}

// Segment is one independently configured marketplace instance. The engine
// reads a consistent snapshot per cycle; the admin command surface mutates
// the configuration in place, so access is guarded.
type Segment struct {
	mu         sync.RWMutex
	cfg        SegmentConfig
	liveCounts [NumCategories]int
}

// NewSegment constructs a live segment from its persisted configuration.
func NewSegment(cfg SegmentConfig) *Segment {
	return &Segment{cfg: cfg}
}

// ID returns the segment identifier.
func (s *Segment) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ID
}

// Snapshot returns a copy of the configuration and live-count table for one
// workflow cycle. Cycles never read through the lock mid-flight; they work
// on the snapshot and write counts back when done.
func (s *Segment) Snapshot() (SegmentConfig, [NumCategories]int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.liveCounts
}

// SetLiveCounts replaces the per-category live-count table. Counts are
// best-effort bookkeeping for quota pacing, not a consistency mechanism.
func (s *Segment) SetLiveCounts(counts [NumCategories]int) {
	s.mu.Lock()
	s.liveCounts = counts
	s.mu.Unlock()
}

// IncrementLiveCount bumps the live count of one category.
func (s *Segment) IncrementLiveCount(cat Category) {
	s.mu.Lock()
	s.liveCounts[cat.Index()]++
	s.mu.Unlock()
}

// SegmentOp enumerates the reconfiguration operations a segment accepts.
type SegmentOp string

const (
	OpSetSeller          SegmentOp = "set_seller"
	OpSetBuyer           SegmentOp = "set_buyer"
	OpSetMinItems        SegmentOp = "set_min_items"
	OpSetMaxItems        SegmentOp = "set_max_items"
	OpSetItemsPerCycle   SegmentOp = "set_items_per_cycle"
	OpSetPercents        SegmentOp = "set_percents"
	OpSetMinPriceFactor  SegmentOp = "set_min_price_factor"
	OpSetMaxPriceFactor  SegmentOp = "set_max_price_factor"
	OpSetMinBidFactor    SegmentOp = "set_min_bid_factor"
	OpSetMaxBidFactor    SegmentOp = "set_max_bid_factor"
	OpSetBuyerRatio      SegmentOp = "set_buyer_ratio"
	OpSetMaxStack        SegmentOp = "set_max_stack"
	OpSetDuplicateCap    SegmentOp = "set_duplicate_cap"
	OpSetMarketPrice     SegmentOp = "set_market_price"
	OpSetBidInterval     SegmentOp = "set_bid_interval"
	OpSetBidsPerInterval SegmentOp = "set_bids_per_interval"
	OpSetDurationClass   SegmentOp = "set_duration_class"
)

// SegmentCommand is one typed reconfiguration applied to a segment. Quality
// selects the tier for per-quality table updates; Percents carries the full
// 14-slot quota table for set_percents.
type SegmentCommand struct {
	Op       SegmentOp `json:"op"`
	Quality  string    `json:"quality,omitempty"`
	Value    int64     `json:"value,omitempty"`
	Enabled  bool      `json:"enabled,omitempty"`
	Percents []int     `json:"percents,omitempty"`
	Duration string    `json:"duration,omitempty"`
}

// Apply validates and applies a command, returning the updated configuration
// for persistence. Invalid commands leave the segment untouched.
func (s *Segment) Apply(cmd SegmentCommand) (SegmentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg

	quality := func() (Quality, error) {
		q, err := ParseQuality(cmd.Quality)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		return q, nil
	}
	nonNegative := func() error {
		if cmd.Value < 0 {
			return fmt.Errorf("%w: %s value must be >= 0, got %d", ErrInvalidCommand, cmd.Op, cmd.Value)
		}
		return nil
	}

	switch cmd.Op {
	case OpSetSeller:
		cfg.SellerEnabled = cmd.Enabled
	case OpSetBuyer:
		cfg.BuyerEnabled = cmd.Enabled
	case OpSetMarketPrice:
		cfg.SellAtMarketPrice = cmd.Enabled
	case OpSetMinItems:
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.MinItems = int(cmd.Value)
	case OpSetMaxItems:
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.MaxItems = int(cmd.Value)
	case OpSetItemsPerCycle:
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.ItemsPerCycle = int(cmd.Value)
	case OpSetDuplicateCap:
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.DuplicateCap = int(cmd.Value)
	case OpSetBidsPerInterval:
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.BidsPerInterval = int(cmd.Value)
	case OpSetPercents:
		if len(cmd.Percents) != NumCategories {
			return cfg, fmt.Errorf("%w: set_percents needs %d values, got %d", ErrInvalidCommand, NumCategories, len(cmd.Percents))
		}
		for i, p := range cmd.Percents {
			if p < 0 || p > 100 {
				return cfg, fmt.Errorf("%w: percent %d out of range at slot %d", ErrInvalidCommand, p, i)
			}
			cfg.Percents[i] = p
		}
	case OpSetMinPriceFactor:
		q, err := quality()
		if err != nil {
			return cfg, err
		}
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.MinPriceFactor[q] = cmd.Value
	case OpSetMaxPriceFactor:
		q, err := quality()
		if err != nil {
			return cfg, err
		}
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.MaxPriceFactor[q] = cmd.Value
	case OpSetMinBidFactor:
		q, err := quality()
		if err != nil {
			return cfg, err
		}
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.MinBidFactor[q] = cmd.Value
	case OpSetMaxBidFactor:
		q, err := quality()
		if err != nil {
			return cfg, err
		}
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.MaxBidFactor[q] = cmd.Value
	case OpSetBuyerRatio:
		q, err := quality()
		if err != nil {
			return cfg, err
		}
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.BuyerPriceRatio[q] = cmd.Value
	case OpSetMaxStack:
		q, err := quality()
		if err != nil {
			return cfg, err
		}
		if err := nonNegative(); err != nil {
			return cfg, err
		}
		cfg.MaxStack[q] = int(cmd.Value)
	case OpSetBidInterval:
		d, err := time.ParseDuration(cmd.Duration)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("%w: bad bidding interval %q", ErrInvalidCommand, cmd.Duration)
		}
		cfg.BiddingInterval = d
	case OpSetDurationClass:
		switch DurationClass(cmd.Duration) {
		case DurationRandom, DurationShort, DurationMedium, DurationLong:
			cfg.DurationClass = DurationClass(cmd.Duration)
		default:
			return cfg, fmt.Errorf("%w: unknown duration class %q", ErrInvalidCommand, cmd.Duration)
		}
	default:
		return cfg, fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, cmd.Op)
	}

	s.cfg = cfg
	return cfg, nil
}
