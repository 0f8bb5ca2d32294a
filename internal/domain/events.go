package domain

import "time"

// CycleSummary aggregates the observability counters for one scheduler pass
// over a segment. Counters record routine misses; none of them represent
// failures.
type CycleSummary struct {
	SegmentID string        `json:"segment_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Seller counters.
	Requested  int `json:"requested"`
	Sold       int `json:"sold"`
	LoopBreaks int `json:"loop_breaks"`
	EmptyBins  int `json:"empty_bins"`
	Errors     int `json:"errors"`

	// Buyer counters.
	BuyRan   bool `json:"buy_ran"`
	Bids     int  `json:"bids"`
	Buyouts  int  `json:"buyouts"`
	Skipped  int  `json:"skipped"`
	Vanished int  `json:"vanished"` // candidates gone before the decision applied
}

// TradeEvent is published on the signal bus whenever the buyer places a bid
// or wins a buyout.
type TradeEvent struct {
	SegmentID string    `json:"segment_id"`
	ListingID string    `json:"listing_id"`
	ItemID    string    `json:"item_id"`
	Amount    int64     `json:"amount"`
	Buyout    bool      `json:"buyout"`
	At        time.Time `json:"at"`
}
