package domain

import "time"

// outbidPercent is the minimum outbid increment as a percentage of the
// current price. Every new bid must exceed the previous by at least this.
const outbidPercent = 5

// Listing is one active sell order in a marketplace segment.
//
// Invariant: Bid == 0 implies Bidder == "". A Buyout of 0 means the listing
// has no buyout price. Upstream catalog data may produce Buyout < StartBid;
// that is tolerated and simply never triggers the buyout path.
type Listing struct {
	ID         string
	SegmentID  string
	ItemID     string // materialized ItemInstance backing this listing
	TemplateID string
	Count      int
	Seller     AgentID
	StartBid   int64
	Buyout     int64 // 0 = no buyout
	Bid        int64 // current bid, 0 = none yet
	Bidder     AgentID
	Deposit    int64
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// CurrentPrice is the price a new bid must beat: the current bid when one
// exists, otherwise the starting bid.
func (l Listing) CurrentPrice() int64 {
	if l.Bid > 0 {
		return l.Bid
	}
	return l.StartBid
}

// OutbidIncrement is the minimum amount by which a new bid must exceed the
// current price: 5% of it, never less than 1.
func (l Listing) OutbidIncrement() int64 {
	inc := l.CurrentPrice() * outbidPercent / 100
	if inc < 1 {
		inc = 1
	}
	return inc
}
