package domain

import (
	"errors"
	"testing"
	"time"
)

func testSegmentConfig() SegmentConfig {
	cfg := SegmentConfig{
		ID:              "test",
		MaxItems:        200,
		DuplicateCap:    8,
		BiddingInterval: time.Hour,
		DurationClass:   DurationLong,
	}
	for i := range cfg.Percents {
		cfg.Percents[i] = 50
	}
	return cfg
}

func TestQuota(t *testing.T) {
	cfg := testSegmentConfig()
	cat := Category{Quality: QualityNormal, Kind: KindItem}
	if got := cfg.Quota(cat); got != 100 {
		t.Errorf("Quota = %d, want 50%% of 200 = 100", got)
	}

	cfg.Percents[cat.Index()] = 0
	if got := cfg.Quota(cat); got != 0 {
		t.Errorf("Quota = %d, want 0 for a disabled slot", got)
	}
}

func TestDuplicateCapFor(t *testing.T) {
	cfg := testSegmentConfig()
	cases := []struct {
		q    Quality
		want int
	}{
		{QualityPoor, 8},
		{QualityNormal, 8},
		{QualityUncommon, 8},
		{QualityRare, 4},
		{QualityEpic, 2},
		{QualityLegendary, 8},
	}
	for _, c := range cases {
		if got := cfg.DuplicateCapFor(c.q); got != c.want {
			t.Errorf("DuplicateCapFor(%v) = %d, want %d", c.q, got, c.want)
		}
	}
}

func TestApplyToggles(t *testing.T) {
	seg := NewSegment(testSegmentConfig())

	cfg, err := seg.Apply(SegmentCommand{Op: OpSetSeller, Enabled: true})
	if err != nil {
		t.Fatalf("Apply set_seller: %v", err)
	}
	if !cfg.SellerEnabled {
		t.Error("SellerEnabled not set")
	}

	cfg, err = seg.Apply(SegmentCommand{Op: OpSetBuyer, Enabled: true})
	if err != nil {
		t.Fatalf("Apply set_buyer: %v", err)
	}
	if !cfg.BuyerEnabled {
		t.Error("BuyerEnabled not set")
	}

	// Updates accumulate on the live configuration.
	snap, _ := seg.Snapshot()
	if !snap.SellerEnabled || !snap.BuyerEnabled {
		t.Errorf("snapshot = %+v, want both sides enabled", snap)
	}
}

func TestApplyScalarValues(t *testing.T) {
	seg := NewSegment(testSegmentConfig())

	cfg, err := seg.Apply(SegmentCommand{Op: OpSetMinItems, Value: 40})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.MinItems != 40 {
		t.Errorf("MinItems = %d, want 40", cfg.MinItems)
	}

	if _, err := seg.Apply(SegmentCommand{Op: OpSetMaxItems, Value: -1}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("negative max_items: err = %v, want ErrInvalidCommand", err)
	}
	snap, _ := seg.Snapshot()
	if snap.MaxItems != 200 {
		t.Errorf("MaxItems = %d, rejected command mutated the segment", snap.MaxItems)
	}
}

func TestApplyQualityTables(t *testing.T) {
	seg := NewSegment(testSegmentConfig())

	cfg, err := seg.Apply(SegmentCommand{Op: OpSetBuyerRatio, Quality: "epic", Value: 3})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.BuyerPriceRatio[QualityEpic] != 3 {
		t.Errorf("BuyerPriceRatio[epic] = %d, want 3", cfg.BuyerPriceRatio[QualityEpic])
	}

	if _, err := seg.Apply(SegmentCommand{Op: OpSetBuyerRatio, Quality: "shiny", Value: 3}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("unknown quality: err = %v, want ErrInvalidCommand", err)
	}
}

func TestApplyPercents(t *testing.T) {
	seg := NewSegment(testSegmentConfig())

	percents := make([]int, NumCategories)
	for i := range percents {
		percents[i] = 10
	}
	cfg, err := seg.Apply(SegmentCommand{Op: OpSetPercents, Percents: percents})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i, p := range cfg.Percents {
		if p != 10 {
			t.Fatalf("Percents[%d] = %d, want 10", i, p)
		}
	}

	if _, err := seg.Apply(SegmentCommand{Op: OpSetPercents, Percents: []int{100}}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("short table: err = %v, want ErrInvalidCommand", err)
	}
	percents[3] = 101
	if _, err := seg.Apply(SegmentCommand{Op: OpSetPercents, Percents: percents}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("percent above 100: err = %v, want ErrInvalidCommand", err)
	}
}

func TestApplyDurations(t *testing.T) {
	seg := NewSegment(testSegmentConfig())

	cfg, err := seg.Apply(SegmentCommand{Op: OpSetBidInterval, Duration: "30m"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.BiddingInterval != 30*time.Minute {
		t.Errorf("BiddingInterval = %v, want 30m", cfg.BiddingInterval)
	}

	if _, err := seg.Apply(SegmentCommand{Op: OpSetBidInterval, Duration: "soon"}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("bad interval: err = %v, want ErrInvalidCommand", err)
	}
	if _, err := seg.Apply(SegmentCommand{Op: OpSetBidInterval, Duration: "-1h"}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("negative interval: err = %v, want ErrInvalidCommand", err)
	}

	cfg, err = seg.Apply(SegmentCommand{Op: OpSetDurationClass, Duration: "short"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.DurationClass != DurationShort {
		t.Errorf("DurationClass = %v, want short", cfg.DurationClass)
	}
	if _, err := seg.Apply(SegmentCommand{Op: OpSetDurationClass, Duration: "forever"}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("bad class: err = %v, want ErrInvalidCommand", err)
	}
}

func TestApplyUnknownOp(t *testing.T) {
	seg := NewSegment(testSegmentConfig())
	if _, err := seg.Apply(SegmentCommand{Op: "reticulate"}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("err = %v, want ErrInvalidCommand", err)
	}
}

func TestLiveCounts(t *testing.T) {
	seg := NewSegment(testSegmentConfig())
	cat := Category{Quality: QualityRare, Kind: KindTradeGood}

	var counts [NumCategories]int
	counts[cat.Index()] = 7
	seg.SetLiveCounts(counts)
	seg.IncrementLiveCount(cat)

	_, got := seg.Snapshot()
	if got[cat.Index()] != 8 {
		t.Errorf("live count = %d, want 8", got[cat.Index()])
	}
}
