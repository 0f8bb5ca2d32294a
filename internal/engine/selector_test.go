package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

func noDuplicates(string) int { return 0 }

func TestPickItemRespectsQuota(t *testing.T) {
	cfg := baseSegmentConfig()
	cfg.MaxItems = 100
	for i := range cfg.Percents {
		cfg.Percents[i] = 0
	}
	// Only normal-quality items get a quota: 10% of 100.
	cfg.Percents[domain.Category{Quality: domain.QualityNormal, Kind: domain.KindItem}.Index()] = 10

	bins := registryOf(
		itemTemplate("sword", domain.QualityNormal, 10, 1),
		itemTemplate("gem", domain.QualityRare, 10, 1),
	)
	rng := rand.New(rand.NewSource(1))

	var counts [domain.NumCategories]int
	for i := 0; i < 10; i++ {
		p, err := pickItem(rng, cfg, &counts, bins, noDuplicates)
		if err != nil {
			t.Fatalf("pickItem #%d: %v", i, err)
		}
		if p.TemplateID != "sword" {
			t.Fatalf("pickItem #%d = %s, only sword has a quota", i, p.TemplateID)
		}
		counts[p.Category.Index()]++
	}

	// Quota exhausted; nothing else is eligible.
	if _, err := pickItem(rng, cfg, &counts, bins, noDuplicates); !errors.Is(err, domain.ErrBinsEmpty) {
		t.Fatalf("err = %v, want ErrBinsEmpty once the quota is filled", err)
	}
}

func TestPickItemEmptyCatalog(t *testing.T) {
	cfg := baseSegmentConfig()
	bins := registryOf()
	rng := rand.New(rand.NewSource(1))

	var counts [domain.NumCategories]int
	if _, err := pickItem(rng, cfg, &counts, bins, noDuplicates); !errors.Is(err, domain.ErrBinsEmpty) {
		t.Fatalf("err = %v, want ErrBinsEmpty for an empty catalog", err)
	}
}

func TestPickItemDuplicateCap(t *testing.T) {
	cfg := baseSegmentConfig()
	cfg.DuplicateCap = 2

	bins := registryOf(itemTemplate("sword", domain.QualityNormal, 10, 1))
	rng := rand.New(rand.NewSource(1))

	var counts [domain.NumCategories]int

	// Under the cap the single candidate is selectable.
	dup := func(string) int { return 1 }
	if _, err := pickItem(rng, cfg, &counts, bins, dup); err != nil {
		t.Fatalf("pickItem below cap: %v", err)
	}

	// At the cap it is not.
	dup = func(string) int { return 2 }
	if _, err := pickItem(rng, cfg, &counts, bins, dup); !errors.Is(err, domain.ErrNoCandidate) {
		t.Fatalf("err = %v, want ErrNoCandidate at the duplicate cap", err)
	}
}

func TestPickItemTightenedCapForRareAndEpic(t *testing.T) {
	cfg := baseSegmentConfig()
	cfg.DuplicateCap = 4

	rng := rand.New(rand.NewSource(1))
	var counts [domain.NumCategories]int

	// Rare cap is 4/2 = 2.
	rareBins := registryOf(itemTemplate("gem", domain.QualityRare, 10, 1))
	dup := func(string) int { return 2 }
	if _, err := pickItem(rng, cfg, &counts, rareBins, dup); !errors.Is(err, domain.ErrNoCandidate) {
		t.Fatalf("rare: err = %v, want ErrNoCandidate at 2 duplicates", err)
	}

	// Epic cap is 4/4 = 1.
	epicBins := registryOf(itemTemplate("jewel", domain.QualityEpic, 10, 1))
	dup = func(string) int { return 1 }
	if _, err := pickItem(rng, cfg, &counts, epicBins, dup); !errors.Is(err, domain.ErrNoCandidate) {
		t.Fatalf("epic: err = %v, want ErrNoCandidate at 1 duplicate", err)
	}

	// A zero cap disables the check entirely.
	cfg.DuplicateCap = 0
	dup = func(string) int { return 1000 }
	if _, err := pickItem(rng, cfg, &counts, epicBins, dup); err != nil {
		t.Fatalf("uncapped: %v", err)
	}
}

func TestPickItemSpansCategories(t *testing.T) {
	cfg := baseSegmentConfig()
	bins := registryOf(
		itemTemplate("sword", domain.QualityNormal, 10, 1),
		tradeGoodTemplate("ore", domain.QualityNormal, 10, 20),
		itemTemplate("gem", domain.QualityRare, 10, 1),
	)
	rng := rand.New(rand.NewSource(1))

	var counts [domain.NumCategories]int
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		p, err := pickItem(rng, cfg, &counts, bins, noDuplicates)
		if err != nil {
			t.Fatalf("pickItem: %v", err)
		}
		seen[p.TemplateID] = true
	}
	for _, id := range []string{"sword", "ore", "gem"} {
		if !seen[id] {
			t.Errorf("template %s never selected across 200 draws", id)
		}
	}
}
