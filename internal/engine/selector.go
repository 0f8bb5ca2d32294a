package engine

import (
	"math/rand"

	"github.com/alanyoungcy/bazaarbot/internal/catalog"
	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// loopBreakerLimit bounds how many shuffle-and-scan attempts the selector
// makes for one listing slot before giving up on it.
const loopBreakerLimit = 50

// pick is the outcome of a successful selection: the catalog entry to list
// and the category bin it came from.
type pick struct {
	TemplateID string
	Category   domain.Category
}

// dupUnitsFunc reports how many duplicate units of a template this agent
// already has on offer, for the duplicate-cap check.
type dupUnitsFunc func(templateID string) int

// pickOnce performs one full shuffle-and-scan pass: categories are visited
// in a fresh random order so no quality tier is structurally favored, one
// candidate is drawn per eligible category, and the first candidate that
// survives the duplicate cap wins. sawStock reports whether any category
// had stock under an open quota at all, so callers can tell a drained
// market from a duplicate-cap stalemate.
func pickOnce(rng *rand.Rand, cfg domain.SegmentConfig, counts *[domain.NumCategories]int, bins *catalog.Registry, dupUnits dupUnitsFunc) (p pick, ok, sawStock bool) {
	for _, idx := range rng.Perm(domain.NumCategories) {
		cat := domain.CategoryAt(idx)
		bin := bins.Bin(cat)
		if len(bin) == 0 || counts[idx] >= cfg.Quota(cat) {
			continue
		}
		sawStock = true

		templateID := bin[rng.Intn(len(bin))]

		if cap := cfg.DuplicateCapFor(cat.Quality); cap > 0 && dupUnits(templateID) >= cap {
			continue
		}

		return pick{TemplateID: templateID, Category: cat}, true, true
	}
	return pick{}, false, sawStock
}

// pickItem selects the next catalog entry to list, retrying the whole
// shuffle-and-scan a bounded number of times. Shuffling per attempt keeps
// one exhausted category from being retried ahead of the others while still
// giving every category a fair chance across attempts. A pass that finds no
// stocked category under quota ends the search with domain.ErrBinsEmpty,
// since nothing changes between passes; exhausting every attempt on
// duplicate-cap refusals returns domain.ErrNoCandidate.
func pickItem(rng *rand.Rand, cfg domain.SegmentConfig, counts *[domain.NumCategories]int, bins *catalog.Registry, dupUnits dupUnitsFunc) (pick, error) {
	for attempt := 0; attempt < loopBreakerLimit; attempt++ {
		p, ok, sawStock := pickOnce(rng, cfg, counts, bins, dupUnits)
		if ok {
			return p, nil
		}
		if !sawStock {
			return pick{}, domain.ErrBinsEmpty
		}
	}
	return pick{}, domain.ErrNoCandidate
}
