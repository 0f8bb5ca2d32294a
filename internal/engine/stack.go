package engine

import (
	"math/rand"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// fullStackPercent is the chance that a drawn stack size is overridden to
// the maximum, biasing the market toward full stacks to reduce listing
// churn.
const fullStackPercent = 30

func stackDivisor(q domain.Quality) int {
	switch q {
	case domain.QualityRare:
		return 2
	case domain.QualityEpic:
		return 4
	default:
		return 1
	}
}

// SizeFor draws the stack size for a new listing of the given template. The
// result is in [1, cap] where cap is the lesser of the item's inherent
// maximum and the segment's per-quality override, reduced by the quality
// divisor when it divides evenly.
func SizeFor(rng *rand.Rand, cfg domain.SegmentConfig, tpl domain.ItemTemplate) int {
	itemMax := tpl.MaxStack
	if itemMax < 1 {
		itemMax = 1
	}
	configMax := cfg.MaxStack[tpl.Quality]
	if configMax == 0 {
		configMax = itemMax
	}

	max := itemMax
	if configMax < max {
		max = configMax
	}

	if div := stackDivisor(tpl.Quality); div > 1 && max%div == 0 {
		max /= div
	}
	if max < 1 {
		max = 1
	}
	if max == 1 {
		return 1
	}

	n := 1 + rng.Intn(max)
	if rng.Intn(100) < fullStackPercent {
		n = max
	}
	return n
}

// StackUnits is the coarse heuristic for how many duplicate units an
// already-offered stack of up to max units is treated as representing in
// duplicate-cap checks. When divisible stacks are configured it prefers
// multiples of 5, 4, and 3; the conditions intentionally fall through
// without priority, so a max divisible by several keeps only the last
// matching draw. When no condition matches, or divisible stacks are off,
// the draw is uniform in [1, max].
func StackUnits(rng *rand.Rand, divisible bool, max int) int {
	if max <= 1 {
		return 1
	}

	if divisible {
		ret := 0
		if max%5 == 0 {
			ret = (1 + rng.Intn(4)) * 5
		}
		if max%4 == 0 {
			ret = (1 + rng.Intn(4)) * 4
		}
		if max%3 == 0 {
			ret = (1 + rng.Intn(3)) * 3
		}
		if ret > max {
			ret = max
		}
		if ret > 0 {
			return ret
		}
	}

	return 1 + rng.Intn(max)
}
