package engine

import (
	"math/rand"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// ListingDuration draws how long a new listing stays open, according to the
// segment's duration class. Unknown classes fall back to long.
func ListingDuration(rng *rand.Rand, class domain.DurationClass) time.Duration {
	switch class {
	case domain.DurationRandom:
		// Anywhere between 10 minutes and 3 days.
		lo := int64(10 * time.Minute / time.Second)
		hi := int64(3 * 24 * time.Hour / time.Second)
		return time.Duration(lo+rng.Int63n(hi-lo+1)) * time.Second
	case domain.DurationShort:
		// Multiple of 10 minutes, up to an hour.
		return time.Duration(1+rng.Intn(6)) * 10 * time.Minute
	case domain.DurationMedium:
		// Multiple of an hour, up to a day.
		return time.Duration(1+rng.Intn(24)) * time.Hour
	default:
		// Multiple of a day, up to three.
		return time.Duration(1+rng.Intn(3)) * 24 * time.Hour
	}
}
