package domain

import "fmt"

// Quality is the discrete rarity tier of a catalog item. It drives pricing,
// stack sizing, and quota policy throughout the engine.
type Quality int

const (
	QualityPoor Quality = iota
	QualityNormal
	QualityUncommon
	QualityRare
	QualityEpic
	QualityLegendary
	QualityArtifact
)

// NumQualities is the number of supported quality tiers.
const NumQualities = 7

var qualityNames = [NumQualities]string{
	"poor", "normal", "uncommon", "rare", "epic", "legendary", "artifact",
}

func (q Quality) String() string {
	if q < 0 || int(q) >= NumQualities {
		return fmt.Sprintf("quality(%d)", int(q))
	}
	return qualityNames[q]
}

// Valid reports whether q is one of the supported tiers.
func (q Quality) Valid() bool {
	return q >= QualityPoor && int(q) < NumQualities
}

// ParseQuality converts a tier name ("poor" ... "artifact") to its Quality.
func ParseQuality(s string) (Quality, error) {
	for i, name := range qualityNames {
		if name == s {
			return Quality(i), nil
		}
	}
	return 0, fmt.Errorf("domain: unknown quality %q", s)
}

// ItemKind splits the catalog into discrete items and bulk tradeable goods.
type ItemKind int

const (
	KindItem ItemKind = iota
	KindTradeGood
)

func (k ItemKind) String() string {
	if k == KindTradeGood {
		return "trade_good"
	}
	return "item"
}

// ParseItemKind converts "item" or "trade_good" to its ItemKind.
func ParseItemKind(s string) (ItemKind, error) {
	switch s {
	case "item":
		return KindItem, nil
	case "trade_good":
		return KindTradeGood, nil
	}
	return 0, fmt.Errorf("domain: unknown item kind %q", s)
}

// Category is one quality×kind bucket of the catalog. The 14 categories
// partition the catalog with no overlap.
type Category struct {
	Quality Quality
	Kind    ItemKind
}

// NumCategories is the number of category buckets (7 qualities × 2 kinds).
const NumCategories = NumQualities * 2

// Index maps a category to its slot in per-segment quota and count tables.
// Discrete items occupy slots 0..6, trade goods 7..13.
func (c Category) Index() int {
	if c.Kind == KindTradeGood {
		return NumQualities + int(c.Quality)
	}
	return int(c.Quality)
}

func (c Category) String() string {
	return c.Quality.String() + "/" + c.Kind.String()
}

// CategoryAt is the inverse of Category.Index.
func CategoryAt(index int) Category {
	if index >= NumQualities {
		return Category{Quality: Quality(index - NumQualities), Kind: KindTradeGood}
	}
	return Category{Quality: Quality(index), Kind: KindItem}
}

// Categories returns all 14 categories in table order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = CategoryAt(i)
	}
	return out
}
