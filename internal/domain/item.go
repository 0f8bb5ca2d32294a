package domain

// ItemClass is the coarse equipment class of a catalog item. Only the
// ammunition class carries special policy (the buyer never bids on it);
// every other class takes the generic pricing path.
type ItemClass string

const (
	ClassGeneric    ItemClass = "generic"
	ClassAmmunition ItemClass = "ammunition"
)

// ItemTemplate is one catalog entry: the immutable description of a good
// that can be materialized into listed units.
type ItemTemplate struct {
	ID        string
	Name      string
	Quality   Quality
	Kind      ItemKind
	Class     ItemClass
	ItemLevel int
	BuyPrice  int64 // vendor purchase price per unit, 0 if not sold by vendors
	SellPrice int64 // vendor sell-back price per unit, 0 if worthless
	MaxStack  int   // inherent maximum units per stack, >= 1
}

// Category returns the quality×kind bucket this template belongs to.
func (t ItemTemplate) Category() Category {
	return Category{Quality: t.Quality, Kind: t.Kind}
}

// ItemInstance is one materialized unit stack owned by an agent, referenced
// by a listing until the listing is won or expires.
type ItemInstance struct {
	ID         string
	TemplateID string
	Count      int
	Owner      AgentID
}
