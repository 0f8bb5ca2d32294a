// Package mint materializes item units for new listings and computes
// listing deposits.
package mint

import (
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

const (
	// depositPercent is the deposit charged per deposit step, as a
	// percentage of the stack's vendor sell value.
	depositPercent = 15

	// depositStep is the listing duration covered by one deposit charge.
	depositStep = 12 * time.Hour
)

// Minter implements domain.Mint.
type Minter struct{}

// New creates a Minter.
func New() *Minter {
	return &Minter{}
}

// CreateUnit materializes a stack of count units of a template owned by the
// given agent.
func (m *Minter) CreateUnit(templateID string, count int, owner domain.AgentID) domain.ItemInstance {
	return domain.ItemInstance{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		Count:      count,
		Owner:      owner,
	}
}

// Deposit computes the up-front listing deposit: 15% of the stack's vendor
// sell value per started 12-hour step of the listing duration, at least one
// step.
func (m *Minter) Deposit(d time.Duration, tpl domain.ItemTemplate, count int) int64 {
	steps := int64((d + depositStep - 1) / depositStep)
	if steps < 1 {
		steps = 1
	}
	return tpl.SellPrice * int64(count) * depositPercent / 100 * steps
}

// Compile-time interface check.
var _ domain.Mint = (*Minter)(nil)
