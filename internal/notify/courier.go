// Package notify delivers marketplace notifications. The Courier composes
// in-world mail for participants (outbid, sale, win messages) and can
// optionally mirror sale events to operator channels such as Discord.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// Sender is the interface that each operator notification channel
// implements.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "discord").
	Name() string
}

// Courier implements domain.Notifier by queueing in-world mail. Operator
// senders are optional mirrors; their failures are logged and never
// propagated, since the mail queue is the delivery of record.
type Courier struct {
	mail    domain.MailStore
	senders []Sender
	now     func() time.Time
	logger  *slog.Logger
}

// NewCourier creates a Courier writing to the given mail store.
func NewCourier(mail domain.MailStore, senders []Sender, logger *slog.Logger) *Courier {
	return &Courier{
		mail:    mail,
		senders: senders,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "courier")),
	}
}

// NotifyOutbid tells a previous bidder they were outbid and that their
// escrowed funds are returned.
func (c *Courier) NotifyOutbid(ctx context.Context, l domain.Listing, newAmount int64, recipient domain.AgentID) error {
	m := domain.Mail{
		Recipient: recipient,
		Subject:   "You have been outbid",
		Body: fmt.Sprintf(
			"Your bid of %d on listing %s was beaten by a bid of %d. Your funds have been returned.",
			l.Bid, l.ID, newAmount,
		),
		ListingID: l.ID,
		Amount:    l.Bid,
		CreatedAt: c.now(),
	}
	if err := c.mail.Enqueue(ctx, m); err != nil {
		return fmt.Errorf("notify: queue outbid mail: %w", err)
	}
	return nil
}

// NotifySuccess tells the seller their listing sold.
func (c *Courier) NotifySuccess(ctx context.Context, l domain.Listing) error {
	m := domain.Mail{
		Recipient: l.Seller,
		Subject:   "Your listing sold",
		Body: fmt.Sprintf(
			"Listing %s sold for %d. Proceeds and deposit are on their way.",
			l.ID, l.Bid,
		),
		ListingID: l.ID,
		Amount:    l.Bid,
		CreatedAt: c.now(),
	}
	if err := c.mail.Enqueue(ctx, m); err != nil {
		return fmt.Errorf("notify: queue sale mail: %w", err)
	}
	c.mirror(ctx, "Listing sold", m.Body)
	return nil
}

// NotifyWon tells the winning bidder the item is theirs.
func (c *Courier) NotifyWon(ctx context.Context, l domain.Listing) error {
	m := domain.Mail{
		Recipient: l.Bidder,
		Subject:   "Auction won",
		Body: fmt.Sprintf(
			"You won listing %s for %d. The items are attached.",
			l.ID, l.Bid,
		),
		ListingID: l.ID,
		Amount:    l.Bid,
		CreatedAt: c.now(),
	}
	if err := c.mail.Enqueue(ctx, m); err != nil {
		return fmt.Errorf("notify: queue win mail: %w", err)
	}
	return nil
}

// mirror forwards an event to the operator senders. Failures are logged
// only.
func (c *Courier) mirror(ctx context.Context, title, message string) {
	for _, s := range c.senders {
		if err := s.Send(ctx, title, message); err != nil {
			c.logger.WarnContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Compile-time interface check.
var _ domain.Notifier = (*Courier)(nil)
