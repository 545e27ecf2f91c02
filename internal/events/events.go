// Package events decouples the ledger from the notification transport.
//
// Services publish domain events onto a buffered outbox; a dispatcher
// goroutine consumes them and calls the Notifier. Notification delivery is
// a non-critical side channel: failures are logged and never propagate
// back to the operation that produced the event.
package events

import (
	"context"
	"log/slog"

	"github.com/anakol/pokerpot/internal/money"
)

// BuyInRequested is emitted when a member records a new buy-in that awaits
// admin approval.
type BuyInRequested struct {
	SessionID   string
	MemberName  string
	AmountCents money.Cents
}

// BuyInApproved is emitted when an admin approves a buy-in.
type BuyInApproved struct {
	SessionID   string
	UserID      string
	AmountCents money.Cents
}

// Event is one of the domain event structs above.
type Event any

// Notifier delivers notifications to session participants. Implementations
// wrap whatever push transport the app uses; errors are swallowed by the
// dispatcher after logging.
type Notifier interface {
	NotifyBuyInRequest(ctx context.Context, sessionID, memberName string, amountCents money.Cents) error
	NotifyBuyInApproved(ctx context.Context, sessionID, userID string, amountCents money.Cents) error
}

// Bus is the outbox. Publish never blocks the caller: when the buffer is
// full the event is dropped with a warning, matching the fire-and-forget
// contract.
type Bus struct {
	ch       chan Event
	done     chan struct{}
	notifier Notifier
}

// NewBus creates a bus with the given buffer size and starts its
// dispatcher goroutine.
func NewBus(notifier Notifier, buffer int) *Bus {
	b := &Bus{
		ch:       make(chan Event, buffer),
		done:     make(chan struct{}),
		notifier: notifier,
	}
	go b.dispatch()
	return b
}

// Publish enqueues an event for asynchronous delivery.
func (b *Bus) Publish(event Event) {
	select {
	case b.ch <- event:
	default:
		slog.Warn("Event dropped, outbox full", "event", event)
	}
}

// Close stops accepting events and waits for the dispatcher to drain.
func (b *Bus) Close() {
	close(b.ch)
	<-b.done
}

func (b *Bus) dispatch() {
	defer close(b.done)
	ctx := context.Background()

	for event := range b.ch {
		var err error
		switch e := event.(type) {
		case BuyInRequested:
			err = b.notifier.NotifyBuyInRequest(ctx, e.SessionID, e.MemberName, e.AmountCents)
		case BuyInApproved:
			err = b.notifier.NotifyBuyInApproved(ctx, e.SessionID, e.UserID, e.AmountCents)
		default:
			slog.Warn("Unknown event type", "event", event)
			continue
		}
		if err != nil {
			slog.Warn("Notification dispatch failed", "event", event, "error", err)
		}
	}
}

// SlogNotifier is the default Notifier: it just logs. The real push
// transport lives outside this module.
type SlogNotifier struct{}

func (SlogNotifier) NotifyBuyInRequest(_ context.Context, sessionID, memberName string, amountCents money.Cents) error {
	slog.Info("Buy-in requested", "session_id", sessionID, "member", memberName, "amount", money.Format(amountCents))
	return nil
}

func (SlogNotifier) NotifyBuyInApproved(_ context.Context, sessionID, userID string, amountCents money.Cents) error {
	slog.Info("Buy-in approved", "session_id", sessionID, "user_id", userID, "amount", money.Format(amountCents))
	return nil
}
