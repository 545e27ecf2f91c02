package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anakol/pokerpot/internal/money"
)

type recordingNotifier struct {
	mu        sync.Mutex
	requests  []BuyInRequested
	approvals []BuyInApproved
	err       error
}

func (n *recordingNotifier) NotifyBuyInRequest(_ context.Context, sessionID, memberName string, amountCents money.Cents) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, BuyInRequested{sessionID, memberName, amountCents})
	return n.err
}

func (n *recordingNotifier) NotifyBuyInApproved(_ context.Context, sessionID, userID string, amountCents money.Cents) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvals = append(n.approvals, BuyInApproved{sessionID, userID, amountCents})
	return n.err
}

func TestBusDeliversEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	bus := NewBus(notifier, 8)

	bus.Publish(BuyInRequested{SessionID: "s1", MemberName: "Alice", AmountCents: 5000})
	bus.Publish(BuyInApproved{SessionID: "s1", UserID: "u1", AmountCents: 5000})
	bus.Close()

	assert.Equal(t, []BuyInRequested{{"s1", "Alice", 5000}}, notifier.requests)
	assert.Equal(t, []BuyInApproved{{"s1", "u1", 5000}}, notifier.approvals)
}

func TestBusSwallowsNotifierErrors(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("push service down")}
	bus := NewBus(notifier, 8)

	// Publish must not block or panic even when every delivery fails.
	for i := 0; i < 5; i++ {
		bus.Publish(BuyInRequested{SessionID: "s1", MemberName: "Bob", AmountCents: 100})
	}
	bus.Close()

	assert.Len(t, notifier.requests, 5)
}

func TestPublishNeverBlocks(t *testing.T) {
	// A nil-op notifier that sleeps keeps the dispatcher busy so the
	// buffer fills up; Publish must still return promptly and drop.
	slow := &slowNotifier{block: make(chan struct{})}
	bus := NewBus(slow, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			bus.Publish(BuyInRequested{SessionID: "s1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full outbox")
	}

	close(slow.block)
	bus.Close()
}

type slowNotifier struct {
	block chan struct{}
}

func (n *slowNotifier) NotifyBuyInRequest(context.Context, string, string, money.Cents) error {
	<-n.block
	return nil
}

func (n *slowNotifier) NotifyBuyInApproved(context.Context, string, string, money.Cents) error {
	<-n.block
	return nil
}
