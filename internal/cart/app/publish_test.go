package app

import (
	"context"
	"testing"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	"github.com/dwikikusuma/shoping-live/pkg/logger"
	"github.com/stretchr/testify/assert"
)

// stalledBroker never confirms a publish; it gives up only when ctx does.
type stalledBroker struct {
	err chan error
}

func (b *stalledBroker) Publish(ctx context.Context, _ domain.ReservationEvent) error {
	<-ctx.Done()
	b.err <- ctx.Err()
	return ctx.Err()
}

type lastCart struct{ cart domain.ResolvedCart }

func (n *lastCart) CartUpdated(_ string, cart domain.ResolvedCart) { n.cart = cart }

func TestCommitted_StalledBrokerDoesNotHoldTheReply(t *testing.T) {
	broker := &stalledBroker{err: make(chan error, 1)}
	notes := &lastCart{}
	s := NewService(nil, notes, broker, logger.Discard())
	s.publishTimeout = 20 * time.Millisecond

	cart := domain.ResolvedCart{UserID: "u1", Revision: 4}
	finished := make(chan struct{})
	go func() {
		// mutations run on a context the caller cannot cancel
		s.committed(context.WithoutCancel(context.Background()), cart, domain.ReservationEvent{
			Type:   domain.EventReserved,
			UserID: "u1",
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("committed blocked on a stalled broker")
	}
	assert.ErrorIs(t, <-broker.err, context.DeadlineExceeded)
	assert.Equal(t, int64(4), notes.cart.Revision)
}

func TestNewService_DefaultPublishTimeout(t *testing.T) {
	s := NewService(nil, nil, nil, logger.Discard())
	assert.Equal(t, defaultPublishTimeout, s.publishTimeout)
}
