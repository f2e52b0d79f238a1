package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	cartmem "github.com/dwikikusuma/shoping-live/internal/cart/infra/memory"
	catalogdomain "github.com/dwikikusuma/shoping-live/internal/catalog/domain"
	catalogmem "github.com/dwikikusuma/shoping-live/internal/catalog/infra/memory"
	"github.com/dwikikusuma/shoping-live/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenAuth treats a token as the user id it names; "" and "expired" fail.
type tokenAuth map[string]string

func (a tokenAuth) Authenticate(_ context.Context, token string) (string, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

type harness struct {
	hub      *Hub
	d        *Dispatcher
	products *catalogmem.ProductRepo
	tshirt   string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	products := catalogmem.NewProductRepo()
	p, err := products.Create(context.Background(), catalogdomain.Product{
		Name:     "Red T-Shirt",
		Price:    catalogdomain.Money{Currency: "USD", Amount: 299},
		Quantity: 10,
	})
	require.NoError(t, err)

	hub := NewHub(logger.Discard())
	svc := app.NewService(cartmem.NewStore(products), hub, nil, logger.Discard())
	auth := tokenAuth{"tok-alice": "alice", "tok-bob": "bob"}
	return harness{
		hub:      hub,
		d:        NewDispatcher(auth, svc, hub, logger.Discard()),
		products: products,
		tshirt:   p.ID,
	}
}

func (h harness) stock(t *testing.T) int32 {
	t.Helper()
	p, err := h.products.Get(context.Background(), h.tshirt)
	require.NoError(t, err)
	return p.Quantity
}

func request(event string, id int64, data any) Envelope {
	env := Envelope{Event: event}
	if id != 0 {
		env.ID = &id
	}
	if data != nil {
		raw, _ := json.Marshal(data)
		env.Data = raw
	}
	return env
}

func decodeAck(t *testing.T, frame []byte) Ack {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	require.Equal(t, EventAck, env.Event)
	var ack Ack
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	return ack
}

func TestDispatcher_AddAcksAndBroadcastsToRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice1 := &fakeSub{id: "a1", token: "tok-alice"}
	alice2 := &fakeSub{id: "a2", token: "tok-alice"}
	bob := &fakeSub{id: "b", token: "tok-bob"}
	for _, s := range []*fakeSub{alice1, alice2, bob} {
		assert.Nil(t, h.d.Handle(ctx, s, request(EventJoin, 0, nil)))
	}

	frame := h.d.Handle(ctx, alice1, request(EventCartAdd, 7, map[string]any{"productId": h.tshirt, "qty": "4"}))
	ack := decodeAck(t, frame)

	require.True(t, ack.OK)
	require.NotNil(t, ack.Cart)
	assert.Equal(t, int32(4), ack.Cart.Quantity(h.tshirt))
	assert.Equal(t, int32(6), h.stock(t))

	assert.Equal(t, 1, alice1.received())
	assert.Equal(t, 1, alice2.received())
	assert.Equal(t, 0, bob.received(), "other rooms hear nothing")
}

func TestDispatcher_UnauthenticatedChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	watcher := &fakeSub{id: "w", token: "tok-alice"}
	h.d.Handle(ctx, watcher, request(EventJoin, 0, nil))

	// Same room membership would not help: identity is checked per operation.
	h.hub.Join(&fakeSub{id: "ghost-room"}, "alice")
	anon := &fakeSub{id: "anon", token: "expired"}

	events := []Envelope{
		request(EventCartAdd, 1, map[string]any{"productId": h.tshirt, "qty": 1}),
		request(EventCartUpdateQty, 2, map[string]any{"productId": h.tshirt, "qty": 1}),
		request(EventCartRemoveItem, 3, map[string]any{"productId": h.tshirt}),
	}
	for _, env := range events {
		ack := decodeAck(t, h.d.Handle(ctx, anon, env))
		assert.False(t, ack.OK, env.Event)
		require.NotNil(t, ack.Error)
		assert.Equal(t, app.CodeUnauthenticated, ack.Error.Code)
	}

	assert.Equal(t, int32(10), h.stock(t))
	assert.Equal(t, 0, watcher.received())
}

func TestDispatcher_ErrorsWithoutIDGoToCallerOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := &fakeSub{id: "a", token: "tok-alice"}
	other := &fakeSub{id: "a2", token: "tok-alice"}
	h.d.Handle(ctx, alice, request(EventJoin, 0, nil))
	h.d.Handle(ctx, other, request(EventJoin, 0, nil))

	frame := h.d.Handle(ctx, alice, request(EventCartAdd, 0, map[string]any{"productId": h.tshirt, "qty": 11}))

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventError, env.Event)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, app.CodeOutOfStock, body.Code)

	assert.Equal(t, 0, other.received())
	assert.Equal(t, int32(10), h.stock(t))
}

func TestDispatcher_JoinUsesAuthenticatedIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mallory := &fakeSub{id: "m", token: "tok-bob"}
	frame := h.d.Handle(ctx, mallory, request(EventJoinRoom, 0, map[string]string{"userId": "alice"}))
	require.NotNil(t, frame)
	assert.Equal(t, 0, h.hub.RoomSize("alice"))

	anon := &fakeSub{id: "x"}
	require.NotNil(t, h.d.Handle(ctx, anon, request(EventJoin, 0, nil)))
	_, joined := h.hub.RoomOf(anon)
	assert.False(t, joined)

	ack := decodeAck(t, h.d.Handle(ctx, mallory, request(EventJoin, 9, map[string]string{"userId": "bob"})))
	assert.True(t, ack.OK)
	assert.Equal(t, 1, h.hub.RoomSize("bob"))
}

func TestDispatcher_ScenarioOverTheWire(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := &fakeSub{id: "a", token: "tok-alice"}

	steps := []struct {
		env   Envelope
		qty   int32
		stock int32
	}{
		{request(EventCartAdd, 1, map[string]any{"productId": h.tshirt, "qty": 4}), 4, 6},
		{request(EventCartSetQty, 2, map[string]any{"productId": h.tshirt, "qty": 2}), 2, 8},
		{request(EventCartRemoveItem, 3, map[string]any{"productId": h.tshirt}), 0, 10},
	}
	for _, step := range steps {
		ack := decodeAck(t, h.d.Handle(ctx, alice, step.env))
		require.True(t, ack.OK, step.env.Event)
		assert.Equal(t, step.qty, ack.Cart.Quantity(h.tshirt), step.env.Event)
		assert.Equal(t, step.stock, h.stock(t), step.env.Event)
	}

	ack := decodeAck(t, h.d.Handle(ctx, alice, request(EventCartGet, 4, nil)))
	require.True(t, ack.OK)
	assert.Empty(t, ack.Cart.Items)
}

func TestDispatcher_BadRequests(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := &fakeSub{id: "a", token: "tok-alice"}

	ack := decodeAck(t, h.d.Handle(ctx, alice, request("cart:explode", 1, nil)))
	assert.Equal(t, CodeBadRequest, ack.Error.Code)

	ack = decodeAck(t, h.d.Handle(ctx, alice, request(EventCartUpdateQty, 2, map[string]any{"productId": h.tshirt, "qty": "lots"})))
	assert.Equal(t, app.CodeInvalidQuantity, ack.Error.Code)

	ack = decodeAck(t, h.d.Handle(ctx, alice, request(EventCartRemoveItem, 3, map[string]any{"productId": "nope"})))
	assert.Equal(t, app.CodeNotFound, ack.Error.Code)
}
