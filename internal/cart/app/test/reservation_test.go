package app_test

import (
	"context"
	"testing"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservation_AddSetRemoveScenario(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		user := uuid.NewString()
		p := f.newProduct(t, "Red T-Shirt", 10)

		cart, err := f.svc.Add(ctx, user, p, 4)
		require.NoError(t, err)
		assert.EqualValues(t, 4, cart.Quantity(p))
		assert.EqualValues(t, 6, f.stock(t, p))
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "Red T-Shirt", cart.Items[0].Name)
		assert.EqualValues(t, 400, cart.Total.Amount)

		cart, err = f.svc.SetQuantity(ctx, user, p, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 2, cart.Quantity(p))
		assert.EqualValues(t, 8, f.stock(t, p))

		cart, err = f.svc.Remove(ctx, user, p)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.EqualValues(t, 10, f.stock(t, p))

		assert.Equal(t, 3, f.notes.count(user), "every committed mutation is announced")
	})
}

func TestReservation_AddBeyondStockIsRejected(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		user := uuid.NewString()
		p := f.newProduct(t, "Blue Jeans", 3)

		_, err := f.svc.Add(ctx, user, p, 4)
		require.ErrorIs(t, err, app.ErrOutOfStock)

		assert.EqualValues(t, 3, f.stock(t, p))
		cart, err := f.svc.GetCart(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Zero(t, f.notes.total(), "failed mutations are not announced")
	})
}

func TestReservation_AddAccumulates(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		user := uuid.NewString()
		p := f.newProduct(t, "Sneakers", 7)

		_, err := f.svc.Add(ctx, user, p, 2)
		require.NoError(t, err)
		cart, err := f.svc.Add(ctx, user, p, 3)
		require.NoError(t, err)

		assert.EqualValues(t, 5, cart.Quantity(p))
		assert.EqualValues(t, 2, f.stock(t, p))

		_, err = f.svc.Add(ctx, user, p, 3)
		require.ErrorIs(t, err, app.ErrOutOfStock)
		assert.EqualValues(t, 5, f.reserved(t, p, user))
		assert.EqualValues(t, 2, f.stock(t, p))
	})
}

func TestReservation_SetQuantityFoldsOwnReservation(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		user := uuid.NewString()
		p := f.newProduct(t, "Mug", 5)

		_, err := f.svc.Add(ctx, user, p, 3)
		require.NoError(t, err)

		// 2 left in stock, but the 3 already held count towards the new amount.
		cart, err := f.svc.SetQuantity(ctx, user, p, 5)
		require.NoError(t, err)
		assert.EqualValues(t, 5, cart.Quantity(p))
		assert.EqualValues(t, 0, f.stock(t, p))

		_, err = f.svc.SetQuantity(ctx, user, p, 6)
		require.ErrorIs(t, err, app.ErrOutOfStock)
		assert.EqualValues(t, 5, f.reserved(t, p, user))
		assert.EqualValues(t, 0, f.stock(t, p))
	})
}

func TestReservation_ZeroQuantityEqualsRemove(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		a, b := uuid.NewString(), uuid.NewString()
		pa := f.newProduct(t, "A", 8)
		pb := f.newProduct(t, "B", 8)

		for _, step := range []struct {
			user, product string
		}{{a, pa}, {b, pb}} {
			_, err := f.svc.Add(ctx, step.user, step.product, 3)
			require.NoError(t, err)
		}

		viaSet, err := f.svc.SetQuantity(ctx, a, pa, 0)
		require.NoError(t, err)
		viaRemove, err := f.svc.Remove(ctx, b, pb)
		require.NoError(t, err)

		assert.Empty(t, viaSet.Items)
		assert.Empty(t, viaRemove.Items)
		assert.Equal(t, f.stock(t, pa), f.stock(t, pb))
		assert.EqualValues(t, 8, f.stock(t, pa))

		_, err = f.svc.SetQuantity(ctx, a, pa, 1)
		assert.ErrorIs(t, err, app.ErrItemNotFound, "a collapsed line is absent")
	})
}

func TestReservation_SecondRemoveIsNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		user := uuid.NewString()
		p := f.newProduct(t, "Cap", 4)

		_, err := f.svc.Add(ctx, user, p, 1)
		require.NoError(t, err)

		_, err = f.svc.Remove(ctx, user, p)
		require.NoError(t, err)
		_, err = f.svc.Remove(ctx, user, p)
		require.ErrorIs(t, err, app.ErrNotFound)
		assert.EqualValues(t, 4, f.stock(t, p))
	})
}

func TestReservation_Validation(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		user := uuid.NewString()
		p := f.newProduct(t, "Sock", 2)

		cases := []struct {
			name string
			run  func() error
			want error
		}{
			{"add zero", func() error { _, err := f.svc.Add(ctx, user, p, 0); return err }, app.ErrInvalidQuantity},
			{"add negative", func() error { _, err := f.svc.Add(ctx, user, p, -1); return err }, app.ErrInvalidQuantity},
			{"set negative", func() error { _, err := f.svc.SetQuantity(ctx, user, p, -1); return err }, app.ErrInvalidQuantity},
			{"add unknown product", func() error { _, err := f.svc.Add(ctx, user, uuid.NewString(), 1); return err }, app.ErrProductNotFound},
			{"set without cart", func() error { _, err := f.svc.SetQuantity(ctx, user, p, 1); return err }, app.ErrCartNotFound},
			{"remove without cart", func() error { _, err := f.svc.Remove(ctx, user, p); return err }, app.ErrCartNotFound},
			{"anonymous add", func() error { _, err := f.svc.Add(ctx, "", p, 1); return err }, app.ErrUnauthenticated},
			{"anonymous set", func() error { _, err := f.svc.SetQuantity(ctx, "", p, 1); return err }, app.ErrUnauthenticated},
			{"anonymous remove", func() error { _, err := f.svc.Remove(ctx, "", p); return err }, app.ErrUnauthenticated},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.ErrorIs(t, tc.run(), tc.want)
			})
		}

		assert.EqualValues(t, 2, f.stock(t, p))
		assert.Zero(t, f.notes.total())

		cart, err := f.svc.GetCart(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, cart.Items, "a rejected add must not leave a lazily created line behind")
	})
}

func TestReservation_RemoveWithOtherItemInCart(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		user := uuid.NewString()
		p1 := f.newProduct(t, "One", 5)
		p2 := f.newProduct(t, "Two", 5)

		_, err := f.svc.Add(ctx, user, p1, 1)
		require.NoError(t, err)
		_, err = f.svc.Add(ctx, user, p2, 2)
		require.NoError(t, err)

		_, err = f.svc.Remove(ctx, user, uuid.NewString())
		require.ErrorIs(t, err, app.ErrItemNotFound)

		cart, err := f.svc.Remove(ctx, user, p1)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, p2, cart.Items[0].ProductID)
		assert.EqualValues(t, 5, f.stock(t, p1))
		assert.EqualValues(t, 3, f.stock(t, p2))
	})
}
