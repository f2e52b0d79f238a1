package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
)

// Service implements the reservation protocol: it moves units between the
// shared inventory and a user's cart, one atomic unit of work per operation,
// and announces every committed cart.
type Service struct {
	store     Store
	notifier  Notifier
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time

	// publishTimeout bounds how long a committed mutation waits on the broker
	// before it answers the caller.
	publishTimeout time.Duration
}

const defaultPublishTimeout = 5 * time.Second

func NewService(store Store, notifier Notifier, publisher EventPublisher, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
		now:       time.Now,

		publishTimeout: defaultPublishTimeout,
	}
}

// GetCart returns the resolved cart of userID. A user without a cart gets an
// empty one.
func (s *Service) GetCart(ctx context.Context, userID string) (domain.ResolvedCart, error) {
	if userID == "" {
		return domain.ResolvedCart{}, ErrUnauthenticated
	}

	var out domain.ResolvedCart
	err := s.store.Atomically(ctx, func(tx Tx) error {
		var err error
		out, err = resolve(ctx, tx, userID)
		return err
	})
	if err != nil {
		return domain.ResolvedCart{}, s.failed("get", userID, "", err)
	}
	return out, nil
}

// Add reserves qty more units of productID for userID, creating the cart and
// the line as needed.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int32) (domain.ResolvedCart, error) {
	if err := validate(userID, productID); err != nil {
		return domain.ResolvedCart{}, err
	}
	if qty < 1 {
		return domain.ResolvedCart{}, ErrInvalidQuantity
	}
	// An admitted mutation completes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	var out domain.ResolvedCart
	err := s.store.Atomically(ctx, func(tx Tx) error {
		cart, err := tx.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.IncrementItem(ctx, cart.ID, productID, qty); err != nil {
			return err
		}
		if err := tx.AdjustStock(ctx, productID, -qty); err != nil {
			return err
		}
		out, err = resolve(ctx, tx, userID)
		return err
	})
	if err != nil {
		return domain.ResolvedCart{}, s.failed("add", userID, productID, err)
	}

	s.committed(ctx, out, domain.ReservationEvent{
		Type:      domain.EventReserved,
		UserID:    userID,
		ProductID: productID,
		Delta:     qty,
		Quantity:  out.Quantity(productID),
	})
	return out, nil
}

// SetQuantity replaces the reservation of a line. The line's previous
// quantity is released and newQty taken in the same conditional stock update,
// so the available pool is the remaining stock plus the old reservation.
// newQty == 0 removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, newQty int32) (domain.ResolvedCart, error) {
	if err := validate(userID, productID); err != nil {
		return domain.ResolvedCart{}, err
	}
	if newQty < 0 {
		return domain.ResolvedCart{}, ErrInvalidQuantity
	}
	ctx = context.WithoutCancel(ctx)

	var (
		out  domain.ResolvedCart
		prev int32
	)
	err := s.store.Atomically(ctx, func(tx Tx) error {
		cart, err := tx.FindCart(ctx, userID)
		if err != nil {
			return err
		}
		item, err := tx.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		prev = item.Quantity

		if newQty == 0 {
			err = tx.RemoveItem(ctx, cart.ID, productID)
		} else {
			err = tx.SetItemQuantity(ctx, cart.ID, productID, newQty)
		}
		if err != nil {
			return err
		}

		if delta := prev - newQty; delta != 0 {
			if err := tx.AdjustStock(ctx, productID, delta); err != nil {
				return err
			}
		}
		out, err = resolve(ctx, tx, userID)
		return err
	})
	if err != nil {
		return domain.ResolvedCart{}, s.failed("set_quantity", userID, productID, err)
	}

	typ := domain.EventAdjusted
	if newQty == 0 {
		typ = domain.EventReleased
	}
	s.committed(ctx, out, domain.ReservationEvent{
		Type:      typ,
		UserID:    userID,
		ProductID: productID,
		Delta:     newQty - prev,
		Quantity:  newQty,
	})
	return out, nil
}

// Remove releases a line's whole reservation back to the inventory.
func (s *Service) Remove(ctx context.Context, userID, productID string) (domain.ResolvedCart, error) {
	if err := validate(userID, productID); err != nil {
		return domain.ResolvedCart{}, err
	}
	ctx = context.WithoutCancel(ctx)

	var (
		out      domain.ResolvedCart
		released int32
	)
	err := s.store.Atomically(ctx, func(tx Tx) error {
		cart, err := tx.FindCart(ctx, userID)
		if err != nil {
			return err
		}
		item, err := tx.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		released = item.Quantity

		if err := tx.RemoveItem(ctx, cart.ID, productID); err != nil {
			return err
		}
		if err := tx.AdjustStock(ctx, productID, released); err != nil {
			return err
		}
		out, err = resolve(ctx, tx, userID)
		return err
	})
	if err != nil {
		return domain.ResolvedCart{}, s.failed("remove", userID, productID, err)
	}

	s.committed(ctx, out, domain.ReservationEvent{
		Type:      domain.EventReleased,
		UserID:    userID,
		ProductID: productID,
		Delta:     -released,
	})
	return out, nil
}

func (s *Service) committed(ctx context.Context, cart domain.ResolvedCart, ev domain.ReservationEvent) {
	s.notifier.CartUpdated(cart.UserID, cart)

	ev.At = s.now().UTC()
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish reservation event failed",
			slog.String("type", string(ev.Type)),
			slog.String("user_id", ev.UserID),
			slog.String("product_id", ev.ProductID),
			slog.Any("err", err))
	}
}

func (s *Service) failed(op, userID, productID string, err error) error {
	if ErrorCode(err) == CodeServerError {
		s.log.Error("cart operation failed",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.String("product_id", productID),
			slog.Any("err", err))
		return err
	}
	s.log.Debug("cart operation rejected",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.String("code", ErrorCode(err)))
	return err
}

func validate(userID, productID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(productID) == "" {
		return ErrProductNotFound
	}
	return nil
}

func resolve(ctx context.Context, tx Tx, userID string) (domain.ResolvedCart, error) {
	cart, err := tx.FindCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return domain.ResolvedCart{UserID: userID, Items: []domain.ResolvedItem{}}, nil
	}
	if err != nil {
		return domain.ResolvedCart{}, err
	}

	products, err := tx.Products(ctx, cart.ProductIDs())
	if err != nil {
		return domain.ResolvedCart{}, err
	}
	return domain.Resolve(cart, products), nil
}

type nopNotifier struct{}

func (nopNotifier) CartUpdated(string, domain.ResolvedCart) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.ReservationEvent) error { return nil }
