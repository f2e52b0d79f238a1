package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
)

// Authenticator resolves a connection credential to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// CartService is the reservation protocol as seen from a connection.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.ResolvedCart, error)
	Add(ctx context.Context, userID, productID string, qty int32) (domain.ResolvedCart, error)
	SetQuantity(ctx context.Context, userID, productID string, qty int32) (domain.ResolvedCart, error)
	Remove(ctx context.Context, userID, productID string) (domain.ResolvedCart, error)
}

// Client is a connection as the dispatcher needs it: something that can sit
// in a room and carries the credential captured at handshake.
type Client interface {
	Subscriber
	Token() string
}

var errUnknownEvent = errors.New("unknown event")

// Dispatcher turns inbound envelopes into cart operations. Identity is
// resolved again for every operation, so an expired token stops working
// without the connection being dropped.
type Dispatcher struct {
	auth  Authenticator
	carts CartService
	hub   *Hub
	log   *slog.Logger
}

func NewDispatcher(auth Authenticator, carts CartService, hub *Hub, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{auth: auth, carts: carts, hub: hub, log: log}
}

// Handle runs one request and returns the frame to send back to the caller,
// or nil when there is nothing to say.
func (d *Dispatcher) Handle(ctx context.Context, c Client, env Envelope) []byte {
	if env.Event == EventJoin || env.Event == EventJoinRoom {
		return d.reply(c, env, nil, d.join(ctx, c, env.Data))
	}

	cart, err := d.cartOp(ctx, c, env)
	return d.reply(c, env, &cart, err)
}

func (d *Dispatcher) join(ctx context.Context, c Client, data json.RawMessage) error {
	userID, err := d.identify(ctx, c)
	if err != nil {
		return err
	}

	var req joinRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("%w: decode join: %v", errBadRequest, err)
		}
	}
	if req.UserID != "" && req.UserID != userID {
		return fmt.Errorf("%w: cannot join another user's room", app.ErrUnauthenticated)
	}

	d.hub.Join(c, userID)
	d.log.Debug("session joined room",
		slog.String("session_id", c.ID()),
		slog.String("user_id", userID))
	return nil
}

func (d *Dispatcher) cartOp(ctx context.Context, c Client, env Envelope) (domain.ResolvedCart, error) {
	var req itemRequest
	switch env.Event {
	case EventCartAdd, EventCartUpdateQty, EventCartSetQty, EventCartRemoveItem, EventCartGet:
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return domain.ResolvedCart{}, fmt.Errorf("%w: decode %s: %v", errBadRequest, env.Event, err)
			}
		}
	default:
		return domain.ResolvedCart{}, fmt.Errorf("%w: %q", errUnknownEvent, env.Event)
	}

	userID, err := d.identify(ctx, c)
	if err != nil {
		return domain.ResolvedCart{}, err
	}

	switch env.Event {
	case EventCartAdd:
		qty, err := ParseQty(req.Qty, 1)
		if err != nil {
			return domain.ResolvedCart{}, err
		}
		return d.carts.Add(ctx, userID, req.ProductID, qty)
	case EventCartUpdateQty, EventCartSetQty:
		qty, err := ParseQty(req.Qty, -1)
		if err != nil {
			return domain.ResolvedCart{}, err
		}
		return d.carts.SetQuantity(ctx, userID, req.ProductID, qty)
	case EventCartRemoveItem:
		return d.carts.Remove(ctx, userID, req.ProductID)
	default:
		return d.carts.GetCart(ctx, userID)
	}
}

func (d *Dispatcher) identify(ctx context.Context, c Client) (string, error) {
	userID, err := d.auth.Authenticate(ctx, c.Token())
	if err != nil || userID == "" {
		return "", app.ErrUnauthenticated
	}
	return userID, nil
}

func (d *Dispatcher) reply(c Client, env Envelope, cart *domain.ResolvedCart, err error) []byte {
	var (
		frame []byte
		mErr  error
	)
	switch {
	case env.ID != nil:
		ack := Ack{OK: err == nil}
		if err != nil {
			ack.Error = wireError(err)
		} else if cart != nil {
			ack.Cart = cart
		}
		frame, mErr = encode(EventAck, env.ID, ack)
	case err != nil:
		frame, mErr = encode(EventError, nil, wireError(err))
	default:
		return nil
	}

	if mErr != nil {
		d.log.Error("encode reply failed",
			slog.String("session_id", c.ID()),
			slog.String("event", env.Event),
			slog.Any("err", mErr))
		return nil
	}
	return frame
}

var errBadRequest = errors.New("bad request")

func wireError(err error) *ErrorBody {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, errUnknownEvent):
		return &ErrorBody{Code: CodeBadRequest, Message: err.Error()}
	case errors.Is(err, errRateLimited):
		return &ErrorBody{Code: CodeRateLimited, Message: err.Error()}
	default:
		return errorBody(err)
	}
}
