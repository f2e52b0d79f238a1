package grpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	"github.com/dwikikusuma/shoping-live/internal/realtime"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const watchBuffer = 16

type Server struct {
	svc realtime.CartService
	hub *realtime.Hub
	log *slog.Logger
}

func NewServer(svc realtime.CartService, hub *realtime.Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, hub: hub, log: log}
}

// NewGRPCServer builds a grpc.Server with the cart service and its
// interceptors registered.
func NewGRPCServer(srv *Server, auth Authenticator, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(UnaryLogging(srv.log), UnaryAuth(auth)),
		grpc.ChainStreamInterceptor(StreamAuth(auth)),
	)
	s := grpc.NewServer(opts...)
	RegisterCartServiceServer(s, srv)
	return s
}

func (s *Server) GetCart(ctx context.Context, _ *GetCartRequest) (*domain.ResolvedCart, error) {
	cart, err := s.svc.GetCart(ctx, userFrom(ctx))
	return reply(cart, err)
}

func (s *Server) AddItem(ctx context.Context, req *ItemRequest) (*domain.ResolvedCart, error) {
	cart, err := s.svc.Add(ctx, userFrom(ctx), req.ProductID, req.Quantity)
	return reply(cart, err)
}

func (s *Server) SetItemQuantity(ctx context.Context, req *ItemRequest) (*domain.ResolvedCart, error) {
	cart, err := s.svc.SetQuantity(ctx, userFrom(ctx), req.ProductID, req.Quantity)
	return reply(cart, err)
}

func (s *Server) RemoveItem(ctx context.Context, req *RemoveItemRequest) (*domain.ResolvedCart, error) {
	cart, err := s.svc.Remove(ctx, userFrom(ctx), req.ProductID)
	return reply(cart, err)
}

// WatchCart sends the current cart, then every update until the caller goes
// away or falls too far behind.
func (s *Server) WatchCart(_ *WatchCartRequest, stream WatchCartServer) error {
	ctx := stream.Context()
	userID := userFrom(ctx)

	w := &watcher{
		id:      "grpc-" + uuid.NewString(),
		updates: make(chan domain.ResolvedCart, watchBuffer),
		done:    make(chan struct{}),
	}
	s.hub.Join(w, userID)
	defer s.hub.Leave(w)

	cart, err := s.svc.GetCart(ctx, userID)
	if err != nil {
		return mapErr(err)
	}
	if err := stream.Send(&cart); err != nil {
		return err
	}
	sent := cart.Revision

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return status.Error(codes.ResourceExhausted, "watcher fell behind")
		case cart := <-w.updates:
			// updates queued before the snapshot was read
			if cart.Revision > 0 && cart.Revision <= sent {
				continue
			}
			if err := stream.Send(&cart); err != nil {
				return err
			}
			sent = cart.Revision
		}
	}
}

type watcher struct {
	id      string
	updates chan domain.ResolvedCart
	done    chan struct{}
	once    sync.Once
}

func (w *watcher) ID() string { return w.id }

func (w *watcher) Deliver(cart domain.ResolvedCart) bool {
	select {
	case w.updates <- cart:
		return true
	default:
		return false
	}
}

func (w *watcher) Close() {
	w.once.Do(func() { close(w.done) })
}

func reply(cart domain.ResolvedCart, err error) (*domain.ResolvedCart, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	return &cart, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, app.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, app.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrOutOfStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
