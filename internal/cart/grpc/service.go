package grpc

import (
	"context"

	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	"google.golang.org/grpc"
)

const serviceName = "cart.v1.CartService"

type GetCartRequest struct{}

type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

type RemoveItemRequest struct {
	ProductID string `json:"productId"`
}

type WatchCartRequest struct{}

type CartServiceServer interface {
	GetCart(context.Context, *GetCartRequest) (*domain.ResolvedCart, error)
	AddItem(context.Context, *ItemRequest) (*domain.ResolvedCart, error)
	SetItemQuantity(context.Context, *ItemRequest) (*domain.ResolvedCart, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*domain.ResolvedCart, error)
	WatchCart(*WatchCartRequest, WatchCartServer) error
}

type WatchCartServer interface {
	Send(*domain.ResolvedCart) error
	grpc.ServerStream
}

// ServiceDesc describes cart.v1.CartService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetCart", CartServiceServer.GetCart),
		unary("AddItem", CartServiceServer.AddItem),
		unary("SetItemQuantity", CartServiceServer.SetItemQuantity),
		unary("RemoveItem", CartServiceServer.RemoveItem),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchCart",
			Handler:       watchCartHandler,
			ServerStreams: true,
		},
	},
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req any](name string, call func(CartServiceServer, context.Context, *Req) (*domain.ResolvedCart, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CartServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CartServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchCartHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchCartRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CartServiceServer).WatchCart(in, &watchCartServer{stream})
}

type watchCartServer struct {
	grpc.ServerStream
}

func (s *watchCartServer) Send(cart *domain.ResolvedCart) error {
	return s.ServerStream.SendMsg(cart)
}

// Client is a CartService client that always uses the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*domain.ResolvedCart, error) {
	out := new(domain.ResolvedCart)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCart(ctx context.Context, opts ...grpc.CallOption) (*domain.ResolvedCart, error) {
	return c.invoke(ctx, "GetCart", &GetCartRequest{}, opts)
}

func (c *Client) AddItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*domain.ResolvedCart, error) {
	return c.invoke(ctx, "AddItem", in, opts)
}

func (c *Client) SetItemQuantity(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*domain.ResolvedCart, error) {
	return c.invoke(ctx, "SetItemQuantity", in, opts)
}

func (c *Client) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*domain.ResolvedCart, error) {
	return c.invoke(ctx, "RemoveItem", in, opts)
}

// WatchCartClient receives the caller's cart each time it changes.
type WatchCartClient struct {
	grpc.ClientStream
}

func (w *WatchCartClient) Recv() (*domain.ResolvedCart, error) {
	out := new(domain.ResolvedCart)
	if err := w.ClientStream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WatchCart(ctx context.Context, opts ...grpc.CallOption) (*WatchCartClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+serviceName+"/WatchCart", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&WatchCartRequest{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &WatchCartClient{stream}, nil
}
