package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cartgrpc "github.com/dwikikusuma/shoping-live/internal/cart/grpc"
	"github.com/dwikikusuma/shoping-live/internal/httpapi"
	"github.com/dwikikusuma/shoping-live/internal/realtime"
	"github.com/dwikikusuma/shoping-live/pkg/shutdown"
)

const shutdownTimeout = 10 * time.Second

type ServeOptions struct {
	*RootOptions
	Seed bool
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and gRPC servers",
		Long: `Run the HTTP API (with the /ws realtime endpoint) and the gRPC cart
service until interrupted.

Example:
  shop serve
  DB_DRIVER=sqlite shop serve --seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "insert the demo catalog before serving")
	return cmd
}

func serve(parent context.Context, opts *ServeOptions) error {
	cfg, log := opts.Config, opts.Log

	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.Seed {
		products, err := app.Catalog.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("catalog seeded", slog.Int("products", len(products)))
	}

	ws := realtime.NewServer(app.Hub,
		realtime.NewDispatcher(app.Auth, app.Carts, app.Hub, log),
		realtime.Options{
			CookieName:     cfg.CookieName,
			AllowedOrigins: cfg.WSAllowedOrigins,
			Rate:           cfg.WSRate,
			Burst:          cfg.WSBurst,
		}, log)

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr: httpAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Auth:           app.Auth,
			Catalog:        app.Catalog,
			Carts:          app.Carts,
			Realtime:       ws,
			Ready:          app.Ready,
			Cookie:         httpapi.CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure},
			AllowedOrigins: cfg.WSAllowedOrigins,
			Log:            log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}
	grpcServer := cartgrpc.NewGRPCServer(cartgrpc.NewServer(app.Carts, app.Hub, log), app.Auth)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("grpc starting", slog.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()

		if err := httpServer.Shutdown(stopCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopCtx.Done():
			log.Warn("graceful stop timeout, forcing stop")
			grpcServer.Stop()
		case <-stopped:
		}
		return nil
	})

	err = g.Wait()
	log.Info("bye")
	return err
}
