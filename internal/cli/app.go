package cli

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	authapp "github.com/dwikikusuma/shoping-live/internal/auth/app"
	authgorm "github.com/dwikikusuma/shoping-live/internal/auth/infra/gormstore"
	authmem "github.com/dwikikusuma/shoping-live/internal/auth/infra/memory"
	"github.com/dwikikusuma/shoping-live/internal/auth/token"
	cartapp "github.com/dwikikusuma/shoping-live/internal/cart/app"
	cartgorm "github.com/dwikikusuma/shoping-live/internal/cart/infra/gormstore"
	cartmem "github.com/dwikikusuma/shoping-live/internal/cart/infra/memory"
	"github.com/dwikikusuma/shoping-live/internal/cart/infra/rabbitmq"
	catalogapp "github.com/dwikikusuma/shoping-live/internal/catalog/app"
	cataloggorm "github.com/dwikikusuma/shoping-live/internal/catalog/infra/gormstore"
	catalogmem "github.com/dwikikusuma/shoping-live/internal/catalog/infra/memory"
	"github.com/dwikikusuma/shoping-live/internal/realtime"
	"github.com/dwikikusuma/shoping-live/pkg/config"
	"github.com/dwikikusuma/shoping-live/pkg/database"
)

// App is the assembled object graph shared by every subcommand.
type App struct {
	Config  config.Config
	Log     *slog.Logger
	DB      *gorm.DB // nil for the memory driver
	Catalog *catalogapp.Service
	Auth    *authapp.Service
	Carts   *cartapp.Service
	Hub     *realtime.Hub

	publisher *rabbitmq.Publisher
}

func openDB(cfg config.Config, log *slog.Logger) (*gorm.DB, error) {
	db, err := database.Open(database.Config{
		Driver: cfg.DBDriver,
		URL:    cfg.DatabaseURL,
		Path:   cfg.SQLitePath,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

func NewApp(cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Hub: realtime.NewHub(log)}

	var (
		products catalogapp.ProductRepo
		users    authapp.UserRepo
		store    cartapp.Store
	)
	switch cfg.DBDriver {
	case config.DriverMemory:
		repo := catalogmem.NewProductRepo()
		products, users, store = repo, authmem.NewUserRepo(), cartmem.NewStore(repo)
	default:
		db, err := openDB(cfg, log)
		if err != nil {
			return nil, err
		}
		a.DB = db
		products, users, store = cataloggorm.NewProductRepo(db), authgorm.NewUserRepo(db), cartgorm.NewStore(db)
	}

	var publisher cartapp.EventPublisher
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = p
		publisher = p
		log.Info("publishing reservation events", slog.String("exchange", cfg.RabbitMQExchange))
	}

	a.Catalog = catalogapp.NewService(products, cfg.Currency)
	a.Auth = authapp.NewService(users, token.NewSigner(cfg.JWTSecret, cfg.JWTTTL), 0)
	a.Carts = cartapp.NewService(store, a.Hub, publisher, log)
	return a, nil
}

// Ready pings the database when there is one.
func (a *App) Ready(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Log.Warn("close publisher", slog.Any("err", err))
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			a.Log.Warn("close database", slog.Any("err", err))
		}
	}
}

func requireSQL(cfg config.Config) error {
	if cfg.DBDriver == config.DriverMemory {
		return fmt.Errorf("db_driver %q keeps nothing between runs; use sqlite or postgres", cfg.DBDriver)
	}
	return nil
}
