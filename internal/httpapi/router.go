// Package httpapi is the browser-facing HTTP surface: auth, catalog and cart
// endpoints plus the realtime upgrade.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authapp "github.com/dwikikusuma/shoping-live/internal/auth/app"
	catalogapp "github.com/dwikikusuma/shoping-live/internal/catalog/app"
	"github.com/dwikikusuma/shoping-live/internal/realtime"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Deps struct {
	Auth     *authapp.Service
	Catalog  *catalogapp.Service
	Carts    realtime.CartService
	Realtime http.Handler
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready          func(ctx context.Context) error
	Cookie         CookieConfig
	AllowedOrigins []string
	Log            *slog.Logger
}

type handler struct {
	auth    *authapp.Service
	catalog *catalogapp.Service
	carts   realtime.CartService
	ready   func(ctx context.Context) error
	cookie  CookieConfig
	log     *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Cookie.Name == "" {
		d.Cookie.Name = "token"
	}
	h := &handler{
		auth:    d.Auth,
		catalog: d.Catalog,
		carts:   d.Carts,
		ready:   d.Ready,
		cookie:  d.Cookie,
		log:     d.Log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log), corsMiddleware(d.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/readyz", h.readyz)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/session", h.session)
	}

	api := r.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)
		api.POST("/products", h.createProduct)

		cart := api.Group("/cart", h.requireUser)
		cart.GET("", h.getCart)
		cart.POST("/add", h.addToCart)
		cart.POST("/update", h.updateCart)
		cart.POST("/remove", h.removeFromCart)
	}

	if d.Realtime != nil {
		r.GET("/ws", gin.WrapH(d.Realtime))
	}
	return r
}

func (h *handler) readyz(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(c.Request.Context()); err != nil {
			h.log.Warn("not ready", slog.Any("err", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
