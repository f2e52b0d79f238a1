package httpapi

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	cartapp "github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/dwikikusuma/shoping-live/internal/realtime"
)

const userIDKey = "user_id"

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("client_ip", c.ClientIP()))
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// requireUser resolves the caller from the token cookie or bearer header.
func (h *handler) requireUser(c *gin.Context) {
	token := realtime.TokenFromRequest(c.Request, h.cookie.Name)
	userID, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.fail(c, cartapp.ErrUnauthenticated)
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}
