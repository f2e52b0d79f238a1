package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authapp "github.com/dwikikusuma/shoping-live/internal/auth/app"
	"github.com/dwikikusuma/shoping-live/internal/realtime"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errBadBody)
		return
	}

	sess, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setTokenCookie(c, sess.Token, sess.Expires)
	c.JSON(http.StatusCreated, gin.H{"token": sess.Token, "user": sess.User})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errBadBody)
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setTokenCookie(c, sess.Token, sess.Expires)
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": sess.User})
}

func (h *handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// session never fails for anonymous callers; it reports user null instead.
func (h *handler) session(c *gin.Context) {
	token := realtime.TokenFromRequest(c.Request, h.cookie.Name)
	profile, err := h.auth.CurrentUser(c.Request.Context(), token)
	if errors.Is(err, authapp.ErrUnauthenticated) {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *handler) setTokenCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}
