package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	"github.com/dwikikusuma/shoping-live/internal/realtime"
)

type cartRequest struct {
	ProductID string          `json:"productId"`
	Qty       json.RawMessage `json:"qty"`
}

func (h *handler) getCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.GetString(userIDKey))
	h.respondCart(c, cart, err)
}

func (h *handler) addToCart(c *gin.Context) {
	req, ok := h.bindCart(c)
	if !ok {
		return
	}
	qty, err := realtime.ParseQty(req.Qty, 1)
	if err != nil {
		h.fail(c, err)
		return
	}
	cart, err := h.carts.Add(c.Request.Context(), c.GetString(userIDKey), req.ProductID, qty)
	h.respondCart(c, cart, err)
}

func (h *handler) updateCart(c *gin.Context) {
	req, ok := h.bindCart(c)
	if !ok {
		return
	}
	qty, err := realtime.ParseQty(req.Qty, -1)
	if err != nil {
		h.fail(c, err)
		return
	}
	cart, err := h.carts.SetQuantity(c.Request.Context(), c.GetString(userIDKey), req.ProductID, qty)
	h.respondCart(c, cart, err)
}

func (h *handler) removeFromCart(c *gin.Context) {
	req, ok := h.bindCart(c)
	if !ok {
		return
	}
	cart, err := h.carts.Remove(c.Request.Context(), c.GetString(userIDKey), req.ProductID)
	h.respondCart(c, cart, err)
}

func (h *handler) bindCart(c *gin.Context) (cartRequest, bool) {
	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errBadBody)
		return cartRequest{}, false
	}
	return req, true
}

func (h *handler) respondCart(c *gin.Context, cart domain.ResolvedCart, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}
