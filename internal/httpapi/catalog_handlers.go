package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/dwikikusuma/shoping-live/internal/catalog/app"
)

func (h *handler) listProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	products, next, err := h.catalog.ListProducts(c.Request.Context(), c.Query("q"), limit, c.Query("cursor"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "nextCursor": next})
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) createProduct(c *gin.Context) {
	var req catalogapp.NewProduct
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errBadBody)
		return
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
