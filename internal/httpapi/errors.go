package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authapp "github.com/dwikikusuma/shoping-live/internal/auth/app"
	cartapp "github.com/dwikikusuma/shoping-live/internal/cart/app"
	catalogapp "github.com/dwikikusuma/shoping-live/internal/catalog/app"
)

var errBadBody = errors.New("malformed request body")

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpStatus maps a service error to a status, a stable code and a message
// that is safe to show to the client.
func httpStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, cartapp.ErrUnauthenticated), errors.Is(err, authapp.ErrUnauthenticated):
		return http.StatusUnauthorized, cartapp.CodeUnauthenticated, "authentication required"
	case errors.Is(err, authapp.ErrInvalidCredentials):
		return http.StatusBadRequest, "INVALID_CREDENTIALS", err.Error()
	case errors.Is(err, authapp.ErrEmailTaken):
		return http.StatusConflict, "ALREADY_EXISTS", err.Error()
	case errors.Is(err, cartapp.ErrNotFound), errors.Is(err, catalogapp.ErrNotFound), errors.Is(err, authapp.ErrNotFound):
		return http.StatusNotFound, cartapp.CodeNotFound, err.Error()
	case errors.Is(err, cartapp.ErrInvalidQuantity):
		return http.StatusBadRequest, cartapp.CodeInvalidQuantity, err.Error()
	case errors.Is(err, cartapp.ErrOutOfStock):
		return http.StatusConflict, cartapp.CodeOutOfStock, err.Error()
	case errors.Is(err, authapp.ErrInvalidInput), errors.Is(err, catalogapp.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, "BAD_REQUEST", err.Error()
	default:
		return http.StatusInternalServerError, cartapp.CodeServerError, "internal error"
	}
}

func (h *handler) fail(c *gin.Context, err error) {
	status, code, msg := httpStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: msg}})
}
