package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	authapp "github.com/dwikikusuma/shoping-live/internal/auth/app"
	cartapp "github.com/dwikikusuma/shoping-live/internal/cart/app"
	catalogapp "github.com/dwikikusuma/shoping-live/internal/catalog/app"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated -> 401", cartapp.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"wrapped product not found -> 404", fmt.Errorf("add: %w", cartapp.ErrProductNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"catalog not found -> 404", catalogapp.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"invalid quantity -> 400", cartapp.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"out of stock -> 409", cartapp.ErrOutOfStock, http.StatusConflict, "OUT_OF_STOCK"},
		{"email taken -> 409", authapp.ErrEmailTaken, http.StatusConflict, "ALREADY_EXISTS"},
		{"bad credentials -> 400", authapp.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{"invalid input -> 400", authapp.ErrInvalidInput, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown error -> 500", errors.New("boom"), http.StatusInternalServerError, "SERVER_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, gotCode, _ := httpStatus(tc.err)
			if gotStatus != tc.status || gotCode != tc.code {
				t.Fatalf("got (%d,%s)", gotStatus, gotCode)
			}
		})
	}

	t.Run("server errors hide details", func(t *testing.T) {
		_, _, msg := httpStatus(errors.New("pq: password authentication failed"))
		if msg != "internal error" {
			t.Fatalf("leaked %q", msg)
		}
	})
}
