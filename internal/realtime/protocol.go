package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
)

// Client events.
const (
	EventJoin           = "join"
	EventJoinRoom       = "joinRoom"
	EventCartAdd        = "cart:add"
	EventCartUpdateQty  = "cart:updateQty"
	EventCartSetQty     = "cart:setQuantity"
	EventCartRemoveItem = "cart:removeItem"
	EventCartGet        = "cart:get"
)

// Server events.
const (
	EventCartUpdated = "cartUpdated"
	EventAck         = "ack"
	EventError       = "error"
)

const CodeRateLimited = "RATE_LIMITED"
const CodeBadRequest = "BAD_REQUEST"

// Envelope is the frame exchanged in both directions. Requests that carry an
// ID are answered with an ack bearing the same ID.
type Envelope struct {
	Event string          `json:"event"`
	ID    *int64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Ack struct {
	OK    bool                 `json:"ok"`
	Cart  *domain.ResolvedCart `json:"cart,omitempty"`
	Error *ErrorBody           `json:"error,omitempty"`
}

type joinRequest struct {
	UserID string `json:"userId"`
}

type itemRequest struct {
	ProductID string          `json:"productId"`
	Qty       json.RawMessage `json:"qty"`
}

func errorBody(err error) *ErrorBody {
	return &ErrorBody{Code: app.ErrorCode(err), Message: app.PublicMessage(err)}
}

func encode(event string, id *int64, data any) ([]byte, error) {
	env := Envelope{Event: event, ID: id}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// ParseQty accepts a JSON integer or a string holding one. A missing value
// yields def; when def is negative the value is required.
func ParseQty(raw json.RawMessage, def int32) (int32, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if def < 0 {
			return 0, fmt.Errorf("%w: qty is required", app.ErrInvalidQuantity)
		}
		return def, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("%w: %v", app.ErrInvalidQuantity, err)
		}
	} else {
		text = string(raw)
	}

	text = strings.TrimSpace(text)
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// 3.0 is still a whole number
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: %q is not a whole number", app.ErrInvalidQuantity, text)
		}
		if f < 0 || f > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %s out of range", app.ErrInvalidQuantity, text)
		}
		n = int64(f)
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d out of range", app.ErrInvalidQuantity, n)
	}
	return int32(n), nil
}
