package domain

import "time"

type EventType string

const (
	EventReserved EventType = "reserved"
	EventAdjusted EventType = "adjusted"
	EventReleased EventType = "released"
)

// ReservationEvent describes one committed stock movement between the
// inventory and a cart. Delta is the change of the cart line; the inventory
// moved by -Delta.
type ReservationEvent struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Delta     int32     `json:"delta"`
	Quantity  int32     `json:"quantity"`
	At        time.Time `json:"at"`
}
