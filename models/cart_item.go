package models

import "time"

// HoldStatus is the lifecycle state of a cart item.
type HoldStatus string

const (
	HoldHeld      HoldStatus = "held"
	HoldExpired   HoldStatus = "expired"
	HoldConfirmed HoldStatus = "confirmed"
)

// CartItem is one hold: a session's time-bounded claim on an inventory unit.
// Price is snapshotted at add time and never re-quoted while the hold lives.
type CartItem struct {
	ID                string     `json:"id" bson:"_id"`
	SessionID         string     `json:"sessionId" bson:"sessionId"`
	Unit              UnitKey    `json:"unit" bson:"unit"`
	Quantity          int        `json:"quantity" bson:"quantity"`
	UnitPriceSnapshot float64    `json:"unitPriceSnapshot" bson:"unitPriceSnapshot"`
	Status            HoldStatus `json:"status" bson:"status"`
	CreatedAt         time.Time  `json:"createdAt" bson:"createdAt"`
	ExpiresAt         time.Time  `json:"expiresAt" bson:"expiresAt"`
}

// ActiveAt reports whether the item is a live hold at the given instant.
// A Held item past its expiry is logically expired even before the reaper
// has swept it.
func (i CartItem) ActiveAt(now time.Time) bool {
	return i.Status == HoldHeld && now.Before(i.ExpiresAt)
}

// Blocking reports whether the item still claims its unit at the given
// instant: a live hold, or a confirmed item whose payment outcome is pending.
// Confirmed items block until the payment callback deletes or reverts them.
func (i CartItem) Blocking(now time.Time) bool {
	return i.ActiveAt(now) || i.Status == HoldConfirmed
}

// CartLine is a CartItem as returned to the client, annotated with the
// remaining TTL and the display total derived from the price snapshot.
type CartLine struct {
	CartItem
	RemainingTTLSec int     `json:"remainingTtlSec"`
	LineTotal       float64 `json:"lineTotal"`
}

// ExpiryEntry mirrors a Held item in the expiry index.
type ExpiryEntry struct {
	SessionID string
	Unit      UnitKey
	ExpiresAt time.Time
}

// ConfirmedItem is the view of a confirmed hold handed to the payment flow.
type ConfirmedItem struct {
	SessionID string  `json:"sessionId"`
	Unit      UnitKey `json:"unit"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}
