package models

import (
	"fmt"
	"strings"
)

// ProductType is the closed set of reservable product categories.
type ProductType string

const (
	ProductHotel ProductType = "hotel"
	ProductCar   ProductType = "car"
	ProductEvent ProductType = "event"
)

// Valid reports whether t is one of the three known product types.
func (t ProductType) Valid() bool {
	switch t {
	case ProductHotel, ProductCar, ProductEvent:
		return true
	}
	return false
}

// Binary reports whether units of this type are held exclusively (one hold at a
// time) rather than as a quantity decrement against remaining stock.
func (t ProductType) Binary() bool {
	return t != ProductEvent
}

// UnitKey identifies a single reservable inventory unit: a hotel room, a car
// color slot, or an event ticket tier.
type UnitKey struct {
	ProductID   string      `json:"productId" bson:"productId"`
	ProductType ProductType `json:"productType" bson:"productType"`
	RoomID      string      `json:"roomId,omitempty" bson:"roomId,omitempty"`
	CarTypeID   string      `json:"carTypeId,omitempty" bson:"carTypeId,omitempty"`
	CarColorID  string      `json:"carColorId,omitempty" bson:"carColorId,omitempty"`
	EventTypeID string      `json:"eventTypeId,omitempty" bson:"eventTypeId,omitempty"`
}

// keyReservedChars are the separators of the canonical key form and of
// expiry-index members. Ids carrying them would make distinct keys collide.
const keyReservedChars = ":|"

// Validate checks the key names an existing product type, carries the
// sub-identifier that type requires, and that no id contains a reserved
// separator character.
func (k UnitKey) Validate() error {
	if k.ProductID == "" {
		return fmt.Errorf("productId is required")
	}
	if !k.ProductType.Valid() {
		return fmt.Errorf("unknown product type %q", k.ProductType)
	}
	ids := []string{k.ProductID}
	switch k.ProductType {
	case ProductHotel:
		if k.RoomID == "" {
			return fmt.Errorf("roomId is required for hotel units")
		}
		ids = append(ids, k.RoomID)
	case ProductCar:
		if k.CarTypeID == "" || k.CarColorID == "" {
			return fmt.Errorf("carTypeId and carColorId are required for car units")
		}
		ids = append(ids, k.CarTypeID, k.CarColorID)
	case ProductEvent:
		if k.EventTypeID == "" {
			return fmt.Errorf("eventTypeId is required for event units")
		}
		ids = append(ids, k.EventTypeID)
	}
	for _, id := range ids {
		if strings.ContainsAny(id, keyReservedChars) {
			return fmt.Errorf("identifier %q contains a reserved character", id)
		}
	}
	return nil
}

// String renders the key in its canonical colon-separated form, used for lock
// keys and the expiry index.
func (k UnitKey) String() string {
	switch k.ProductType {
	case ProductCar:
		return strings.Join([]string{string(k.ProductType), k.ProductID, k.CarTypeID, k.CarColorID}, ":")
	case ProductEvent:
		return strings.Join([]string{string(k.ProductType), k.ProductID, k.EventTypeID}, ":")
	default:
		return strings.Join([]string{string(k.ProductType), k.ProductID, k.RoomID}, ":")
	}
}

// ParseUnitKey is the inverse of UnitKey.String.
func ParseUnitKey(s string) (UnitKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return UnitKey{}, fmt.Errorf("malformed unit key %q", s)
	}
	key := UnitKey{ProductType: ProductType(parts[0]), ProductID: parts[1]}
	switch key.ProductType {
	case ProductHotel:
		key.RoomID = parts[2]
	case ProductCar:
		if len(parts) != 4 {
			return UnitKey{}, fmt.Errorf("malformed car unit key %q", s)
		}
		key.CarTypeID = parts[2]
		key.CarColorID = parts[3]
	case ProductEvent:
		key.EventTypeID = parts[2]
	default:
		return UnitKey{}, fmt.Errorf("unknown product type in unit key %q", s)
	}
	return key, nil
}
