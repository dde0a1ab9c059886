package models

// Unit is the registry's view of one reservable inventory unit.
type Unit struct {
	Key          UnitKey `json:"key"`
	BasePrice    float64 `json:"basePrice"`
	AvailableQty int     `json:"availableQty"`
}

// Catalog documents. The catalog service owns writes to these collections;
// the engine only reads them to validate units and snapshot prices.

type HotelRoom struct {
	RoomID    string  `bson:"roomId"`
	Price     float64 `bson:"price"`
	Available bool    `bson:"available"`
}

type Hotel struct {
	ID    string      `bson:"_id"`
	Name  string      `bson:"name"`
	Rooms []HotelRoom `bson:"rooms"`
}

type CarColorSlot struct {
	ColorID   string `bson:"colorId"`
	Available bool   `bson:"available"`
}

type CarType struct {
	TypeID string         `bson:"typeId"`
	Price  float64        `bson:"price"`
	Colors []CarColorSlot `bson:"colors"`
}

type Car struct {
	ID    string    `bson:"_id"`
	Name  string    `bson:"name"`
	Types []CarType `bson:"types"`
}

type TicketTier struct {
	TierID    string  `bson:"tierId"`
	Price     float64 `bson:"price"`
	Remaining int     `bson:"remaining"`
}

type Event struct {
	ID    string       `bson:"_id"`
	Name  string       `bson:"name"`
	Tiers []TicketTier `bson:"tiers"`
}
