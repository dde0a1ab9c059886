package cart

import (
	"testing"

	"tripcart/models"

	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	hotel := models.CartItem{
		Unit:              models.UnitKey{ProductID: "h1", ProductType: models.ProductHotel, RoomID: "r1"},
		Quantity:          1,
		UnitPriceSnapshot: 220,
	}
	assert.Equal(t, 220.0, LineTotal(hotel))

	car := models.CartItem{
		Unit:              models.UnitKey{ProductID: "c1", ProductType: models.ProductCar, CarTypeID: "suv", CarColorID: "red"},
		Quantity:          1,
		UnitPriceSnapshot: 89.5,
	}
	assert.Equal(t, 89.5, LineTotal(car))

	// Event tickets multiply by the ticket count.
	event := models.CartItem{
		Unit:              models.UnitKey{ProductID: "e1", ProductType: models.ProductEvent, EventTypeID: "vip"},
		Quantity:          4,
		UnitPriceSnapshot: 75,
	}
	assert.Equal(t, 300.0, LineTotal(event))
}

func TestLineTotal_Deterministic(t *testing.T) {
	item := models.CartItem{
		Unit:              models.UnitKey{ProductID: "e1", ProductType: models.ProductEvent, EventTypeID: "ga"},
		Quantity:          3,
		UnitPriceSnapshot: 19.99,
	}
	first := LineTotal(item)
	assert.Equal(t, first, LineTotal(item))
}

func TestCartTotal(t *testing.T) {
	items := []models.CartItem{
		{Unit: models.UnitKey{ProductType: models.ProductHotel}, Quantity: 1, UnitPriceSnapshot: 100},
		{Unit: models.UnitKey{ProductType: models.ProductEvent}, Quantity: 2, UnitPriceSnapshot: 25},
	}
	assert.Equal(t, 150.0, CartTotal(items))
	assert.Equal(t, 0.0, CartTotal(nil))
}
