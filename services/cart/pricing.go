// File: services/cart/pricing.go
package cart

import "tripcart/models"

// Pricing is a pure derivation from the item's price snapshot. It never
// consults live catalog prices: the quote a shopper saw at add time stays
// stable for the lifetime of the hold.

// LineTotal computes the display total for one cart item. Event tickets are
// priced per ticket; a hotel room or car slot is a single priced unit.
func LineTotal(item models.CartItem) float64 {
	if item.Unit.ProductType == models.ProductEvent {
		return item.UnitPriceSnapshot * float64(item.Quantity)
	}
	return item.UnitPriceSnapshot
}

// CartTotal sums the line totals of all items.
func CartTotal(items []models.CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += LineTotal(item)
	}
	return total
}
