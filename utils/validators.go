package utils

import (
	"errors"
	"fmt"

	"github.com/HSouheill/sm_online_shop/models"
)

// ProductQuantityValidator checks that quantity units of product can be bought
func ProductQuantityValidator(product *models.Product, quantity int) error {
	if product == nil {
		return errors.New("Product not found")
	}
	if quantity < 1 {
		return errors.New("Quantity must be at least 1")
	}
	if quantity > product.Quantity {
		return fmt.Errorf("Only %d items of %s are in stock", product.Quantity, product.Title)
	}
	return nil
}

// CartTotalValidator checks that the balance covers productTotal.
// cartTotal is the value of what is already in the cart and only feeds the message.
func CartTotalValidator(cartTotal, productTotal, balance float64) error {
	if productTotal > balance {
		return fmt.Errorf("Your balance of %.2f is not enough for %.2f worth of products (cart total %.2f)",
			balance, productTotal, cartTotal)
	}
	return nil
}
