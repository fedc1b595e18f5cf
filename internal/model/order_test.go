package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidOrderStatus(t *testing.T) {
	for _, status := range []string{
		StatusOrderPlaced, StatusPacking, StatusShipped,
		StatusOutForDelivery, StatusDelivered, StatusCancelled,
	} {
		assert.True(t, IsValidOrderStatus(status), status)
	}

	assert.False(t, IsValidOrderStatus("Teleported"))
	assert.False(t, IsValidOrderStatus(""))
	assert.False(t, IsValidOrderStatus("delivered"))
}

func TestIsValidPaymentMethod(t *testing.T) {
	assert.True(t, IsValidPaymentMethod(PaymentMethodCOD))
	assert.True(t, IsValidPaymentMethod(PaymentMethodPayHere))
	assert.False(t, IsValidPaymentMethod("stripe"))
	assert.False(t, IsValidPaymentMethod(""))
}
