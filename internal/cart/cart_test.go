package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name, price string) models.Product {
	return models.Product{
		ID:     uuid.New(),
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  10,
		Active: true,
	}
}

func fullAddress() models.Address {
	return models.Address{
		Street:       "Rua A",
		Number:       "10",
		Neighborhood: "Centro",
		City:         "São Paulo",
		State:        "SP",
		ZipCode:      "01001000",
	}
}

func TestTotal(t *testing.T) {
	c := New()
	burger := product("Burger", "10.00")
	soda := product("Soda", "5.50")

	c.Add(burger)
	c.Add(burger)
	c.Add(soda)

	assert.True(t, decimal.RequireFromString("25.50").Equal(c.Total()), "got %s", c.Total())
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "Burger", lines[0].Name)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddThenRemoveRestoresCart(t *testing.T) {
	c := New()
	burger := product("Burger", "10.00")
	c.Add(burger)
	before := c.Total()

	soda := product("Soda", "5.50")
	c.Add(soda)
	c.Remove(soda.ID)

	assert.True(t, before.Equal(c.Total()))
	assert.Equal(t, 1, c.Len())
}

func TestDecrementDropsEmptyLine(t *testing.T) {
	c := New()
	p := product("Fries", "7.25")
	c.Add(p)
	c.Add(p)

	c.Decrement(p.ID)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Lines()[0].Quantity)

	c.Decrement(p.ID)
	assert.Zero(t, c.Len())
	assert.True(t, c.Total().IsZero())

	c.Decrement(p.ID)
	assert.Zero(t, c.Len())
}

func TestCheckoutValidation(t *testing.T) {
	tenant := uuid.New()
	filled := New()
	filled.Add(product("Burger", "10.00"))

	tests := []struct {
		name    string
		cart    *Cart
		in      CheckoutInput
		wantErr error
	}{
		{"no tenant", filled, CheckoutInput{Address: fullAddress(), PaymentMethod: models.PaymentPix}, ErrNoTenant},
		{"empty cart", New(), CheckoutInput{TenantID: tenant, Address: fullAddress(), PaymentMethod: models.PaymentPix}, ErrEmptyCart},
		{"missing number", filled, CheckoutInput{TenantID: tenant, Address: models.Address{Street: "Rua A"}, PaymentMethod: models.PaymentPix}, ErrAddressIncomplete},
		{"no payment", filled, CheckoutInput{TenantID: tenant, Address: fullAddress()}, ErrNoPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cart.Checkout(tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckoutKeepsChangeOnlyForCash(t *testing.T) {
	c := New()
	c.Add(product("Burger", "10.00"))
	change := decimal.NewFromInt(50)

	d, err := c.Checkout(CheckoutInput{TenantID: uuid.New(), Address: fullAddress(), PaymentMethod: models.PaymentCash, ChangeFor: &change})
	require.NoError(t, err)
	require.NotNil(t, d.ChangeFor)
	assert.True(t, change.Equal(*d.ChangeFor))

	d, err = c.Checkout(CheckoutInput{TenantID: uuid.New(), Address: fullAddress(), PaymentMethod: models.PaymentCard, ChangeFor: &change})
	require.NoError(t, err)
	assert.Nil(t, d.ChangeFor)
	assert.True(t, decimal.NewFromInt(10).Equal(d.Total))
}
