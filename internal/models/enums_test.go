package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("A_CAMINHO")
	require.NoError(t, err)
	assert.Equal(t, OrderOnTheWay, st)

	_, err = ParseOrderStatus("a_caminho")
	assert.ErrorIs(t, err, ErrUnknownEnum)
}

func TestEnumJSONRejectsUnknown(t *testing.T) {
	var body struct {
		Status OrderStatus   `json:"status"`
		Method PaymentMethod `json:"method"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ENTREGUE","method":"PIX"}`), &body))
	assert.Equal(t, OrderDelivered, body.Status)
	assert.Equal(t, PaymentPix, body.Method)

	err := json.Unmarshal([]byte(`{"status":"SHIPPED"}`), &body)
	assert.ErrorIs(t, err, ErrUnknownEnum)
}

func TestEnumScan(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan([]byte("company_admin")))
	assert.Equal(t, RoleCompanyAdmin, r)

	assert.ErrorIs(t, r.Scan(nil), ErrUnknownEnum)
	assert.Error(t, r.Scan(42))
}

func TestTerminal(t *testing.T) {
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderAtDoor.Terminal())
}

func TestAddress(t *testing.T) {
	a := Address{
		Street:       "Av. Paulista",
		Number:       "1000",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
		ZipCode:      "01310100",
	}
	assert.True(t, a.Complete())
	assert.Equal(t, "Av. Paulista 1000, Bela Vista, São Paulo, SP, 01310100", a.String())

	a.Number = " "
	assert.False(t, a.Complete())
}

func TestProductAvailable(t *testing.T) {
	assert.True(t, Product{Active: true, Stock: 1}.Available())
	assert.False(t, Product{Active: true, Stock: 0}.Available())
	assert.False(t, Product{Active: false, Stock: 5}.Available())
}
