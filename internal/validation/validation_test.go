package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Type        string `json:"type" validate:"required,txtype"`
	PIN         string `json:"pin" validate:"omitempty,pin"`
	Receiver    string `json:"receiver_wallet_id" validate:"omitempty,uuid"`
	Description string `json:"description" validate:"max=10"`
}

func TestIsValidPin(t *testing.T) {
	for _, pin := range []string{"1234", "12345", "123456"} {
		assert.True(t, IsValidPin(pin), pin)
	}
	for _, pin := range []string{"", "123", "1234567", "12a4", "١٢٣٤"} {
		assert.False(t, IsValidPin(pin), pin)
	}
}

func TestStruct(t *testing.T) {
	v := Struct(sampleRequest{Type: "transfer", PIN: "1234"})
	assert.True(t, v.Valid())

	v = Struct(sampleRequest{Type: "refund", PIN: "12", Receiver: "x", Description: "far too long text"})
	assert.False(t, v.Valid())
	assert.Equal(t, "is not a known transaction type", v.Errors["type"])
	assert.Equal(t, "must be 4 to 6 digits", v.Errors["pin"])
	assert.Equal(t, "must be a valid id", v.Errors["receiver_wallet_id"])
	assert.Contains(t, v.Errors["description"], "10")
	assert.Contains(t, v.Error(), "pin: must be 4 to 6 digits")

	v = Struct(sampleRequest{})
	assert.Equal(t, "is required", v.Errors["type"])
}
