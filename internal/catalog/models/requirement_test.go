package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFieldKind(t *testing.T) {
	for _, raw := range []string{"text", "number", "date", "email", "phone", "select", "checkbox", "radio", "address_block"} {
		k, err := ParseFieldKind(raw)
		assert.NoError(t, err, raw)
		assert.Equal(t, FieldKind(raw), k)
	}

	_, err := ParseFieldKind("dropdown")
	assert.Error(t, err)
}

func TestAddressBlockFilled(t *testing.T) {
	cases := []struct {
		name   string
		value  AddressBlockValue
		filled bool
	}{
		{"empty block", AddressBlockValue{}, false},
		{"city alone satisfies", AddressBlockValue{City: "Springfield"}, true},
		{"street1 alone satisfies", AddressBlockValue{Street1: "12 Main St"}, true},
		{"state alone satisfies", AddressBlockValue{State: "IL"}, true},
		{"postal code alone satisfies", AddressBlockValue{PostalCode: "62704"}, true},
		{"street2 never counts", AddressBlockValue{Street2: "Apt 4"}, false},
		{"county never counts", AddressBlockValue{County: "Sangamon"}, false},
		{"whitespace is blank", AddressBlockValue{City: "   "}, false},
		{"street2 plus county still unfilled", AddressBlockValue{Street2: "Apt 4", County: "Sangamon"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.filled, tc.value.Filled())
		})
	}
}
