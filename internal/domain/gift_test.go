package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int {
	return &v
}

func TestGift_Available(t *testing.T) {
	tests := []struct {
		name string
		gift Gift
		want int
	}{
		{"uncapped", Gift{TotalStock: nil, Reserved: 100}, -1},
		{"capped with stock left", Gift{TotalStock: intPtr(10), Reserved: 3}, 7},
		{"capped exhausted", Gift{TotalStock: intPtr(5), Reserved: 5}, 0},
		{"capped over-reserved clamps to zero", Gift{TotalStock: intPtr(5), Reserved: 7}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gift.Available())
		})
	}
}

func TestGift_MaxQuantity(t *testing.T) {
	assert.Equal(t, DefaultMaxPerOrder, (&Gift{}).MaxQuantity())
	assert.Equal(t, 3, (&Gift{MaxPerOrder: 3}).MaxQuantity())
	assert.Equal(t, AbsoluteMaxPerOrder, (&Gift{MaxPerOrder: 99}).MaxQuantity())
}

func TestGift_ClampQuantity(t *testing.T) {
	g := &Gift{MaxPerOrder: 5}

	assert.Equal(t, 1, g.ClampQuantity(0))
	assert.Equal(t, 1, g.ClampQuantity(-3))
	assert.Equal(t, 3, g.ClampQuantity(3))
	assert.Equal(t, 5, g.ClampQuantity(11))
}

func TestRegistryConfig_Enabled(t *testing.T) {
	assert.False(t, (&RegistryConfig{}).Enabled())
	assert.False(t, (*RegistryConfig)(nil).Enabled())
	assert.True(t, (&RegistryConfig{PixKey: "host@bank.com"}).Enabled())
}
