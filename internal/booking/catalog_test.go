package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogFixtures(t *testing.T) {
	require.Len(t, Panels, 3)
	require.Len(t, PartnerLabs, 2)
	require.Len(t, TimeSlots, 7)

	tests := []struct {
		id    string
		price int
	}{
		{"essential", 199},
		{"comprehensive", 320},
		{"premium", 420},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, ok := PanelByID(tt.id)
			require.True(t, ok, "expected panel %q", tt.id)
			assert.Equal(t, tt.price, p.Price)
		})
	}

	_, ok := PanelByID("deluxe")
	assert.False(t, ok)
}

func TestValidSlot(t *testing.T) {
	for _, slot := range TimeSlots {
		assert.True(t, ValidSlot(slot), "expected %q to be valid", slot)
	}
	assert.False(t, ValidSlot("12:00 - 13:00"))
	assert.False(t, ValidSlot(""))
}
