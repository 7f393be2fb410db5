package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRounding(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 2.67, Round2(2.666))
	assert.Equal(t, 99.99, Floor2(99.999))
	assert.Equal(t, 100.01, Ceil2(100.001))
	assert.Equal(t, "1.50", Fixed2(1.5))
	assert.Equal(t, "0.00", Fixed2(0))
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, int64(0), Quantity(1000, 2000))
	assert.Equal(t, int64(4), Quantity(10000, 2400))
	assert.Equal(t, int64(0), Quantity(1000, 0))
}

func TestBpsOf(t *testing.T) {
	// 18 bps of 100000 is 180.
	assert.Equal(t, 180.0, BpsOf(100000, 18))
	assert.Equal(t, 0.0, BpsOf(0, 18))
}

func TestPct(t *testing.T) {
	assert.Equal(t, 12.5, Pct(1, 8))
	assert.Equal(t, 0.0, Pct(1, 0))
}
