package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterRefills(t *testing.T) {
	l := New()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("scan", 2, 1))
	assert.True(t, l.Allow("scan", 2, 1))
	assert.False(t, l.Allow("scan", 2, 1), "bucket drained")
	assert.True(t, l.Allow("other", 2, 1), "keys are independent")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("scan", 2, 1))
	assert.False(t, l.Allow("scan", 2, 1))
}

func TestLimiterSweep(t *testing.T) {
	l := New()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a", 1, 1)
	now = now.Add(time.Hour)
	l.Allow("b", 1, 1)

	assert.Equal(t, 1, l.Sweep(10*time.Minute))
	assert.Len(t, l.m, 1)
}
