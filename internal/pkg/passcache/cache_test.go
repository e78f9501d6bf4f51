package passcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPutAndGet(t *testing.T) {
	c := New()
	c.Put("jane", "Temp1234!", time.Hour)

	got, ok := c.Get("jane")
	assert.True(t, ok)
	assert.Equal(t, "Temp1234!", got)
}

func TestGetMissingKey(t *testing.T) {
	c := New()
	_, ok := c.Get("nobody")
	assert.False(t, ok)
}

func TestExpiredEntryIsInvisible(t *testing.T) {
	c := New()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("jane", "Temp1234!", time.Minute)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok := c.Get("jane")
	assert.False(t, ok)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	c := New()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("old", "a", time.Minute)
	c.Put("fresh", "b", time.Hour)

	c.now = func() time.Time { return base.Add(10 * time.Minute) }
	removed := c.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestPutOverwritesAndExtends(t *testing.T) {
	c := New()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("jane", "first", time.Minute)
	c.Put("jane", "second", time.Hour)

	c.now = func() time.Time { return base.Add(30 * time.Minute) }
	got, ok := c.Get("jane")
	assert.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestDelete(t *testing.T) {
	c := New()
	c.Put("jane", "x", time.Hour)
	c.Delete("jane")

	_, ok := c.Get("jane")
	assert.False(t, ok)
}
