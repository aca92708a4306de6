package zone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testStates() *States {
	return NewStates([]Zone{
		{ID: "desk", Channel: "main", FirstLed: 0, LastLed: 3},
		{ID: "shelf", Channel: "main", FirstLed: 4, LastLed: 9},
	})
}

func TestStatesLookup(t *testing.T) {
	st := testStates()

	assert.Equal(t, []string{"desk", "shelf"}, st.IDs())
	assert.Equal(t, 4, st.PixelCount("desk"))
	assert.Equal(t, 6, st.PixelCount("shelf"))
	assert.Equal(t, 0, st.PixelCount("nope"))
	assert.Nil(t, st.Get("nope"))
}

func TestStateReplace(t *testing.T) {
	st := testStates().Get("desk")
	now := time.Now()
	red := Led{Red: 255}

	st.Replace([]Led{red, red}, "test", now)
	pixels := st.Pixels()
	assert.Len(t, pixels, 4)
	assert.Equal(t, red, pixels[0])
	assert.Equal(t, red, pixels[1])
	// The tail beyond the input is blacked out, the length is invariant.
	assert.Equal(t, Led{}, pixels[2])
	assert.Equal(t, Led{}, pixels[3])
	assert.Equal(t, "test", st.LastSource)
	assert.Equal(t, now, st.UpdatedAt)
	assert.True(t, st.Dirty())

	// A longer input is truncated.
	long := []Led{red, red, red, red, red, red}
	st.Replace(long, "test", now)
	assert.Equal(t, 4, st.PixelCount())
}

func TestStateOverlay(t *testing.T) {
	st := testStates().Get("desk")
	now := time.Now()
	red := Led{Red: 255}
	blue := Led{Blue: 255}

	st.Replace([]Led{red, red, red, red}, "base", now)
	st.Overlay([]Led{blue, blue}, "overlay", now)

	pixels := st.Pixels()
	assert.Equal(t, blue, pixels[0])
	assert.Equal(t, blue, pixels[1])
	// Pixels beyond the overlay keep their previous content.
	assert.Equal(t, red, pixels[2])
	assert.Equal(t, red, pixels[3])
	assert.Equal(t, "overlay", st.LastSource)
}

func TestStateClear(t *testing.T) {
	st := testStates().Get("desk")
	now := time.Now()

	st.Replace([]Led{{Red: 255}}, "base", now)
	st.Clear("clear", now)

	for _, p := range st.Pixels() {
		assert.Equal(t, Led{}, p)
	}
	assert.Equal(t, "clear", st.LastSource)
}

func TestStateHash(t *testing.T) {
	a := testStates().Get("desk")
	b := testStates().Get("desk")
	now := time.Now()

	assert.Equal(t, a.Hash(), b.Hash(), "fresh states hash equal")

	a.Replace([]Led{{Red: 255}}, "x", now)
	assert.NotEqual(t, a.Hash(), b.Hash(), "content change must change the hash")

	b.Replace([]Led{{Red: 255}}, "y", now.Add(time.Second))
	assert.Equal(t, a.Hash(), b.Hash(), "hash covers content, not source or time")

	// Brightness is part of the rendered output, so it is hashed too.
	b.SetBrightness(0.5)
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestStateSetBrightnessClamps(t *testing.T) {
	st := testStates().Get("desk")

	st.SetBrightness(1.5)
	assert.Equal(t, 1.0, st.Brightness)
	st.SetBrightness(-0.2)
	assert.Equal(t, 0.0, st.Brightness)
	st.SetBrightness(0.4)
	assert.Equal(t, 0.4, st.Brightness)
}

func TestStateDirtyLifecycle(t *testing.T) {
	st := testStates().Get("desk")
	assert.False(t, st.Dirty())

	st.Replace([]Led{{Red: 1}}, "x", time.Now())
	assert.True(t, st.Dirty())

	st.ClearDirty()
	assert.False(t, st.Dirty())
}

func TestStatePixelsIsACopy(t *testing.T) {
	st := testStates().Get("desk")
	st.Replace([]Led{{Red: 255}}, "x", time.Now())

	pixels := st.Pixels()
	pixels[0] = Led{}
	assert.Equal(t, Led{Red: 255}, st.Pixels()[0])
}
