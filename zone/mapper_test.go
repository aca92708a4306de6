package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapperForward(t *testing.T) {
	m := NewMapper([]Zone{
		{ID: "desk", Channel: "main", FirstLed: 2, LastLed: 5},
	}, 10)

	assert.Equal(t, []int{2, 3, 4, 5}, m.Indices("desk"))
	assert.Equal(t, 10, m.LedsTotal())
}

func TestMapperReversed(t *testing.T) {
	m := NewMapper([]Zone{
		{ID: "shelf", Channel: "main", FirstLed: 2, LastLed: 5, Reversed: true},
	}, 10)

	// Logical pixel 0 maps to the highest physical index.
	assert.Equal(t, []int{5, 4, 3, 2}, m.Indices("shelf"))
}

func TestMapperSwapsInvertedBounds(t *testing.T) {
	m := NewMapper([]Zone{
		{ID: "desk", Channel: "main", FirstLed: 5, LastLed: 2},
	}, 10)

	assert.Equal(t, []int{2, 3, 4, 5}, m.Indices("desk"))
}

func TestMapperDropsOutOfRangeIndices(t *testing.T) {
	m := NewMapper([]Zone{
		{ID: "edge", Channel: "main", FirstLed: 8, LastLed: 12},
		{ID: "neg", Channel: "main", FirstLed: -2, LastLed: 1},
	}, 10)

	// Indices beyond the physical buffer are dropped, the rest stays.
	assert.Equal(t, []int{8, 9}, m.Indices("edge"))
	assert.Equal(t, []int{0, 1}, m.Indices("neg"))
}

func TestMapperUnknownZone(t *testing.T) {
	m := NewMapper(nil, 10)
	assert.Nil(t, m.Indices("nope"))
}
