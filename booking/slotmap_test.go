package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidDateKey(t *testing.T) {
	cases := []struct {
		key   string
		valid bool
	}{
		{key: "15_12_2024", valid: true},
		{key: "5_1_2025", valid: true},
		{key: "05_01_2025", valid: true},
		{key: "2024-12-15", valid: false},
		{key: "15_12_24", valid: false},
		{key: "15/12/2024", valid: false},
		{key: "", valid: false},
		{key: "151_2_2024", valid: false},
	}

	for _, c := range cases {
		assert.Equal(t, c.valid, ValidDateKey(c.key), "date key %q", c.key)
	}
}

func TestValidTimeKey(t *testing.T) {
	cases := []struct {
		key   string
		valid bool
	}{
		{key: "10:00", valid: true},
		{key: "9:05", valid: true},
		{key: "00:00", valid: true},
		{key: "23:59", valid: true},
		{key: "24:00", valid: false},
		{key: "10:60", valid: false},
		{key: "10.30", valid: false},
		{key: "10:00 AM", valid: false},
		{key: "", valid: false},
	}

	for _, c := range cases {
		assert.Equal(t, c.valid, ValidTimeKey(c.key), "time key %q", c.key)
	}
}

func TestSlotMapReserveRelease(t *testing.T) {
	m := NewSlotMap()

	assert.True(t, m.IsFree("15_12_2024", "10:00"))

	require.NoError(t, m.Reserve("15_12_2024", "10:00"))
	assert.False(t, m.IsFree("15_12_2024", "10:00"))

	// same date, different time stays free
	assert.True(t, m.IsFree("15_12_2024", "10:30"))
	// different date, same time stays free
	assert.True(t, m.IsFree("16_12_2024", "10:00"))

	err := m.Reserve("15_12_2024", "10:00")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	m.Release("15_12_2024", "10:00")
	assert.True(t, m.IsFree("15_12_2024", "10:00"))

	// release is idempotent
	m.Release("15_12_2024", "10:00")
	m.Release("16_12_2024", "11:00")
	assert.True(t, m.IsFree("15_12_2024", "10:00"))

	require.NoError(t, m.Reserve("15_12_2024", "10:00"))
}

func TestSlotMapReserveRejectsMalformedKeys(t *testing.T) {
	m := NewSlotMap()
	assert.ErrorIs(t, m.Reserve("2024-12-15", "10:00"), ErrInvalidSlotKey)
	assert.ErrorIs(t, m.Reserve("15_12_2024", "10am"), ErrInvalidSlotKey)
}

func TestGrid(t *testing.T) {
	grid, err := Grid("10:00", "20:30", 30)
	require.NoError(t, err)
	require.Len(t, grid, 22)
	assert.Equal(t, "10:00", grid[0])
	assert.Equal(t, "20:30", grid[len(grid)-1])

	_, err = Grid("20:00", "10:00", 30)
	assert.Error(t, err)
	_, err = Grid("10:00", "20:00", 0)
	assert.Error(t, err)
	_, err = Grid("bad", "20:00", 30)
	assert.Error(t, err)
}

func TestFreeWithin(t *testing.T) {
	m := NewSlotMap()
	require.NoError(t, m.Reserve("15_12_2024", "10:30"))
	require.NoError(t, m.Reserve("15_12_2024", "11:00"))

	grid, err := Grid("10:00", "11:30", 30)
	require.NoError(t, err)

	free := m.FreeWithin("15_12_2024", grid)
	assert.Equal(t, []string{"10:00", "11:30"}, free)

	// untouched date: the whole grid is free
	assert.Equal(t, grid, m.FreeWithin("16_12_2024", grid))
}
