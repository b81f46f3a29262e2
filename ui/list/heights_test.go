package list

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeights_DefaultFallback(t *testing.T) {
	h := NewHeights(3, 0)
	assert.Equal(t, DefaultPlaceholderHeight, h.Default())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []int{8, 8, 8}, h.Snapshot())
}

func TestHeights_Offset(t *testing.T) {
	h := NewHeights(4, 2)
	h.Set(1, 5)

	assert.Equal(t, 0, h.Offset(-1))
	assert.Equal(t, 0, h.Offset(0))
	assert.Equal(t, 2, h.Offset(1))
	assert.Equal(t, 7, h.Offset(2))
	assert.Equal(t, 11, h.Offset(4))
	assert.Equal(t, 11, h.Total())
}

func TestHeights_OffsetBeyondTable(t *testing.T) {
	h := NewHeights(2, 3)
	// Two stored entries, then three missing ones at the default height.
	assert.Equal(t, 6+3*3, h.Offset(5))
	assert.Equal(t, 2, h.Len(), "lookups must not grow the table")
}

func TestHeights_SetIgnoresNonPositive(t *testing.T) {
	h := NewHeights(2, 4)
	assert.False(t, h.Set(0, 0))
	assert.False(t, h.Set(1, -3))
	assert.False(t, h.Set(-1, 5))
	assert.Equal(t, []int{4, 4}, h.Snapshot())
}

func TestHeights_SetReportsChange(t *testing.T) {
	h := NewHeights(2, 4)
	assert.True(t, h.Set(0, 6))
	assert.False(t, h.Set(0, 6), "same height is not a change")
}

func TestHeights_SetGrows(t *testing.T) {
	h := NewHeights(1, 4)
	require.True(t, h.Set(3, 1))
	assert.Equal(t, []int{4, 4, 4, 1}, h.Snapshot())
}

func TestHeights_MemoInvalidation(t *testing.T) {
	h := NewHeights(3, 1)
	require.Equal(t, 3, h.Offset(3))

	h.Set(0, 10)
	assert.Equal(t, 12, h.Offset(3))

	h.Grow(5)
	assert.Equal(t, 14, h.Offset(5))
}

func TestHeights_GrowNeverShrinks(t *testing.T) {
	h := NewHeights(5, 1)
	h.Grow(2)
	assert.Equal(t, 5, h.Len())
}

func TestHeights_Reset(t *testing.T) {
	h := NewHeights(3, 2)
	h.Set(0, 9)
	h.Reset(2)
	assert.Equal(t, []int{2, 2}, h.Snapshot())
	assert.Equal(t, 4, h.Total())
}

func TestHeights_OffsetMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	h := NewHeights(50, 8)
	for range 500 {
		h.Set(r.Intn(60), r.Intn(20)-5)
		for i := 0; i < 70; i++ {
			require.LessOrEqual(t, h.Offset(i), h.Offset(i+1), "offset(%d) > offset(%d)", i, i+1)
		}
	}
}
