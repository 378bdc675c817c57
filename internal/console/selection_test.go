package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectOne(t *testing.T) {
	s := NewSelection()
	s.SelectOne(3, true)
	s.SelectOne(7, true)
	assert.Equal(t, []int64{3, 7}, s.IDs())

	s.SelectOne(3, false)
	assert.Equal(t, []int64{7}, s.IDs())
}

func TestSelectAll(t *testing.T) {
	visible := []int64{5, 2, 9}
	s := NewSelection()
	s.SelectAll(true, visible)
	assert.Equal(t, []int64{2, 5, 9}, s.IDs())
	assert.True(t, s.AllSelected(visible))

	s.SelectAll(false, visible)
	assert.Zero(t, s.Size())
}

func TestAllSelectedNeverTrueOnEmptyPage(t *testing.T) {
	s := NewSelection()
	assert.False(t, s.AllSelected(nil))
	assert.False(t, s.AllSelected([]int64{}))

	s.SelectOne(1, true)
	assert.False(t, s.AllSelected([]int64{}))
}

func TestAllSelectedRequiresEveryVisibleID(t *testing.T) {
	visible := []int64{1, 2, 3}
	s := NewSelection()
	s.SelectOne(1, true)
	s.SelectOne(2, true)
	assert.False(t, s.AllSelected(visible))

	s.SelectOne(3, true)
	assert.True(t, s.AllSelected(visible))

	// same size but different membership is not "all"
	s.SelectOne(3, false)
	s.SelectOne(9, true)
	assert.False(t, s.AllSelected(visible))
}

func TestResetClearsSelection(t *testing.T) {
	s := NewSelection()
	s.SelectAll(true, []int64{1, 2})
	s.Reset()
	assert.Zero(t, s.Size())
}
