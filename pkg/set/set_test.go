package set

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	s := New[int]()
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Size())

	seeded := New("a", "b", "a")
	assert.Equal(t, 2, seeded.Size())
}

func TestSet_Add(t *testing.T) {
	tests := []struct {
		name     string
		items    []string
		wantSize int
	}{
		{
			name:     "add single item",
			items:    []string{"Cl1"},
			wantSize: 1,
		},
		{
			name:     "add multiple items",
			items:    []string{"Cl1", "Cl2", "Cl3"},
			wantSize: 3,
		},
		{
			name:     "add duplicate items",
			items:    []string{"Cl1", "Cl1", "Cl1"},
			wantSize: 1,
		},
		{
			name:     "add no items",
			items:    []string{},
			wantSize: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New[string]()
			s.Add(tt.items...)
			assert.Equal(t, tt.wantSize, s.Size())
		})
	}
}

func TestSet_Remove(t *testing.T) {
	tests := []struct {
		name       string
		initial    []string
		toRemove   string
		wantSize   int
		shouldHave []string
	}{
		{
			name:       "remove existing item",
			initial:    []string{"Cl1", "Cl2", "Cl3"},
			toRemove:   "Cl2",
			wantSize:   2,
			shouldHave: []string{"Cl1", "Cl3"},
		},
		{
			name:       "remove non-existing item",
			initial:    []string{"Cl1", "Cl2"},
			toRemove:   "Cl5",
			wantSize:   2,
			shouldHave: []string{"Cl1", "Cl2"},
		},
		{
			name:       "remove from empty set",
			initial:    []string{},
			toRemove:   "Cl1",
			wantSize:   0,
			shouldHave: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.initial...)
			s.Remove(tt.toRemove)
			assert.Equal(t, tt.wantSize, s.Size())
			for _, item := range tt.shouldHave {
				assert.True(t, s.Contains(item))
			}
		})
	}
}

func TestSet_Contains(t *testing.T) {
	s := New("Cl1", "Cl2")
	assert.True(t, s.Contains("Cl1"))
	assert.False(t, s.Contains("Cl9"))
	assert.False(t, New[string]().Contains("Cl1"))
}

func TestSet_Slice(t *testing.T) {
	s := New(3, 1, 2)

	result := s.Slice()
	assert.Len(t, result, 3)

	// sort for comparison since set order is not guaranteed
	sort.Ints(result)
	assert.Equal(t, []int{1, 2, 3}, result)
}

func TestSortedSlice(t *testing.T) {
	s := New("Cl3", "Cl1", "Cl2")
	assert.Equal(t, []string{"Cl1", "Cl2", "Cl3"}, SortedSlice(s))
}
