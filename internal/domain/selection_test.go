package domain

import (
	"slices"
	"testing"
)

func TestDriverSelectionToggle(t *testing.T) {
	s := NewDriverSelection(2)

	s = s.Toggle("o1")
	s = s.Toggle("o2")
	if got := s.IDs(); !slices.Equal(got, []string{"o1", "o2"}) {
		t.Fatalf("ids = %v, want [o1 o2]", got)
	}

	// at capacity: adding is a no-op
	s = s.Toggle("o3")
	if s.Len() != 2 || s.Contains("o3") {
		t.Fatalf("expected o3 to be ignored at capacity, got %v", s.IDs())
	}

	s = s.Toggle("o1")
	if got := s.IDs(); !slices.Equal(got, []string{"o2"}) {
		t.Fatalf("ids after removing o1 = %v, want [o2]", got)
	}

	s = s.Toggle("o3")
	if got := s.IDs(); !slices.Equal(got, []string{"o2", "o3"}) {
		t.Fatalf("ids = %v, want [o2 o3]", got)
	}
}

func TestDriverSelectionIsImmutable(t *testing.T) {
	base := NewDriverSelection(3, "o1")
	next := base.Toggle("o2")

	if base.Len() != 1 {
		t.Fatalf("base selection mutated: %v", base.IDs())
	}
	if next.Len() != 2 {
		t.Fatalf("next selection = %v, want 2 ids", next.IDs())
	}
}

func TestDriverSelectionAddAtCapacity(t *testing.T) {
	s := NewDriverSelection(1, "o1")
	if _, err := s.Add("o2"); err == nil {
		t.Fatal("expected capacity error, got nil")
	}
	if _, err := s.Add("o1"); err != nil {
		t.Fatalf("re-adding a selected id should be a no-op, got %v", err)
	}
}

func TestDriverSelectionSelectBatch(t *testing.T) {
	tests := []struct {
		name     string
		start    []string
		batch    []string
		max      int
		expected []string
	}{
		{name: "select all", start: nil, batch: []string{"a", "b"}, max: 3, expected: []string{"a", "b"}},
		{name: "union keeps existing first", start: []string{"x"}, batch: []string{"a", "b"}, max: 3, expected: []string{"x", "a", "b"}},
		{name: "truncated to capacity", start: []string{"x"}, batch: []string{"a", "b", "c"}, max: 3, expected: []string{"x", "a", "b"}},
		{name: "deselect when all selected", start: []string{"x", "a", "b"}, batch: []string{"a", "b"}, max: 3, expected: []string{"x"}},
		{name: "partial overlap selects rest", start: []string{"a"}, batch: []string{"a", "b"}, max: 3, expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDriverSelection(tt.max, tt.start...).SelectBatch(tt.batch)
			if got := s.IDs(); !slices.Equal(got, tt.expected) {
				t.Fatalf("ids = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDriverSelectionClearKeepsCapacity(t *testing.T) {
	s := NewDriverSelection(4, "a", "b").Clear()
	if s.Len() != 0 || s.Max() != 4 {
		t.Fatalf("clear = len %d max %d, want 0 and 4", s.Len(), s.Max())
	}
}

func TestDriverCapacityDefault(t *testing.T) {
	if got := NewDriver("d1", 0).Capacity(); got != DefaultMaxBatchOrders {
		t.Fatalf("capacity = %d, want %d", got, DefaultMaxBatchOrders)
	}
	if got := (&Driver{ID: "d2", MaxBatchOrders: 5}).Capacity(); got != 5 {
		t.Fatalf("capacity = %d, want 5", got)
	}
}

func TestAssignmentResultAllConflicted(t *testing.T) {
	r := &AssignmentResult{Failed: []FailedAssignment{{OrderID: "a", Conflict: true}}}
	if !r.AllConflicted() {
		t.Fatal("expected all conflicted")
	}

	r.Assigned = []string{"b"}
	if r.AllConflicted() {
		t.Fatal("partial success must not report all conflicted")
	}

	if got := r.FailedIDs(); !slices.Equal(got, []string{"a"}) {
		t.Fatalf("failed ids = %v, want [a]", got)
	}
}
