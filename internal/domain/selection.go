package domain

import "fmt"

// DefaultMaxBatchOrders applies when a driver has no capacity configured.
const DefaultMaxBatchOrders = 3

// Driver as seen by the planner: identity plus batch capacity.
type Driver struct {
	ID             string
	Name           string
	Email          string
	MaxBatchOrders int
}

func NewDriver(id string, maxBatchOrders int) *Driver {
	if maxBatchOrders <= 0 {
		maxBatchOrders = DefaultMaxBatchOrders
	}
	return &Driver{ID: id, MaxBatchOrders: maxBatchOrders}
}

// Capacity returns MaxBatchOrders, or the default when unset.
func (d *Driver) Capacity() int {
	if d == nil || d.MaxBatchOrders <= 0 {
		return DefaultMaxBatchOrders
	}
	return d.MaxBatchOrders
}

// DriverSelection is the set of order ids a driver intends to accept in one
// action. It is an immutable value: every operation returns a new selection
// and the caller (the UI layer) keeps it between renders.
type DriverSelection struct {
	max int
	ids []string
}

func NewDriverSelection(max int, ids ...string) DriverSelection {
	if max <= 0 {
		max = DefaultMaxBatchOrders
	}
	s := DriverSelection{max: max}
	for _, id := range ids {
		if id == "" || s.Contains(id) || len(s.ids) >= max {
			continue
		}
		s.ids = append(s.ids, id)
	}
	return s
}

func (s DriverSelection) Max() int { return s.max }

func (s DriverSelection) Len() int { return len(s.ids) }

// IDs returns a copy of the selected ids in selection order.
func (s DriverSelection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s DriverSelection) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id, failing once the selection is at capacity.
func (s DriverSelection) Add(id string) (DriverSelection, error) {
	if s.Contains(id) {
		return s, nil
	}
	if len(s.ids) >= s.max {
		return s, fmt.Errorf("add order %q: selection is at full capacity (capacity=%d)", id, s.max)
	}
	return DriverSelection{max: s.max, ids: append(s.IDs(), id)}, nil
}

func (s DriverSelection) Remove(id string) DriverSelection {
	out := DriverSelection{max: s.max, ids: make([]string, 0, len(s.ids))}
	for _, v := range s.ids {
		if v != id {
			out.ids = append(out.ids, v)
		}
	}
	return out
}

// Toggle removes id when selected and adds it otherwise.
// Adding is a no-op once the selection is full.
func (s DriverSelection) Toggle(id string) DriverSelection {
	if s.Contains(id) {
		return s.Remove(id)
	}
	next, err := s.Add(id)
	if err != nil {
		return s
	}
	return next
}

// SelectBatch deselects every id when all of them are already selected;
// otherwise it adds the missing ids in order until the selection is full.
func (s DriverSelection) SelectBatch(ids []string) DriverSelection {
	if len(ids) == 0 {
		return s
	}

	allSelected := true
	for _, id := range ids {
		if !s.Contains(id) {
			allSelected = false
			break
		}
	}

	if allSelected {
		out := s
		for _, id := range ids {
			out = out.Remove(id)
		}
		return out
	}

	return NewDriverSelection(s.max, append(s.IDs(), ids...)...)
}

func (s DriverSelection) Clear() DriverSelection {
	return DriverSelection{max: s.max}
}

// Outcome of one failed order assignment inside an accepted selection.
type FailedAssignment struct {
	OrderID  string `json:"order_id"`
	Conflict bool   `json:"conflict"`
	Reason   string `json:"reason"`
}

// AssignmentResult reports what happened when a selection was submitted.
// Orders in Assigned stay assigned even when others failed.
type AssignmentResult struct {
	DriverID  string             `json:"driver_id"`
	BatchID   string             `json:"batch_id,omitempty"`
	IsBatched bool               `json:"is_batched"`
	Assigned  []string           `json:"assigned"`
	Failed    []FailedAssignment `json:"failed"`
	Earnings  Earnings           `json:"earnings"`
}

// FailedIDs lists the order ids that could not be claimed.
func (r *AssignmentResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.OrderID)
	}
	return ids
}

// AllConflicted reports whether every order failed because another driver
// claimed it first.
func (r *AssignmentResult) AllConflicted() bool {
	if len(r.Assigned) > 0 || len(r.Failed) == 0 {
		return false
	}
	for _, f := range r.Failed {
		if !f.Conflict {
			return false
		}
	}
	return true
}
