// Package ordering keeps user-visible positions of lists, tasks and expense
// categories consistent across inserts, reorders, moves and deletes.
//
// Positions are non-negative integers. Within a partition they are unique but
// not necessarily contiguous; only a full reorder rewrites them to 0..n-1.
package ordering

import "strings"

// Kind names the row family a partition or write applies to.
type Kind string

const (
	KindList     Kind = "task_list"
	KindTask     Kind = "task"
	KindCategory Kind = "expense_category"
	KindExpense  Kind = "expense"
)

// Partition selects the siblings among which positions must be unique.
//
// Containers (lists, categories) are partitioned by OwnerID. Entities are
// partitioned by ContainerID, and ActiveOnly narrows a task partition to the
// tasks that are not completed.
type Partition struct {
	Kind        Kind
	OwnerID     string
	ContainerID string
	ActiveOnly  bool
}

// Sibling is the ordering-relevant projection of a row.
type Sibling struct {
	ID       string
	Position int
	Version  int
}

// PositionUpdate is a single position write. A zero Version writes blindly;
// a positive Version is compared against the stored row version.
type PositionUpdate struct {
	ID       string
	Position int
	Version  int
}

// NextPosition returns the position that sorts after every sibling:
// max+1, or 0 for an empty partition.
func NextPosition(siblings []Sibling) int {
	if len(siblings) == 0 {
		return 0
	}
	highest := siblings[0].Position
	for _, s := range siblings[1:] {
		if s.Position > highest {
			highest = s.Position
		}
	}
	return highest + 1
}

// Allocate returns explicit when the caller supplied one, otherwise the
// end-of-list position for siblings.
func Allocate(siblings []Sibling, explicit *int) (int, error) {
	if explicit != nil {
		if *explicit < 0 {
			return 0, Invalid("position", "must be >= 0, got %d", *explicit)
		}
		return *explicit, nil
	}
	return NextPosition(siblings), nil
}

// PlanReorder maps order onto zero-based positions. order must contain every
// id in current exactly once and nothing else. When versioned is set, each
// update carries the version observed in current.
func PlanReorder(current []Sibling, order []string, versioned bool) ([]PositionUpdate, error) {
	byID := make(map[string]Sibling, len(current))
	for _, s := range current {
		byID[s.ID] = s
	}

	seen := make(map[string]bool, len(order))
	updates := make([]PositionUpdate, 0, len(order))
	for i, raw := range order {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, Invalid("order", "empty id at index %d", i)
		}
		if seen[id] {
			return nil, Invalid("order", "duplicate id %s", id)
		}
		seen[id] = true

		sib, ok := byID[id]
		if !ok {
			return nil, Invalid("order", "%s is not a member of this partition", id)
		}

		u := PositionUpdate{ID: id, Position: i}
		if versioned {
			u.Version = sib.Version
		}
		updates = append(updates, u)
	}

	if len(seen) != len(byID) {
		var missing []string
		for _, s := range current {
			if !seen[s.ID] {
				missing = append(missing, s.ID)
			}
		}
		return nil, Invalid("order", "missing members %s", strings.Join(missing, ","))
	}

	return updates, nil
}
