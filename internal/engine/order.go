package engine

import "sort"

// Node is the scheduling view of one rule.
type Node struct {
	ID           string
	Priority     int
	Dependencies []string
}

// Plan is an execution order. Cycle lists the ids that could not be
// ordered by dependency and were appended in id order instead.
type Plan struct {
	Order []string
	Cycle []string
}

// HasCycle reports whether the fallback order was used.
func (p Plan) HasCycle() bool {
	return len(p.Cycle) > 0
}

// Order computes a priority-weighted topological order.
//
// A rule is eligible once every dependency inside the node set has been
// placed; dependencies outside the set are already satisfied. Among eligible
// rules the highest priority goes first and ties break by id ascending.
// When no rule is eligible the remaining ids form a cycle and are appended
// sorted by id. Duplicate ids keep their first occurrence.
func Order(nodes []Node) Plan {
	byID := make(map[string]Node, len(nodes))
	remaining := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, seen := byID[n.ID]; seen {
			continue
		}
		byID[n.ID] = n
		remaining = append(remaining, n.ID)
	}

	placed := make(map[string]struct{}, len(remaining))
	order := make([]string, 0, len(remaining))

	eligible := func(id string) bool {
		for _, dep := range byID[id].Dependencies {
			if _, inRun := byID[dep]; !inRun {
				continue
			}
			if _, ok := placed[dep]; !ok {
				return false
			}
		}
		return true
	}

	for len(remaining) > 0 {
		best := -1
		for i, id := range remaining {
			if !eligible(id) {
				continue
			}
			if best < 0 || before(byID[id], byID[remaining[best]]) {
				best = i
			}
		}

		if best < 0 {
			cycle := append([]string(nil), remaining...)
			sort.Strings(cycle)
			return Plan{Order: append(order, cycle...), Cycle: cycle}
		}

		id := remaining[best]
		order = append(order, id)
		placed[id] = struct{}{}
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return Plan{Order: order}
}

func before(a, b Node) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID < b.ID
}
