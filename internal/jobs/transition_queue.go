package jobs

import (
	"fulfillment/internal/core/ports"
)

// armedTransition is a heap entry. index is maintained by the heap so a cancelled
// transition can be removed in O(log n).
type armedTransition struct {
	transition ports.Transition
	seq        uint64
	index      int
}

// transitionQueue is a min-heap ordered by fire time, then stage, then arm order.
// Stage ordering keeps one order's transitions in stage order when they share a
// fire time.
type transitionQueue []*armedTransition

func (q transitionQueue) Len() int { return len(q) }

func (q transitionQueue) Less(i, j int) bool {
	a, b := q[i].transition, q[j].transition
	if !a.FireAt.Equal(b.FireAt) {
		return a.FireAt.Before(b.FireAt)
	}
	if a.Stage != b.Stage {
		return a.Stage.Index() < b.Stage.Index()
	}
	return q[i].seq < q[j].seq
}

func (q transitionQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *transitionQueue) Push(x any) {
	item := x.(*armedTransition)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *transitionQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

func (q transitionQueue) peek() *armedTransition {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
