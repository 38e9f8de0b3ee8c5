package sim

// PlanID is the handle returned by Context.Schedule. It stays valid until
// the plan fires or is canceled.
type PlanID uint64

// PlanFunc is the callback executed when a plan fires.
type PlanFunc func(ctx *Context)

// plan is one scheduled callback. seq is the insertion sequence used for
// deterministic FIFO tie-breaking between plans at the same time.
type plan struct {
	id    PlanID
	time  float64
	seq   uint64
	fn    PlanFunc
	index int // position in the heap, maintained by Swap/Push/Pop
}

// planQueue is a min-heap ordered by (time, seq). Implements heap.Interface.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-PriorityQueue
type planQueue []*plan

func (q planQueue) Len() int { return len(q) }

func (q planQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q planQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *planQueue) Push(x any) {
	p := x.(*plan)
	p.index = len(*q)
	*q = append(*q, p)
}

func (q *planQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}
