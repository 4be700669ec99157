package event

import "container/heap"

// item wraps an event with its ordering key for heap operations.
type item struct {
	time  float64
	seq   uint64
	event Event
}

// eventHeap implements a (timestamp, sequence) min-heap.
type eventHeap []item

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(item))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Scheduler is a causally-ordered priority queue of timestamped events.
// Equal timestamps resolve by a monotonically increasing sequence number
// assigned on push, so the pop order is a deterministic total order for
// a given push sequence. Not safe for concurrent use; the orchestrator
// is the only writer.
type Scheduler struct {
	heap eventHeap
	seq  uint64
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Push inserts an event in O(log n).
func (s *Scheduler) Push(e Event) {
	s.seq++
	heap.Push(&s.heap, item{time: e.Time(), seq: s.seq, event: e})
}

// PopEarliest removes and returns the event with the smallest
// (timestamp, sequence) key in O(log n). Popping from an empty
// scheduler is a programming error and panics; callers must check
// IsEmpty first.
func (s *Scheduler) PopEarliest() Event {
	if len(s.heap) == 0 {
		panic("event: pop from empty scheduler")
	}
	return heap.Pop(&s.heap).(item).event
}

// Peek returns the earliest event without removing it. The boolean is
// false when the scheduler is empty.
func (s *Scheduler) Peek() (Event, bool) {
	if len(s.heap) == 0 {
		return nil, false
	}
	return s.heap[0].event, true
}

// IsEmpty reports whether the scheduler holds no events. O(1).
func (s *Scheduler) IsEmpty() bool {
	return len(s.heap) == 0
}

// Size returns the number of pending events. O(1).
func (s *Scheduler) Size() int {
	return len(s.heap)
}
