package event

import (
	"fmt"
	"sort"
	"testing"

	"pgregory.net/rapid"

	"lobsim/internal/domain"
)

// Property: pop order is the stable sort of pushes by timestamp, with
// insertion order breaking ties. Two schedulers fed the same pushes
// produce identical pop sequences.
func TestProperty_PopOrderIsStableByTimestamp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 100).Draw(t, "n")

		type push struct {
			ts float64
			id string
		}
		pushes := make([]push, n)
		for i := range pushes {
			// Coarse timestamps so ties are common.
			pushes[i] = push{
				ts: float64(rapid.IntRange(0, 9).Draw(t, fmt.Sprintf("ts%d", i))),
				id: fmt.Sprintf("o%d", i),
			}
		}

		s1 := NewScheduler()
		s2 := NewScheduler()
		for _, p := range pushes {
			s1.Push(orderAt(p.ts, p.id))
			s2.Push(orderAt(p.ts, p.id))
		}

		expected := make([]push, n)
		copy(expected, pushes)
		sort.SliceStable(expected, func(i, j int) bool {
			return expected[i].ts < expected[j].ts
		})

		for i := 0; i < n; i++ {
			e1 := s1.PopEarliest().(*OrderEvent)
			e2 := s2.PopEarliest().(*OrderEvent)
			if e1.Order.OrderID != expected[i].id {
				t.Fatalf("pop %d: got %s, want %s", i, e1.Order.OrderID, expected[i].id)
			}
			if e1.Order.OrderID != e2.Order.OrderID {
				t.Fatalf("pop %d: schedulers diverged: %s vs %s", i, e1.Order.OrderID, e2.Order.OrderID)
			}
		}
		if !s1.IsEmpty() || !s2.IsEmpty() {
			t.Fatal("schedulers should be empty after draining")
		}
	})
}

// Property: interleaving pops with pushes never violates ordering
// among the events currently pending.
func TestProperty_InterleavedNeverRegresses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewScheduler()
		n := rapid.IntRange(1, 80).Draw(t, "n")

		lastPopped := -1.0
		for i := 0; i < n; i++ {
			if s.IsEmpty() || rapid.Bool().Draw(t, fmt.Sprintf("push%d", i)) {
				// Timestamps never precede what was already popped, as in
				// a simulation where agents schedule at or after now.
				base := lastPopped
				if base < 0 {
					base = 0
				}
				ts := base + float64(rapid.IntRange(0, 5).Draw(t, fmt.Sprintf("dt%d", i)))
				s.Push(&TradeEvent{Timestamp: ts, Trade: domain.Trade{TradeID: fmt.Sprintf("t%d", i)}})
			} else {
				ev := s.PopEarliest()
				if ev.Time() < lastPopped {
					t.Fatalf("pop regressed: %v after %v", ev.Time(), lastPopped)
				}
				lastPopped = ev.Time()
			}
		}
	})
}
