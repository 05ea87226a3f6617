package scheduler

import "container/heap"

// eventHeap implements container/heap.Interface for Event,
// sorted by TriggerAt (earliest first, min-heap).
type eventHeap []Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].TriggerAt.Before(h[j].TriggerAt) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *eventHeap, e Event) {
	heap.Push(h, e)
}

// heapPop removes and returns the Event with the earliest TriggerAt.
// Panics if the heap is empty.
func heapPop(h *eventHeap) Event {
	return heap.Pop(h).(Event)
}

// heapRemoveByID removes every Event with the given JobID and reports
// whether any was found.
func heapRemoveByID(h *eventHeap, id string) bool {
	removed := false
	for i := 0; i < len(*h); {
		if (*h)[i].JobID == id {
			heap.Remove(h, i)
			removed = true
			continue
		}
		i++
	}
	return removed
}
