package mempool

import "container/heap"

// feeRateHeap is a min-heap over *Entry ordered by raw (non-decayed) fee
// rate, used to find the cheapest evictable candidate in O(log n) when the
// pool is full. Grounded on daglabs-btcd's
// transactionsOrderedByFeeRate role in transactions_pool.go, built here
// directly on container/heap the way every corpus member that implements
// such a structure does.
type feeRateHeap []*Entry

func (h feeRateHeap) Len() int { return len(h) }

func (h feeRateHeap) Less(i, j int) bool { return h[i].FeeRate < h[j].FeeRate }

func (h feeRateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *feeRateHeap) Push(x any) {
	entry := x.(*Entry)
	entry.heapIndex = len(*h)
	*h = append(*h, entry)
}

func (h *feeRateHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.heapIndex = -1
	*h = old[:n-1]
	return entry
}

func (h *feeRateHeap) push(entry *Entry) {
	heap.Push(h, entry)
}

func (h *feeRateHeap) remove(entry *Entry) {
	if entry.heapIndex < 0 || entry.heapIndex >= len(*h) {
		return
	}
	heap.Remove(h, entry.heapIndex)
}

// cheapest returns the lowest-fee-rate entry without removing it, or nil
// if the heap is empty.
func (h feeRateHeap) cheapest() *Entry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
