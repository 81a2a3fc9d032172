package oum

// nodeItem is a Considered node and the tentative value it was pushed with.
type nodeItem struct {
	idx int     // row-major node index
	val float64 // tentative Φ at push time
}

// nodePQ is a min-heap of nodeItem ordered by val, then by idx so equal
// values pop lowest index first. Entries go stale when a node improves or
// is accepted; process skips them by comparing against the live value.
type nodePQ []nodeItem

// Len returns the number of items in the heap.
func (pq nodePQ) Len() int { return len(pq) }

// Less orders by value, breaking ties on the lower index.
func (pq nodePQ) Less(i, j int) bool {
	if pq[i].val != pq[j].val {
		return pq[i].val < pq[j].val
	}

	return pq[i].idx < pq[j].idx
}

// Swap swaps two elements in the heap.
func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

// Push adds x, which must be a nodeItem. Called by heap.Push.
func (pq *nodePQ) Push(x any) { *pq = append(*pq, x.(nodeItem)) }

// Pop removes and returns the last element. Called by heap.Pop.
func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
