package tree

// Neighbor is a kNN candidate: a stored point and its distance to the
// query.
type Neighbor struct {
	Point    *Point
	Distance float32
}

// Neighbors is a heap.Interface max-heap over Distance, so the worst
// candidate found so far sits at the root and is the first evicted.
type Neighbors []Neighbor

func (h Neighbors) Len() int           { return len(h) }
func (h Neighbors) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h Neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *Neighbors) Push(x any) {
	*h = append(*h, x.(Neighbor))
}

func (h *Neighbors) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
