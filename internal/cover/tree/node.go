package tree

import "math"

// Node is a cover-tree node holding one stored point. Children sit one
// level below and within the node's covering distance of its point.
type Node struct {
	level          int32
	baseLevel      float32
	point          *Point
	children       []Node
	radius         float32
	radiusComputed uint64
}

// NewNode constructs a node for point at level, caching base^level as the
// covering distance for that level.
func NewNode(point *Point, level int32, base float32) Node {
	return Node{
		level:     level,
		baseLevel: float32(math.Pow(float64(base), float64(level))),
		point:     point,
	}
}
