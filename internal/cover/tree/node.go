package tree

import "math"

// node is a cover-tree node. radius bounds the distance from point to any
// descendant and is only valid after Tree.Freeze.
type node struct {
	level    int32
	cover    float64
	point    *Point
	children []*node
	radius   float32
}

func newNode(point *Point, level int32, base float32) *node {
	return &node{
		level: level,
		cover: math.Pow(float64(base), float64(level)),
		point: point,
	}
}

func (n *node) setLevel(level int32, base float32) {
	n.level = level
	n.cover = math.Pow(float64(base), float64(level))
}
