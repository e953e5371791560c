package tree

// Point is a vector stored in the tree. Position is the caller's ordinal and
// breaks distance ties.
type Point struct {
	Position int
	Vector   []float32
}

// NewPoint constructs a point.
func NewPoint(position int, vector []float32) *Point {
	return &Point{Position: position, Vector: vector}
}
