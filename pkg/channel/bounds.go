package channel

// Bounds is an inclusive rectangle on the routing grid.
type Bounds struct {
	X0, Y0 int
	X1, Y1 int
}

// BoundsAt returns a degenerate rectangle containing only (x, y).
func BoundsAt(x, y int) Bounds {
	return Bounds{X0: x, Y0: y, X1: x, Y1: y}
}

// Expand grows b to include (x, y).
func (b *Bounds) Expand(x, y int) {
	if x < b.X0 {
		b.X0 = x
	}
	if x > b.X1 {
		b.X1 = x
	}
	if y < b.Y0 {
		b.Y0 = y
	}
	if y > b.Y1 {
		b.Y1 = y
	}
}

// Contains reports whether (x, y) lies inside b grown by the given margins.
func (b Bounds) Contains(x, y, marginX, marginY int) bool {
	return x >= b.X0-marginX && x <= b.X1+marginX &&
		y >= b.Y0-marginY && y <= b.Y1+marginY
}

// HPWL returns the half-perimeter of b.
func (b Bounds) HPWL() int {
	return abs(b.X1-b.X0) + abs(b.Y1-b.Y0)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
