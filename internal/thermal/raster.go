package thermal

// Point is a pixel coordinate. It is not guaranteed to lie inside frame
// bounds until clipped by rasterisation.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// LinePixels rasterises the segment p1-p2 with integer Bresenham stepping
// and returns the covered pixels in traversal order from p1 to p2, both
// endpoints inclusive. Points outside [0,w) x [0,h) are dropped rather than
// clamped, so the result can be shorter than the geometric span of the
// segment. A degenerate segment (p1 == p2) yields a single point, or none
// when it is out of bounds.
//
// Traversal order is load-bearing: callers align the near and far ends of
// paired analysis lines by reversing one of the two outputs.
func LinePixels(p1, p2 Point, w, h int) []Point {
	dx := abs(p2.X - p1.X)
	dy := abs(p2.Y - p1.Y)
	sx := 1
	if p1.X > p2.X {
		sx = -1
	}
	sy := 1
	if p1.Y > p2.Y {
		sy = -1
	}
	err := dx - dy

	var pixels []Point
	x, y := p1.X, p1.Y
	for {
		if x >= 0 && x < w && y >= 0 && y < h {
			pixels = append(pixels, Point{x, y})
		}
		if x == p2.X && y == p2.Y {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
	return pixels
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
