package resid

// FCPoint maps a filter cutoff register value (X, 0-2047) to a cutoff
// frequency in Hz (Y).
type FCPoint struct {
	X, Y int
}

// The curve through a set of points is built from cubic segments, Catmull-Rom
// style but as single valued y = f(x). The segment between p1 and p2
// interpolates both and has slopes
//
//	k1 = (p2.y - p0.y)/(p2.x - p0.x), k2 = (p3.y - p1.y)/(p3.x - p1.x)
//
// At a repeated end point the second derivative is set to zero instead, and
// with both ends repeated the segment is a straight line. End points are not
// plotted unless repeated.

// interpolate plots the curve through points at x steps of res.
func interpolate(points []FCPoint, plot func(x, y float64), res float64) {
	x := func(i int) float64 { return float64(points[i].X) }
	y := func(i int) float64 { return float64(points[i].Y) }

	for p1 := 1; p1+2 < len(points); p1++ {
		p0, p2, p3 := p1-1, p1+1, p1+2

		var k1, k2 float64
		switch {
		case x(p1) == x(p2):
			// Single point.
			continue
		case x(p0) == x(p1) && x(p2) == x(p3):
			k1 = (y(p2) - y(p1)) / (x(p2) - x(p1))
			k2 = k1
		case x(p0) == x(p1):
			k2 = (y(p3) - y(p1)) / (x(p3) - x(p1))
			k1 = (3*(y(p2)-y(p1))/(x(p2)-x(p1)) - k2) / 2
		case x(p2) == x(p3):
			k1 = (y(p2) - y(p0)) / (x(p2) - x(p0))
			k2 = (3*(y(p2)-y(p1))/(x(p2)-x(p1)) - k1) / 2
		default:
			k1 = (y(p2) - y(p0)) / (x(p2) - x(p0))
			k2 = (y(p3) - y(p1)) / (x(p3) - x(p1))
		}

		interpolateForwardDifference(x(p1), y(p1), x(p2), y(p2), k1, k2, plot, res)
	}
}

// cubicCoefficients solves f(x) = ax^3 + bx^2 + cx + d through (x1, y1) and
// (x2, y2) with slopes k1 and k2.
func cubicCoefficients(x1, y1, x2, y2, k1, k2 float64) (a, b, c, d float64) {
	dx := x2 - x1
	dy := y2 - y1

	a = ((k1 + k2) - 2*dy/dx) / (dx * dx)
	b = ((k2-k1)/dx - 3*(x1+x2)*a) / 2
	c = k1 - (3*x1*a+2*b)*x1
	d = y1 - ((x1*a+b)*x1+c)*x1
	return
}

// interpolateForwardDifference evaluates the segment polynomial by forward
// differencing.
func interpolateForwardDifference(x1, y1, x2, y2, k1, k2 float64, plot func(x, y float64), res float64) {
	a, b, c, d := cubicCoefficients(x1, y1, x2, y2, k1, k2)

	y := ((a*x1+b)*x1+c)*x1 + d
	dy := (3*a*(x1+res)+2*b)*x1*res + ((a*res+b)*res+c)*res
	d2y := (6*a*(x1+res) + 2*b) * res * res
	d3y := 6 * a * res * res * res

	for x := x1; x <= x2; x += res {
		plot(x, y)
		y += dy
		dy += d2y
		d2y += d3y
	}
}

// tablePlotter stores plotted points in f, clamping negative values to zero.
func tablePlotter(f []int) func(x, y float64) {
	return func(x, y float64) {
		if y < 0 {
			y = 0
		}
		f[int(x)] = int(y)
	}
}
