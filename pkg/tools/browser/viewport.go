package browser

import "math"

// ToAbsolute converts a point on the model's 1000x1000 grid to viewport
// pixels. Values outside [0,1000] are not clamped.
func ToAbsolute(coord [2]int, vp Viewport) (x, y int) {
	return toPixels(float64(coord[0]), float64(coord[1]), vp)
}

// toPixels maps grid values that may carry a fractional part.
func toPixels(gx, gy float64, vp Viewport) (x, y int) {
	x = int(math.Round(gx / coordinateGrid * float64(vp.Width)))
	y = int(math.Round(gy / coordinateGrid * float64(vp.Height)))
	return x, y
}
