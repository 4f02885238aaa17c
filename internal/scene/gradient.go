// Package scene provides sample PlateRenderer implementations standing in
// for the host game renderer: a deterministic procedural environment and
// a TGA skybox.
package scene

import (
	"math"

	"fisheye-renderer/internal/mathutil"
	"fisheye-renderer/internal/palette"
)

// Gradient renders a synthetic environment: a sky-to-ground gradient with
// longitude bands, so lens distortion is visible and every output pixel
// is a pure function of its ray.
type Gradient struct {
	q *palette.Quantizer
}

func NewGradient(pal palette.Palette) *Gradient {
	return &Gradient{q: palette.NewQuantizer(pal)}
}

// RenderPlate draws the perspective view along the given camera frame.
func (s *Gradient) RenderPlate(forward, right, up mathutil.Vec3, fov float64, size int, dst []uint8) {
	dist := 0.5 / math.Tan(fov/2)

	for y := 0; y < size; y++ {
		v := (float64(y) + 0.5) / float64(size)
		for x := 0; x < size; x++ {
			u := (float64(x) + 0.5) / float64(size)

			ray := mathutil.Vec3{}.
				MulAdd(dist, forward).
				MulAdd(u-0.5, right).
				MulAdd(0.5-v, up).
				Normalize()

			dst[y*size+x] = s.shade(ray)
		}
	}
}

func (s *Gradient) shade(ray mathutil.Vec3) uint8 {
	lat, lon := mathutil.RayToLatLon(ray)

	// 30-degree longitude bands, alternating brightness.
	band := int(math.Floor((lon+math.Pi)/(math.Pi/6))) % 2
	dim := 1.0
	if band == 0 {
		dim = 0.75
	}

	var r, g, b float64
	if lat >= 0 {
		t := lat / (math.Pi / 2)
		r = lerp(90, 10, t)
		g = lerp(130, 30, t)
		b = lerp(220, 110, t)
	} else {
		t := -lat / (math.Pi / 2)
		r = lerp(110, 40, t)
		g = lerp(90, 30, t)
		b = lerp(60, 20, t)
	}

	return s.q.Index(uint8(r*dim), uint8(g*dim), uint8(b*dim))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
