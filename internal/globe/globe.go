// Package globe models the arrangement of flat perspective plates that
// together cover the sphere around the viewer.
package globe

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"fisheye-renderer/internal/mathutil"
	"fisheye-renderer/internal/script"
)

// MaxPlates mirrors the script-side cap.
const MaxPlates = script.MaxPlates

// Plate is one globe face: an orthogonal camera frame plus the precomputed
// camera-to-plate distance for a unit-square plate.
type Plate struct {
	Forward mathutil.Vec3
	Right   mathutil.Vec3
	Up      mathutil.Vec3

	// FOV is the full field of the square plate, radians.
	FOV float64
	// Dist is the camera distance to the unit plate, 0.5/tan(FOV/2).
	Dist float64

	// Palette is the tint remap table for this plate slot, applied by the
	// rubix overlay. Filled once at startup for all slots.
	Palette [256]uint8

	// Display is set during a lens-map build when any output pixel maps
	// to this plate; undisplayed plates are never rendered.
	Display bool
}

// Globe holds the current plate set and the environment-map pixel buffer
// that plate renders are copied into.
type Globe struct {
	Name    string
	Valid   bool
	Changed bool

	Plates    [MaxPlates]Plate
	NumPlates int

	// PlateSize is the pixel edge of each square plate render.
	PlateSize int
	// Pixels holds MaxPlates contiguous PlateSize x PlateSize index
	// planes, row major; the first NumPlates are in use.
	Pixels []uint8

	// plateFn is the script's optional globe_plate override.
	plateFn *lua.LFunction
}

// Load re-reads the globe from a script file. On any error the previous
// plate data is cleared and the globe left empty; the caller marks it
// invalid.
func (g *Globe) Load(h *script.Host, path string) error {
	h.ClearGlobals("plates", "globe_plate")
	g.NumPlates = 0
	g.plateFn = nil

	if err := h.LoadFile(path); err != nil {
		return err
	}

	g.plateFn = h.Function("globe_plate")

	specs, err := h.Plates()
	if err != nil {
		return err
	}

	for i, spec := range specs {
		p := &g.Plates[i]
		p.Forward = mathutil.Vec3(spec.Forward)
		p.Up = mathutil.Vec3(spec.Up)

		// Derive the right vector and re-orthogonalize up. The script's
		// vectors are trusted as unit length; no normalization here.
		p.Right = p.Up.Cross(p.Forward)
		p.Up = p.Forward.Cross(p.Right)

		p.FOV = spec.FOVDeg * math.Pi / 180
		p.Dist = 0.5 / math.Tan(p.FOV/2)
		p.Display = false
	}
	g.NumPlates = len(specs)

	return nil
}

// SetPalettes installs the tint remap tables into all plate slots.
func (g *Globe) SetPalettes(tables [MaxPlates][256]uint8) {
	for i := range g.Plates {
		g.Plates[i].Palette = tables[i]
	}
}

// AllocPixels sizes the environment map for the given plate edge.
func (g *Globe) AllocPixels(platesize int) {
	g.PlateSize = platesize
	g.Pixels = make([]uint8, MaxPlates*platesize*platesize)
}

// PlatePixels returns the pixel plane of one plate.
func (g *Globe) PlatePixels(plate int) []uint8 {
	n := g.PlateSize * g.PlateSize
	return g.Pixels[plate*n : (plate+1)*n]
}

// PixelOffset returns the index of a plate texel within Pixels.
func (g *Globe) PixelOffset(plate, x, y int) int32 {
	return int32(plate*g.PlateSize*g.PlateSize + y*g.PlateSize + x)
}

// RayToPlateIndex selects the plate owning a ray: the script's
// globe_plate function when defined (-1 when it misbehaves), otherwise the
// plate whose forward vector has the greatest dot product with the ray.
// Ties break to the lowest index.
func (g *Globe) RayToPlateIndex(h *script.Host, ray mathutil.Vec3) int {
	if g.plateFn != nil {
		if plate, ok := h.CallGlobePlate(g.plateFn, ray); ok {
			return plate
		}
		return -1
	}

	maxDot := -2.0
	plate := 0
	for i := 0; i < g.NumPlates; i++ {
		dp := ray.Dot(g.Plates[i].Forward)
		if dp > maxDot {
			maxDot = dp
			plate = i
		}
	}
	return plate
}

// RayToPlateUV projects a ray into a plate's texture coordinates.
// inside reports whether the coordinates land on the plate. The v axis is
// flipped: textures grow downward while the camera frame's up is +y.
func (g *Globe) RayToPlateUV(plate int, ray mathutil.Vec3) (u, v float64, inside bool) {
	p := &g.Plates[plate]
	x := p.Right.Dot(ray)
	y := p.Up.Dot(ray)
	z := p.Forward.Dot(ray)

	dist := 0.5 / math.Tan(p.FOV/2)
	u = x/z*dist + 0.5
	v = -y/z*dist + 0.5

	return u, v, u >= 0 && u <= 1 && v >= 0 && v <= 1
}

// PlateUVToRay returns the unit world ray through a plate texel.
func (g *Globe) PlateUVToRay(plate int, u, v float64) mathutil.Vec3 {
	p := &g.Plates[plate]

	ray := mathutil.Vec3{}.
		MulAdd(p.Dist, p.Forward).
		MulAdd(u-0.5, p.Right).
		MulAdd(0.5-v, p.Up)

	return ray.Normalize()
}

// PlateToRay is the script-facing plate_to_ray helper: PlateUVToRay with
// range checking.
func (g *Globe) PlateToRay(plate int, u, v float64) (mathutil.Vec3, bool) {
	if plate < 0 || plate >= g.NumPlates {
		return mathutil.Vec3{}, false
	}
	return g.PlateUVToRay(plate, u, v), true
}
