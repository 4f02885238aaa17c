// Package lensmap builds the per-pixel assignment from output pixels to
// globe texels. Work is sliced across frames under a wall-clock budget:
// each resume picks up at the cursor where the last one yielded.
package lensmap

import (
	"time"

	"fisheye-renderer/internal/globe"
	"fisheye-renderer/internal/lens"
	"fisheye-renderer/internal/script"
)

// DefaultBudget is the per-frame build allowance.
const DefaultBudget = time.Second / 60

// Builder is the resumable lens-map engine. Exactly one of the two sweep
// algorithms runs for a given lens, selected by the lens map type.
type Builder struct {
	// Working is true while a build is suspended mid-way.
	Working bool

	// Budget is the wall-clock slice allowed per resume.
	Budget time.Duration

	// Now is the clock; tests substitute it.
	Now func() time.Time

	// Log receives user-visible lines.
	Log func(format string, args ...any)

	h     *script.Host
	g     *globe.Globe
	l     *lens.Lens
	rubix Rubix

	start time.Time

	// inverse cursor: current output row, counting down.
	ly int

	// forward cursor: current plate and plate row, plus the two scanline
	// buffers of interleaved (x,y) screen coordinates for the cell
	// boundaries above and below the current row.
	top, bot []int
	plate    int
	py       int
}

// New returns a builder with the default budget and real clock.
func New(logf func(string, ...any)) *Builder {
	return &Builder{
		Budget: DefaultBudget,
		Now:    time.Now,
		Log:    logf,
	}
}

// Start begins a fresh build for the given lens/globe pair, discarding any
// in-flight cursor. The lens scale must already be determined.
func (b *Builder) Start(h *script.Host, g *globe.Globe, l *lens.Lens, rubix Rubix) {
	b.Working = false
	b.h, b.g, b.l, b.rubix = h, g, l, rubix

	for i := 0; i < g.NumPlates; i++ {
		g.Plates[i].Display = false
	}

	switch l.MapType {
	case lens.MapForward:
		if l.Forward == nil {
			b.Log("lens_forward is not found")
			return
		}
		b.Log("using forward map")
		b.top = make([]int, 2*(g.PlateSize+1))
		b.bot = make([]int, 2*(g.PlateSize+1))
		b.plate = 0
		b.py = g.PlateSize - 1
		b.Resume()
	case lens.MapInverse:
		if l.Inverse == nil {
			b.Log("lens_inverse is not found")
			return
		}
		b.Log("using inverse map")
		b.ly = l.HeightPx - 1
		b.Resume()
	default:
		b.Log("no inverse or forward map being used")
	}
}

// Resume continues a build from its cursor until it completes or the
// budget runs out.
func (b *Builder) Resume() {
	switch b.l.MapType {
	case lens.MapForward:
		b.Working = b.resumeForward()
	case lens.MapInverse:
		b.Working = b.resumeInverse()
	}
}

func (b *Builder) timeUp() bool {
	return b.Now().Sub(b.start) >= b.Budget
}

// fail aborts the build after a script contract violation. The lens is
// marked invalid so the compositor shows a blank viewport instead of a
// half-built frame.
func (b *Builder) fail(err error) {
	b.Log("%v", err)
	b.l.Valid = false
}

func (b *Builder) resumeInverse() bool {
	l, g := b.l, b.g

	b.start = b.Now()
	for ; b.ly >= 0; b.ly-- {
		if b.timeUp() {
			return true
		}

		y := -float64(b.ly-l.HeightPx/2) * l.Scale

		for lx := 0; lx < l.WidthPx; lx++ {
			x := float64(lx-l.WidthPx/2) * l.Scale

			ray, ok, err := b.h.CallInverse(l.Inverse, x, y)
			if err != nil {
				b.fail(err)
				return false
			}
			if !ok {
				continue
			}

			plate := g.RayToPlateIndex(b.h, ray)
			if plate < 0 {
				continue
			}
			u, v, inside := g.RayToPlateUV(plate, ray)
			if !inside {
				continue
			}
			b.setFromPlateUV(lx, b.ly, u, v, plate)
		}
	}

	return false
}

func (b *Builder) resumeForward() bool {
	g := b.g
	ps := g.PlateSize

	b.start = b.Now()
	for ; b.plate < g.NumPlates; b.plate++ {
		for ; b.py >= 0; b.py-- {
			if b.timeUp() {
				return true
			}

			// Screen coordinates of the cell boundaries below this row:
			// computed on the first row, reused from the previous top
			// afterwards.
			if b.py == ps-1 {
				v := (float64(b.py) + 0.5) / float64(ps)
				if abort := b.fillScanline(b.bot, v); abort {
					return false
				}
			} else {
				b.top, b.bot = b.bot, b.top
			}

			v := (float64(b.py) - 0.5) / float64(ps)
			if abort := b.fillScanline(b.top, v); abort {
				return false
			}

			// One quad per texel in this row, culled to the texels this
			// plate canonically owns so overlap regions draw once.
			v = float64(b.py) / float64(ps)
			for px := 0; px < ps; px++ {
				u := float64(px) / float64(ps)
				ray := g.PlateUVToRay(b.plate, u, v)
				if g.RayToPlateIndex(b.h, ray) != b.plate {
					continue
				}

				i := 2 * px
				b.drawQuad(
					b.top[i:i+2], b.top[i+2:i+4],
					b.bot[i:i+2], b.bot[i+2:i+4],
					b.plate, px, b.py)
			}
		}

		// Row cursor resets here, not at loop entry: a resume may land in
		// the middle of a plate.
		b.py = ps - 1
	}

	b.top, b.bot = nil, nil
	return false
}

// fillScanline computes screen coordinates for the platesize+1 vertical
// cell boundaries at texture row v. Returns true when the build must
// abort. Skipped samples keep the buffer's previous content.
func (b *Builder) fillScanline(row []int, v float64) (abort bool) {
	ps := b.g.PlateSize
	for px := 0; px < ps; px++ {
		if px == 0 {
			u := -0.5 / float64(ps)
			if _, err := b.uvToScreen(u, v, row[0:2]); err != nil {
				b.fail(err)
				return true
			}
		}
		u := (float64(px) + 0.5) / float64(ps)
		i := 2 * (px + 1)
		ok, err := b.uvToScreen(u, v, row[i:i+2])
		if err != nil {
			b.fail(err)
			return true
		}
		if !ok {
			continue
		}
	}
	return false
}

// uvToScreen maps a plate texture coordinate to an output pixel through
// the forward projection.
func (b *Builder) uvToScreen(u, v float64, out []int) (ok bool, err error) {
	ray := b.g.PlateUVToRay(b.plate, u, v)

	x, y, ok, err := b.h.CallForward(b.l.Forward, ray)
	if err != nil || !ok {
		return ok, err
	}

	out[0] = int(x/b.l.Scale + float64(b.l.WidthPx/2))
	out[1] = int(-y/b.l.Scale + float64(b.l.HeightPx/2))
	return true, nil
}

// setFromPlateUV writes one lens-map entry from plate uv coordinates.
func (b *Builder) setFromPlateUV(lx, ly int, u, v float64, plate int) {
	px := int(u * float64(b.g.PlateSize))
	py := int(v * float64(b.g.PlateSize))
	b.setFromPlate(lx, ly, px, py, plate)
}

// setFromPlate writes one lens-map entry from plate pixel coordinates,
// recording the plate as displayed and its tint off the rubix grid lines.
func (b *Builder) setFromPlate(lx, ly, px, py, plate int) {
	l, g := b.l, b.g

	if lx < 0 || lx >= l.WidthPx || ly < 0 || ly >= l.HeightPx {
		return
	}
	if px < 0 || px >= g.PlateSize || py < 0 || py >= g.PlateSize {
		return
	}

	g.Plates[plate].Display = true

	i := lx + ly*l.WidthPx
	l.Pixels[i] = g.PixelOffset(plate, px, py)

	if !b.rubix.onGrid(px, py, g.PlateSize) {
		l.Tints[i] = uint8(plate)
	}
}
