// Package engine ties the fisheye subsystems together: it owns the globe,
// lens, lens-map builder and output frame, detects parameter changes each
// frame, drives the host renderer for every displayed plate, and
// composites the result through the lens-map.
package engine

import (
	"fmt"

	"fisheye-renderer/internal/globe"
	"fisheye-renderer/internal/lens"
	"fisheye-renderer/internal/lensmap"
	"fisheye-renderer/internal/mathutil"
	"fisheye-renderer/internal/palette"
	"fisheye-renderer/internal/script"
)

// PlateRenderer is the host renderer contract: draw one perspective view
// with the given world-space camera frame and square FOV into dst, a
// size x size plane of palette indexes.
type PlateRenderer interface {
	RenderPlate(forward, right, up mathutil.Vec3, fov float64, size int, dst []uint8)
}

// Engine is the fisheye subsystem. All methods run on the frame loop
// goroutine; nothing here is safe for concurrent use.
type Engine struct {
	// Log receives user-visible console lines. Defaults to stdout.
	Log func(format string, args ...any)

	// Enabled gates the whole subsystem, the fisheye command.
	Enabled bool

	// LensDir and GlobeDir hold the script files.
	LensDir, GlobeDir string
	// SaveDir receives saveglobe screenshots and palette dumps.
	SaveDir string

	host     *script.Host
	pal      palette.Palette
	globe    globe.Globe
	lens     lens.Lens
	fov      lens.FOVState
	builder  *lensmap.Builder
	rubix    lensmap.Rubix
	renderer PlateRenderer

	pitch, yaw, roll float64

	// Frame is the composited output viewport, WidthPx x HeightPx
	// palette indexes, reallocated on resize.
	Frame []uint8

	prevW, prevH int

	save struct {
		pending     bool
		withMargins bool
		name        string
	}
}

// marginColor replaces pixels outside a plate's Voronoi region in
// saveglobe output.
const marginColor = 0xFE

// New builds an engine around a palette and a plate renderer.
func New(pal palette.Palette, r PlateRenderer, lensDir, globeDir string, logf func(string, ...any)) (*Engine, error) {
	if logf == nil {
		logf = func(format string, args ...any) {
			fmt.Printf(format+"\n", args...)
		}
	}

	e := &Engine{
		Log:      logf,
		LensDir:  lensDir,
		GlobeDir: globeDir,
		SaveDir:  ".",
		pal:      pal,
		rubix:    lensmap.DefaultRubix(),
		renderer: r,
		prevW:    -1,
		prevH:    -1,
	}

	host, err := script.New(e.globe.PlateToRay)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.host = host

	e.globe.SetPalettes(pal.TintTables())
	e.builder = lensmap.New(e.logf)

	return e, nil
}

// logf keeps the builder's sink pointing at the current Log value.
func (e *Engine) logf(format string, args ...any) {
	e.Log(format, args...)
}

func (e *Engine) Close() {
	e.host.Close()
}

// InitDefaults applies the stock configuration: cube globe, panini lens
// at 180 degrees, standard rubix grid.
func (e *Engine) InitDefaults() {
	e.Execute("globe cube")
	e.Execute("lens panini")
	e.Execute("hfov 180")
	e.Execute("rubixgrid 10 4 1")
}

// Working reports whether a lens-map build is suspended mid-way.
func (e *Engine) Working() bool { return e.builder.Working }

// Builder exposes the lens-map builder for budget configuration.
func (e *Engine) Builder() *lensmap.Builder { return e.builder }

// Lens and Globe expose subsystem state to tools and tests.
func (e *Engine) Lens() *lens.Lens    { return &e.lens }
func (e *Engine) Globe() *globe.Globe { return &e.globe }

// SetViewAngles updates the camera euler angles in degrees.
func (e *Engine) SetViewAngles(pitch, yaw, roll float64) {
	e.pitch, e.yaw, e.roll = pitch, yaw, roll
}

// RenderView runs one frame against a viewport of the given pixel size:
// change detection, buffer reallocation, lens-map build or resume, plate
// renders, and the final composite into Frame. Returns false when the
// subsystem is disabled.
func (e *Engine) RenderView(width, height int) bool {
	if !e.Enabled {
		return false
	}

	e.lens.WidthPx = width
	e.lens.HeightPx = height
	platesize := min(width, height)
	area := width * height
	sizechange := e.prevW != width || e.prevH != height

	if sizechange {
		e.globe.AllocPixels(platesize)
		e.lens.Pixels = make([]int32, area)
		e.lens.Tints = make([]uint8, area)
		e.Frame = make([]uint8, area)
	}

	if sizechange || e.fov.Changed || e.lens.Changed || e.globe.Changed {
		for i := range e.lens.Pixels {
			e.lens.Pixels[i] = -1
		}
		for i := range e.lens.Tints {
			e.lens.Tints[i] = lens.NoTint
		}

		// Reload the lens so globals derived from the globe (numplates)
		// re-evaluate before the build.
		if e.lens.Name != "" {
			if err := e.lens.Load(e.host, e.lensPath(e.lens.Name), e.globe.NumPlates); err != nil {
				e.Log("%v", err)
				e.Log("not a valid lens")
				e.lens.Valid = false
				e.lens.Name = ""
			} else {
				e.lens.Valid = true
			}
		}

		e.createLensmap()
	} else if e.builder.Working {
		e.builder.Resume()
	}

	camF, camR, camU := mathutil.AngleVectors(e.pitch, e.yaw, e.roll)

	for i := 0; i < e.globe.NumPlates; i++ {
		p := &e.globe.Plates[i]
		if !p.Display {
			continue
		}

		// Compose the plate's globe-local frame with the camera basis.
		r := mathutil.Vec3{}.
			MulAdd(p.Right[0], camR).MulAdd(p.Right[1], camU).MulAdd(p.Right[2], camF)
		u := mathutil.Vec3{}.
			MulAdd(p.Up[0], camR).MulAdd(p.Up[1], camU).MulAdd(p.Up[2], camF)
		f := mathutil.Vec3{}.
			MulAdd(p.Forward[0], camR).MulAdd(p.Forward[1], camU).MulAdd(p.Forward[2], camF)

		e.renderer.RenderPlate(f, r, u, p.FOV, platesize, e.globe.PlatePixels(i))
	}

	if e.save.pending {
		e.saveGlobe()
	}

	e.composite()

	e.prevW, e.prevH = width, height
	e.lens.Changed = false
	e.globe.Changed = false
	e.fov.Changed = false

	return true
}

// createLensmap validates the pair and starts a fresh build.
func (e *Engine) createLensmap() {
	e.builder.Working = false

	if !e.lens.Valid || !e.globe.Valid {
		return
	}

	if err := lens.DetermineScale(e.host, &e.lens, &e.fov); err != nil {
		e.Log("%v", err)
		return
	}

	e.builder.Start(e.host, &e.globe, &e.lens, e.rubix)
}

// composite blits the lens-map onto the frame: tile background where no
// ray lands, otherwise the mapped globe texel, tinted when the rubix
// overlay is on. An invalid lens leaves the whole viewport as background.
func (e *Engine) composite() {
	for i := range e.Frame {
		e.Frame[i] = 0
	}
	if !e.lens.Valid {
		return
	}

	for i, off := range e.lens.Pixels {
		if off < 0 {
			continue
		}
		col := e.globe.Pixels[off]
		if e.rubix.Enabled {
			if t := e.lens.Tints[i]; t != lens.NoTint {
				col = e.globe.Plates[t].Palette[col]
			}
		}
		e.Frame[i] = col
	}
}
