// Package lens models the scripted 2D projection between screen pixels
// and direction rays, and the scale that fits it to the viewport.
package lens

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"fisheye-renderer/internal/script"
)

// MapType selects which scripted direction drives the lens-map build.
type MapType int

const (
	MapNone MapType = iota
	MapInverse
	MapForward
)

// Lens holds the parameters of the current lens script plus the lens-map
// arrays the compositor reads.
type Lens struct {
	Name    string
	Valid   bool
	Changed bool

	MapType MapType

	// Width and Height are the lens domain extents in lens units,
	// 0 when the script leaves them out.
	Width, Height float64

	// MaxHFOV and MaxVFOV bound explicit FOV requests, radians.
	MaxHFOV, MaxVFOV float64

	// Scale is lens units per output pixel; the map is usable only when
	// it is positive.
	Scale float64

	// WidthPx and HeightPx are the output viewport in pixels.
	WidthPx, HeightPx int

	// Pixels maps each output pixel to an offset into the globe pixel
	// buffer, -1 when no ray lands there.
	Pixels []int32

	// Tints holds a plate index per output pixel for the rubix overlay,
	// 255 for none.
	Tints []uint8

	// Inverse and Forward are the script's projection functions; either
	// may be nil.
	Inverse *lua.LFunction
	Forward *lua.LFunction

	// OnLoad is a console command executed after an explicit lens load.
	OnLoad string
}

// NoTint is the Tints entry meaning "leave the pixel color alone".
const NoTint = 255

// Load re-reads the lens script. numplates is exposed to the script
// before it runs so extents may derive from the globe. On error the
// caller marks the lens invalid.
func (l *Lens) Load(h *script.Host, path string, numplates int) error {
	h.ClearGlobals("map", "max_hfov", "max_vfov", "lens_width", "lens_height",
		"lens_inverse", "lens_forward", "onload")
	h.SetInt("numplates", numplates)

	if err := h.LoadFile(path); err != nil {
		return err
	}

	l.MapType = MapNone
	l.Inverse = h.Function("lens_inverse")
	l.Forward = h.Function("lens_forward")
	if l.Inverse != nil {
		l.MapType = MapInverse
	} else if l.Forward != nil {
		l.MapType = MapForward
	}

	if name, ok := h.String("map"); ok {
		switch name {
		case "lens_inverse":
			l.MapType = MapInverse
		case "lens_forward":
			l.MapType = MapForward
		default:
			return errUnsupportedMap(name)
		}
	}

	l.MaxHFOV = degGlobal(h, "max_hfov")
	l.MaxVFOV = degGlobal(h, "max_vfov")
	l.Width, _ = h.Number("lens_width")
	l.Height, _ = h.Number("lens_height")
	l.OnLoad, _ = h.String("onload")

	return nil
}

func degGlobal(h *script.Host, name string) float64 {
	deg, _ := h.Number(name)
	return deg * math.Pi / 180
}

type errUnsupportedMap string

func (e errUnsupportedMap) Error() string {
	return "unsupported map function: " + string(e)
}
