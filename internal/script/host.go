package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"fisheye-renderer/internal/mathutil"
)

// Host embeds the Lua interpreter that lens and globe scripts run in.
// Projection functions are resolved to references once at load time so the
// per-pixel call shims never do a name lookup.
type Host struct {
	l *lua.LState

	// plateToRay resolves the plate_to_ray helper against the current
	// globe. Returns ok=false when the plate index is out of range.
	plateToRay func(plate int, u, v float64) (mathutil.Vec3, bool)
}

// aliases are bound into the global environment before any user script
// runs, so projection formulas read like plain math.
const aliases = `
cos = math.cos
sin = math.sin
tan = math.tan
asin = math.asin
acos = math.acos
atan = math.atan
atan2 = math.atan2
sinh = math.sinh
cosh = math.cosh
tanh = math.tanh
log = math.log
log10 = math.log10
abs = math.abs
sqrt = math.sqrt
exp = math.exp
pi = math.pi
tau = math.pi*2
pow = math.pow
`

// New creates a Lua state with the math aliases and conversion helpers
// registered. plateToRay may be nil until a globe exists.
func New(plateToRay func(plate int, u, v float64) (mathutil.Vec3, bool)) (*Host, error) {
	h := &Host{
		l:          lua.NewState(),
		plateToRay: plateToRay,
	}

	if err := h.l.DoString(aliases); err != nil {
		h.l.Close()
		return nil, fmt.Errorf("script: aliases: %w", err)
	}

	h.l.SetGlobal("latlon_to_ray", h.l.NewFunction(func(L *lua.LState) int {
		lat := float64(L.CheckNumber(1))
		lon := float64(L.CheckNumber(2))
		ray := mathutil.LatLonToRay(lat, lon)
		L.Push(lua.LNumber(ray[0]))
		L.Push(lua.LNumber(ray[1]))
		L.Push(lua.LNumber(ray[2]))
		return 3
	}))

	h.l.SetGlobal("ray_to_latlon", h.l.NewFunction(func(L *lua.LState) int {
		ray := mathutil.Vec3{
			float64(L.CheckNumber(1)),
			float64(L.CheckNumber(2)),
			float64(L.CheckNumber(3)),
		}
		lat, lon := mathutil.RayToLatLon(ray)
		L.Push(lua.LNumber(lat))
		L.Push(lua.LNumber(lon))
		return 2
	}))

	h.l.SetGlobal("plate_to_ray", h.l.NewFunction(func(L *lua.LState) int {
		plate := int(L.CheckNumber(1))
		u := float64(L.CheckNumber(2))
		v := float64(L.CheckNumber(3))
		if h.plateToRay == nil {
			L.Push(lua.LNil)
			return 1
		}
		ray, ok := h.plateToRay(plate, u, v)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(ray[0]))
		L.Push(lua.LNumber(ray[1]))
		L.Push(lua.LNumber(ray[2]))
		return 3
	}))

	return h, nil
}

// SetPlateToRay rebinds the plate_to_ray helper after a globe (re)load.
func (h *Host) SetPlateToRay(fn func(plate int, u, v float64) (mathutil.Vec3, bool)) {
	h.plateToRay = fn
}

func (h *Host) Close() {
	h.l.Close()
}

// LoadFile runs a script file at the global scope.
func (h *Host) LoadFile(path string) error {
	if err := h.l.DoFile(path); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// ClearGlobals sets the named globals to nil.
func (h *Host) ClearGlobals(names ...string) {
	for _, name := range names {
		h.l.SetGlobal(name, lua.LNil)
	}
}

// SetInt defines an integer global visible to subsequently loaded scripts.
func (h *Host) SetInt(name string, v int) {
	h.l.SetGlobal(name, lua.LNumber(v))
}

// Function returns a reference to a global function, or nil if the global
// is absent or not a function.
func (h *Host) Function(name string) *lua.LFunction {
	fn, ok := h.l.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil
	}
	return fn
}

// Number returns a global number if defined.
func (h *Host) Number(name string) (float64, bool) {
	n, ok := h.l.GetGlobal(name).(lua.LNumber)
	if !ok {
		return 0, false
	}
	return float64(n), true
}

// String returns a global string if defined.
func (h *Host) String(name string) (string, bool) {
	s, ok := h.l.GetGlobal(name).(lua.LString)
	if !ok {
		return "", false
	}
	return string(s), true
}
