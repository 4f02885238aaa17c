package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"fisheye-renderer/internal/mathutil"
)

// Scripted maps follow one protocol: the right number of numbers on
// success, a single nil to skip the pixel, anything else is an error that
// aborts the current build.

// CallInverse invokes a lens_inverse reference with lens coordinates.
// The returned ray is normalized. ok=false with nil error means skip.
func (h *Host) CallInverse(fn *lua.LFunction, x, y float64) (ray mathutil.Vec3, ok bool, err error) {
	base := h.l.GetTop()
	callErr := h.l.CallByParam(lua.P{Fn: fn, NRet: lua.MultRet, Protect: true},
		lua.LNumber(x), lua.LNumber(y))
	if callErr != nil {
		return mathutil.Vec3{}, false, fmt.Errorf("lens_inverse: %w", callErr)
	}
	n := h.l.GetTop() - base
	defer h.l.SetTop(base)

	switch n {
	case 3:
		for i := 1; i <= 3; i++ {
			num, isNum := h.l.Get(base + i).(lua.LNumber)
			if !isNum {
				return mathutil.Vec3{}, false, fmt.Errorf("lens_inverse returned a non-number value for x,y,z")
			}
			ray[i-1] = float64(num)
		}
		return ray.Normalize(), true, nil
	case 1:
		if h.l.Get(base+1) == lua.LNil {
			return mathutil.Vec3{}, false, nil
		}
		return mathutil.Vec3{}, false, fmt.Errorf("lens_inverse returned a single non-nil value")
	default:
		return mathutil.Vec3{}, false, fmt.Errorf("lens_inverse returned %d values instead of 3", n)
	}
}

// CallForward invokes a lens_forward reference with a world ray.
// ok=false with nil error means skip.
func (h *Host) CallForward(fn *lua.LFunction, ray mathutil.Vec3) (x, y float64, ok bool, err error) {
	base := h.l.GetTop()
	callErr := h.l.CallByParam(lua.P{Fn: fn, NRet: lua.MultRet, Protect: true},
		lua.LNumber(ray[0]), lua.LNumber(ray[1]), lua.LNumber(ray[2]))
	if callErr != nil {
		return 0, 0, false, fmt.Errorf("lens_forward: %w", callErr)
	}
	n := h.l.GetTop() - base
	defer h.l.SetTop(base)

	switch n {
	case 2:
		xn, xok := h.l.Get(base + 1).(lua.LNumber)
		yn, yok := h.l.Get(base + 2).(lua.LNumber)
		if !xok || !yok {
			return 0, 0, false, fmt.Errorf("lens_forward returned a non-number value for x,y")
		}
		return float64(xn), float64(yn), true, nil
	case 1:
		if h.l.Get(base+1) == lua.LNil {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("lens_forward returned a single non-nil value")
	default:
		return 0, 0, false, fmt.Errorf("lens_forward returned %d values instead of 2", n)
	}
}

// CallGlobePlate invokes a globe_plate reference. ok=false when the script
// fails or returns a non-number; the caller treats that as "no plate".
func (h *Host) CallGlobePlate(fn *lua.LFunction, ray mathutil.Vec3) (plate int, ok bool) {
	base := h.l.GetTop()
	callErr := h.l.CallByParam(lua.P{Fn: fn, NRet: lua.MultRet, Protect: true},
		lua.LNumber(ray[0]), lua.LNumber(ray[1]), lua.LNumber(ray[2]))
	if callErr != nil {
		return 0, false
	}
	n := h.l.GetTop() - base
	defer h.l.SetTop(base)

	if n < 1 {
		return 0, false
	}
	num, isNum := h.l.Get(base + n).(lua.LNumber)
	if !isNum {
		return 0, false
	}
	return int(num), true
}
