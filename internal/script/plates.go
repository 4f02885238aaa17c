package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// MaxPlates is the hard cap on globe faces.
const MaxPlates = 6

// PlateSpec is one entry of a globe script's plates array, as written:
// {forward, up, fov_degrees}. Vectors are copied as given; the globe
// derives the orthogonal frame.
type PlateSpec struct {
	Forward [3]float64
	Up      [3]float64
	FOVDeg  float64
}

// Plates reads and validates the global plates array.
func (h *Host) Plates() ([]PlateSpec, error) {
	tbl, ok := h.l.GetGlobal("plates").(*lua.LTable)
	if !ok || tbl.Len() < 1 {
		return nil, fmt.Errorf("plates must be an array of one or more elements")
	}
	if tbl.Len() > MaxPlates {
		return nil, fmt.Errorf("plates must have at most %d elements", MaxPlates)
	}

	specs := make([]PlateSpec, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		plate, ok := h.l.RawGetInt(tbl, i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("plate %d: not a table", i)
		}

		var spec PlateSpec
		if err := readVec(h.l, plate, 1, &spec.Forward); err != nil {
			return nil, fmt.Errorf("plate %d: forward vector %w", i, err)
		}
		if err := readVec(h.l, plate, 2, &spec.Up); err != nil {
			return nil, fmt.Errorf("plate %d: up vector %w", i, err)
		}

		fov, ok := h.l.RawGetInt(plate, 3).(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("plate %d: fov not a number", i)
		}
		spec.FOVDeg = float64(fov)
		if spec.FOVDeg <= 0 || spec.FOVDeg >= 180 {
			return nil, fmt.Errorf("plate %d: fov must be in (0,180)", i)
		}

		specs[i-1] = spec
	}
	return specs, nil
}

func readVec(l *lua.LState, plate *lua.LTable, idx int, out *[3]float64) error {
	vec, ok := l.RawGetInt(plate, idx).(*lua.LTable)
	if !ok || vec.Len() != 3 {
		return fmt.Errorf("is not a 3d vector")
	}
	for j := 1; j <= 3; j++ {
		n, ok := l.RawGetInt(vec, j).(lua.LNumber)
		if !ok {
			return fmt.Errorf("element %d not a number", j)
		}
		out[j-1] = float64(n)
	}
	return nil
}
