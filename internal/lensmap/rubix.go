package lensmap

import "math"

// Rubix is the geometry of the diagnostic grid overlay. A plate is split
// into numcells tinted cells of cell_size units, separated and framed by
// pad_size units of untinted grid line.
type Rubix struct {
	Enabled  bool
	NumCells int
	CellSize float64
	PadSize  float64
}

// DefaultRubix is the stock overlay geometry: 10 cells of 4 units with 1
// unit of padding.
func DefaultRubix() Rubix {
	return Rubix{NumCells: 10, CellSize: 4, PadSize: 1}
}

// onGrid reports whether a plate pixel lies on a grid line, in which case
// its tint entry stays at NoTint.
func (r Rubix) onGrid(px, py, platesize int) bool {
	block := r.PadSize + r.CellSize
	numUnits := float64(r.NumCells)*block + r.PadSize
	unitPx := float64(platesize) / numUnits

	ux := float64(px) / unitPx
	uy := float64(py) / unitPx

	return math.Mod(ux, block) < r.PadSize || math.Mod(uy, block) < r.PadSize
}
