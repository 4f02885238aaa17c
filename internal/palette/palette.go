package palette

import (
	"fmt"
	"io"
)

// Palette is a 256-entry RGB color table, the host renderer's active
// palette. All composited buffers hold indexes into it.
type Palette [256][3]uint8

// NumTints is the number of distinct plate tints (one per possible plate).
const NumTints = 6

// Default returns a built-in palette so the subsystem can run and be
// tested without game data: a 6x6x6 color cube at 16..231 framed by 16
// primary entries and a 24-step gray ramp, xterm style.
func Default() Palette {
	var p Palette

	base := [16][3]uint8{
		{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
		{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
		{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	copy(p[:16], base[:])

	levels := [6]uint8{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = [3]uint8{levels[r], levels[g], levels[b]}
				i++
			}
		}
	}

	for g := 0; g < 24; g++ {
		v := uint8(8 + g*10)
		p[i] = [3]uint8{v, v, v}
		i++
	}

	return p
}

// ClosestIndex finds the palette entry nearest to an RGB color by squared
// distance. Ties go to the lowest index.
func (p Palette) ClosestIndex(r, g, b int) int {
	minDist := 256 * 256 * 256
	minIndex := 0
	for i := 0; i < 256; i++ {
		dr := int(p[i][0]) - r
		dg := int(p[i][1]) - g
		db := int(p[i][2]) - b
		dist := dr*dr + dg*dg + db*db
		if dist < minDist {
			minDist = dist
			minIndex = i
		}
	}
	return minIndex
}

// tints are the six fixed plate overlay hues, in plate order:
// white, blue, red, yellow, magenta, cyan.
var tints = [NumTints][3]int{
	{255, 255, 255},
	{0, 0, 255},
	{255, 0, 0},
	{255, 255, 0},
	{255, 0, 255},
	{0, 255, 255},
}

// TintTables builds one 256->256 remap table per plate slot, shifting each
// palette color 1/6 of the way toward the slot's hue and snapping back to
// the nearest palette entry.
func (p Palette) TintTables() [NumTints][256]uint8 {
	var tables [NumTints][256]uint8
	percent := 256 / NumTints

	for j := 0; j < NumTints; j++ {
		tint := tints[j]
		for i := 0; i < 256; i++ {
			r := int(p[i][0])
			g := int(p[i][1])
			b := int(p[i][2])

			r += percent * (tint[0] - r) >> 8
			g += percent * (tint[1] - g) >> 8
			b += percent * (tint[2] - b) >> 8

			tables[j][i] = uint8(p.ClosestIndex(clamp(r), clamp(g), clamp(b)))
		}
	}
	return tables
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Dump writes the palette as "r, g, b," lines, the dumppal output format.
func (p Palette) Dump(w io.Writer) error {
	for i := 0; i < 256; i++ {
		if _, err := fmt.Fprintf(w, "%d, %d, %d,\n", p[i][0], p[i][1], p[i][2]); err != nil {
			return fmt.Errorf("palette: dump: %w", err)
		}
	}
	return nil
}
