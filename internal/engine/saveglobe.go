package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"fisheye-renderer/internal/pcx"
)

// saveGlobe writes every plate as a PCX screenshot. Pixels whose ray
// resolves to a different plate are masked to the margin color unless the
// save was requested with margins, so the files show each plate's Voronoi
// region.
func (e *Engine) saveGlobe() {
	e.save.pending = false

	ps := e.globe.PlateSize
	buf := make([]uint8, ps*ps)

	for i := 0; i < e.globe.NumPlates; i++ {
		src := e.globe.PlatePixels(i)

		for y := 0; y < ps; y++ {
			v := float64(y) / float64(ps)
			for x := 0; x < ps; x++ {
				col := src[y*ps+x]
				if !e.save.withMargins {
					u := float64(x) / float64(ps)
					ray := e.globe.PlateUVToRay(i, u, v)
					if e.globe.RayToPlateIndex(e.host, ray) != i {
						col = marginColor
					}
				}
				buf[y*ps+x] = col
			}
		}

		name := fmt.Sprintf("%s%d.pcx", e.save.name, i)
		if err := e.writePCX(name, buf, ps); err != nil {
			e.Log("%v", err)
			return
		}
		e.Log("Wrote %s", name)
	}
}

func (e *Engine) writePCX(name string, pixels []uint8, size int) error {
	f, err := os.Create(filepath.Join(e.SaveDir, name))
	if err != nil {
		return fmt.Errorf("engine: saveglobe: %w", err)
	}
	defer f.Close()
	return pcx.Encode(f, pixels, size, size, e.pal)
}
