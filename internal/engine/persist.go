package engine

import (
	"fmt"
	"io"
)

// WriteConfig emits the commands that restore the current state, in the
// order the host's config writer expects: the active zoom mode first,
// then the toggle, scripts, and overlay geometry.
func (e *Engine) WriteConfig(w io.Writer) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	switch {
	case e.fov.HFOVDeg != 0:
		p("hfov %f\n", e.fov.HFOVDeg)
	case e.fov.VFOVDeg != 0:
		p("vfov %f\n", e.fov.VFOVDeg)
	case e.fov.HFit:
		p("hfit\n")
	case e.fov.VFit:
		p("vfit\n")
	case e.fov.Fit:
		p("fit\n")
	}

	p("fisheye %d\n", boolInt(e.Enabled))
	p("lens \"%s\"\n", e.lens.Name)
	p("globe \"%s\"\n", e.globe.Name)
	p("rubixgrid %d %f %f\n", e.rubix.NumCells, e.rubix.CellSize, e.rubix.PadSize)

	if err != nil {
		return fmt.Errorf("engine: write config: %w", err)
	}
	return nil
}
