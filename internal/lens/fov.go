package lens

import (
	"fmt"
	"math"

	"fisheye-renderer/internal/mathutil"
	"fisheye-renderer/internal/script"
)

// Axis names the screen dimension an explicit FOV request applies to.
type Axis int

const (
	AxisNone Axis = iota
	AxisWidth
	AxisHeight
)

// FOVState is the exclusive zoom mode: an explicit horizontal or vertical
// FOV, or one of the fit modes. Setting any mode clears the others.
type FOVState struct {
	// FOV is the explicit request in radians; 0 when a fit mode is active.
	FOV float64
	// HFOVDeg and VFOVDeg remember the request in degrees for config
	// persistence; at most one is nonzero.
	HFOVDeg, VFOVDeg float64

	Fit, HFit, VFit bool

	Axis Axis

	// Changed is set whenever the mode switches, triggering a rebuild.
	Changed bool
}

func (f *FOVState) clear() {
	*f = FOVState{Changed: true}
}

func (f *FOVState) SetHFOV(deg float64) {
	f.clear()
	f.HFOVDeg = deg
	f.FOV = deg * math.Pi / 180
	f.Axis = AxisWidth
}

func (f *FOVState) SetVFOV(deg float64) {
	f.clear()
	f.VFOVDeg = deg
	f.FOV = deg * math.Pi / 180
	f.Axis = AxisHeight
}

func (f *FOVState) SetHFit() { f.clear(); f.HFit = true }
func (f *FOVState) SetVFit() { f.clear(); f.VFit = true }
func (f *FOVState) SetFit()  { f.clear(); f.Fit = true }

// DetermineScale computes the lens scale for the current mode, leaving
// l.Scale <= 0 and returning an error when the mode is infeasible for
// this lens.
func DetermineScale(h *script.Host, l *Lens, f *FOVState) error {
	l.Scale = -1

	if !f.Fit && !f.HFit && !f.VFit {
		if err := scaleFromFOV(h, l, f); err != nil {
			return err
		}
	} else if err := scaleFromFit(l, f); err != nil {
		return err
	}

	if l.Scale <= 0 {
		return fmt.Errorf("lens scale %f is <= 0", l.Scale)
	}
	return nil
}

func scaleFromFOV(h *script.Host, l *Lens, f *FOVState) error {
	if l.MaxHFOV <= 0 || l.MaxVFOV <= 0 {
		return fmt.Errorf("max_hfov & max_vfov not specified, try \"fit\"")
	}

	var framesize int
	switch f.Axis {
	case AxisWidth:
		if f.FOV > l.MaxHFOV {
			return fmt.Errorf("hfov must be less than %d", int(l.MaxHFOV*180/math.Pi))
		}
		framesize = l.WidthPx
	case AxisHeight:
		if f.FOV > l.MaxVFOV {
			return fmt.Errorf("vfov must be less than %d", int(l.MaxVFOV*180/math.Pi))
		}
		framesize = l.HeightPx
	default:
		return fmt.Errorf("no fov or fit mode active")
	}

	if l.Forward == nil {
		return fmt.Errorf("please specify a forward mapping function in your script for FOV scaling")
	}

	// Probe the forward map at the half-FOV extreme along the chosen
	// axis; the probe's lens coordinate fixes units-per-pixel.
	var ray mathutil.Vec3
	if f.Axis == AxisWidth {
		ray = mathutil.LatLonToRay(0, f.FOV*0.5)
	} else {
		ray = mathutil.LatLonToRay(f.FOV*0.5, 0)
	}

	x, y, ok, err := h.CallForward(l.Forward, ray)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lens_forward did not return a value for determining FOV scale")
	}

	if f.Axis == AxisWidth {
		l.Scale = math.Abs(x) / (float64(framesize) * 0.5)
	} else {
		l.Scale = math.Abs(y) / (float64(framesize) * 0.5)
	}
	return nil
}

func scaleFromFit(l *Lens, f *FOVState) error {
	switch {
	case f.HFit:
		if l.Width <= 0 {
			return fmt.Errorf("lens_width not specified. Try hfov instead")
		}
		l.Scale = l.Width / float64(l.WidthPx)

	case f.VFit:
		if l.Height <= 0 {
			return fmt.Errorf("lens_height not specified. Try vfov instead")
		}
		l.Scale = l.Height / float64(l.HeightPx)

	case f.Fit:
		switch {
		case l.Width <= 0 && l.Height > 0:
			l.Scale = l.Height / float64(l.HeightPx)
		case l.Height <= 0 && l.Width > 0:
			l.Scale = l.Width / float64(l.WidthPx)
		case l.Width <= 0 && l.Height <= 0:
			return fmt.Errorf("lens_width and lens_height not specified. Try hfov instead")
		case l.Width/l.Height > float64(l.WidthPx)/float64(l.HeightPx):
			l.Scale = l.Width / float64(l.WidthPx)
		default:
			l.Scale = l.Height / float64(l.HeightPx)
		}
	}
	return nil
}
