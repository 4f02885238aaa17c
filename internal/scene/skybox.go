package scene

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	_ "github.com/ftrvxmtrx/tga"
	xdraw "golang.org/x/image/draw"

	"fisheye-renderer/internal/mathutil"
	"fisheye-renderer/internal/palette"
)

// faceEdge is the resampled edge size of each skybox face.
const faceEdge = 256

// skybox face frames, cube-globe order: front, right, left, back, top,
// bottom.
var faceFrames = [6]struct {
	name               string
	forward, right, up mathutil.Vec3
}{
	{"front", mathutil.Vec3{0, 0, 1}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0}},
	{"right", mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, -1}, mathutil.Vec3{0, 1, 0}},
	{"left", mathutil.Vec3{-1, 0, 0}, mathutil.Vec3{0, 0, 1}, mathutil.Vec3{0, 1, 0}},
	{"back", mathutil.Vec3{0, 0, -1}, mathutil.Vec3{-1, 0, 0}, mathutil.Vec3{0, 1, 0}},
	{"top", mathutil.Vec3{0, 1, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, -1}},
	{"bottom", mathutil.Vec3{0, -1, 0}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 0, 1}},
}

// Skybox renders perspective views of six environment textures, loaded
// from <dir>/<face>.tga.
type Skybox struct {
	faces [6]*image.NRGBA
	q     *palette.Quantizer
}

// LoadSkybox reads and resamples the six face textures.
func LoadSkybox(dir string, pal palette.Palette) (*Skybox, error) {
	s := &Skybox{q: palette.NewQuantizer(pal)}

	for i, f := range faceFrames {
		img, err := loadFace(filepath.Join(dir, f.name+".tga"))
		if err != nil {
			return nil, err
		}
		s.faces[i] = img
	}
	return s, nil
}

func loadFace(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: skybox: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scene: skybox: decode %s: %w", path, err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, faceEdge, faceEdge))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// RenderPlate draws the perspective view along the given camera frame by
// sampling the skybox per pixel.
func (s *Skybox) RenderPlate(forward, right, up mathutil.Vec3, fov float64, size int, dst []uint8) {
	dist := 0.5 / math.Tan(fov/2)

	for y := 0; y < size; y++ {
		v := (float64(y) + 0.5) / float64(size)
		for x := 0; x < size; x++ {
			u := (float64(x) + 0.5) / float64(size)

			ray := mathutil.Vec3{}.
				MulAdd(dist, forward).
				MulAdd(u-0.5, right).
				MulAdd(0.5-v, up).
				Normalize()

			dst[y*size+x] = s.sample(ray)
		}
	}
}

func (s *Skybox) sample(ray mathutil.Vec3) uint8 {
	// Dominant-axis face selection, then the standard plate projection
	// at 90 degrees (dist 0.5).
	face := 0
	maxDot := -2.0
	for i, f := range faceFrames {
		if dp := ray.Dot(f.forward); dp > maxDot {
			maxDot = dp
			face = i
		}
	}

	f := faceFrames[face]
	z := ray.Dot(f.forward)
	fu := ray.Dot(f.right)/z*0.5 + 0.5
	fv := -ray.Dot(f.up)/z*0.5 + 0.5

	px := clampInt(int(fu*faceEdge), 0, faceEdge-1)
	py := clampInt(int(fv*faceEdge), 0, faceEdge-1)

	img := s.faces[face]
	i := img.PixOffset(px, py)
	return s.q.Index(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
