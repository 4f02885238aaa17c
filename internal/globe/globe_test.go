package globe

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"fisheye-renderer/internal/mathutil"
	"fisheye-renderer/internal/script"
)

const cubeScript = `
plates = {
   { { 0, 0, 1 }, { 0, 1, 0 }, 90 }, -- front
   { { 1, 0, 0 }, { 0, 1, 0 }, 90 }, -- right
   { { -1, 0, 0 }, { 0, 1, 0 }, 90 }, -- left
   { { 0, 0, -1 }, { 0, 1, 0 }, 90 }, -- back
   { { 0, 1, 0 }, { 0, 0, -1 }, 90 }, -- top
   { { 0, -1, 0 }, { 0, 0, 1 }, 90 } -- bottom
}
`

func loadGlobe(t *testing.T, src string) (*Globe, *script.Host) {
	t.Helper()
	g := &Globe{}
	h, err := script.New(g.PlateToRay)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)

	path := filepath.Join(t.TempDir(), "globe.lua")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	if err := g.Load(h, path); err != nil {
		t.Fatal(err)
	}
	g.Valid = true
	return g, h
}

func TestCubeLoad(t *testing.T) {
	g, _ := loadGlobe(t, cubeScript)

	if g.NumPlates != 6 {
		t.Fatalf("NumPlates = %d", g.NumPlates)
	}

	for i := 0; i < g.NumPlates; i++ {
		p := &g.Plates[i]

		if math.Abs(p.FOV-math.Pi/2) > 1e-12 {
			t.Errorf("plate %d: fov = %f", i, p.FOV)
		}
		if math.Abs(p.Dist-0.5) > 1e-12 {
			t.Errorf("plate %d: dist = %f", i, p.Dist)
		}

		// Orthonormal right-handed frame: right = up x forward.
		want := p.Up.Cross(p.Forward)
		if want.Sub(p.Right).Len() > 1e-12 {
			t.Errorf("plate %d: right = %v, want %v", i, p.Right, want)
		}
		for name, v := range map[string]mathutil.Vec3{"forward": p.Forward, "up": p.Up, "right": p.Right} {
			if math.Abs(v.Len()-1) > 1e-12 {
				t.Errorf("plate %d: |%s| = %f", i, name, v.Len())
			}
		}
	}
}

func TestUpReorthogonalized(t *testing.T) {
	// A slightly skewed up vector is corrected against forward.
	g, _ := loadGlobe(t, `plates = {{{0,0,1},{0,0.9701425,0.2425356},90}}`)

	p := &g.Plates[0]
	if d := math.Abs(p.Up.Dot(p.Forward)); d > 1e-6 {
		t.Fatalf("up not orthogonal to forward: %g", d)
	}
}

func TestRayToPlateIndexVoronoi(t *testing.T) {
	g, h := loadGlobe(t, cubeScript)

	tests := []struct {
		ray  mathutil.Vec3
		want int
	}{
		{mathutil.Vec3{0, 0, 1}, 0},
		{mathutil.Vec3{1, 0, 0}, 1},
		{mathutil.Vec3{-1, 0, 0}, 2},
		{mathutil.Vec3{0, 0, -1}, 3},
		{mathutil.Vec3{0, 1, 0}, 4},
		{mathutil.Vec3{0, -1, 0}, 5},
		// Slightly toward the front face wins over right.
		{mathutil.Vec3{0.7, 0, 0.72}.Normalize(), 0},
	}
	for _, tt := range tests {
		if got := g.RayToPlateIndex(h, tt.ray); got != tt.want {
			t.Errorf("RayToPlateIndex(%v) = %d, want %d", tt.ray, got, tt.want)
		}
	}
}

func TestRayToPlateIndexTieLowest(t *testing.T) {
	g, h := loadGlobe(t, cubeScript)
	// Exactly between front and right: the lower index wins.
	ray := mathutil.Vec3{1, 0, 1}.Normalize()
	if got := g.RayToPlateIndex(h, ray); got != 0 {
		t.Fatalf("tie broke to %d, want 0", got)
	}
}

func TestGlobePlateOverride(t *testing.T) {
	g, h := loadGlobe(t, `
plates = {
   { { 0, 0, 1 }, { 0, 1, 0 }, 90 },
   { { 0, 0, 1 }, { 0, 1, 0 }, 160 }
}
function globe_plate(x, y, z)
   if z > 0 and abs(x) < z * 0.85 and abs(y) < z * 0.85 then
      return 0
   end
   return 1
end
`)

	if got := g.RayToPlateIndex(h, mathutil.Vec3{0, 0, 1}); got != 0 {
		t.Fatalf("center ray = plate %d", got)
	}
	if got := g.RayToPlateIndex(h, mathutil.Vec3{1, 0, 0.2}.Normalize()); got != 1 {
		t.Fatalf("edge ray = plate %d", got)
	}
}

func TestGlobePlateNonIntegerResult(t *testing.T) {
	g, h := loadGlobe(t, `
plates = {{{0,0,1},{0,1,0},90}}
function globe_plate(x, y, z) return "front" end
`)
	if got := g.RayToPlateIndex(h, mathutil.Vec3{0, 0, 1}); got != -1 {
		t.Fatalf("misbehaving globe_plate = %d, want -1", got)
	}
}

func TestCenterUV(t *testing.T) {
	g, _ := loadGlobe(t, cubeScript)

	for _, tt := range []struct {
		ray   mathutil.Vec3
		plate int
	}{
		{mathutil.Vec3{0, 0, 1}, 0},
		{mathutil.Vec3{1, 0, 0}, 1},
	} {
		u, v, inside := g.RayToPlateUV(tt.plate, tt.ray)
		if !inside || math.Abs(u-0.5) > 1e-12 || math.Abs(v-0.5) > 1e-12 {
			t.Errorf("plate %d center uv = (%f,%f,%v)", tt.plate, u, v, inside)
		}
	}
}

func TestUVRayRoundTrip(t *testing.T) {
	g, _ := loadGlobe(t, cubeScript)

	for plate := 0; plate < g.NumPlates; plate++ {
		for u := 0.0; u <= 1.0; u += 0.125 {
			for v := 0.0; v <= 1.0; v += 0.125 {
				ray := g.PlateUVToRay(plate, u, v)
				gu, gv, inside := g.RayToPlateUV(plate, ray)
				if !inside {
					t.Fatalf("plate %d (%f,%f): outside", plate, u, v)
				}
				if math.Abs(gu-u) > 1e-9 || math.Abs(gv-v) > 1e-9 {
					t.Fatalf("plate %d (%f,%f) round trip = (%f,%f)", plate, u, v, gu, gv)
				}
			}
		}
	}
}

func TestVAxisInversion(t *testing.T) {
	g, _ := loadGlobe(t, cubeScript)

	// v below center (texture-down) must point below the horizon on the
	// front plate.
	ray := g.PlateUVToRay(0, 0.5, 0.75)
	if ray[1] >= 0 {
		t.Fatalf("v=0.75 ray y = %f, want negative", ray[1])
	}
}

func TestPlateToRayRange(t *testing.T) {
	g, _ := loadGlobe(t, cubeScript)

	if _, ok := g.PlateToRay(-1, 0.5, 0.5); ok {
		t.Fatal("plate -1 should be rejected")
	}
	if _, ok := g.PlateToRay(6, 0.5, 0.5); ok {
		t.Fatal("plate 6 should be rejected")
	}
	if ray, ok := g.PlateToRay(0, 0.5, 0.5); !ok || ray.Sub(mathutil.Vec3{0, 0, 1}).Len() > 1e-12 {
		t.Fatalf("front center ray = %v, %v", ray, ok)
	}
}

func TestPixelOffsets(t *testing.T) {
	g, _ := loadGlobe(t, cubeScript)
	g.AllocPixels(100)

	if len(g.Pixels) != MaxPlates*100*100 {
		t.Fatalf("pixel buffer len = %d", len(g.Pixels))
	}
	if off := g.PixelOffset(2, 3, 4); off != int32(2*10000+4*100+3) {
		t.Fatalf("PixelOffset = %d", off)
	}

	plane := g.PlatePixels(1)
	plane[0] = 42
	if g.Pixels[10000] != 42 {
		t.Fatal("PlatePixels does not alias the buffer")
	}
}

func TestLoadFailureClears(t *testing.T) {
	g := &Globe{}
	h, err := script.New(g.PlateToRay)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	path := filepath.Join(t.TempDir(), "globe.lua")
	os.WriteFile(path, []byte(cubeScript), 0644)
	if err := g.Load(h, path); err != nil {
		t.Fatal(err)
	}
	if g.NumPlates != 6 {
		t.Fatalf("NumPlates = %d", g.NumPlates)
	}

	bad := filepath.Join(t.TempDir(), "bad.lua")
	os.WriteFile(bad, []byte(`plates = "nope"`), 0644)
	if err := g.Load(h, bad); err == nil {
		t.Fatal("bad globe should fail")
	}
	if g.NumPlates != 0 {
		t.Fatalf("NumPlates after failed load = %d", g.NumPlates)
	}
}
