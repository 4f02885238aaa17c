package script

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fisheye-renderer/internal/mathutil"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	h, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return h
}

func loadScript(t *testing.T, h *Host, src string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	if err := h.LoadFile(path); err != nil {
		t.Fatal(err)
	}
}

func TestMathAliases(t *testing.T) {
	h := newTestHost(t)
	loadScript(t, h, `
x = cos(0) + sin(0) + atan2(0, 1) + pow(2, 3) + log10(100)
y = tau / pi
`)
	if x, ok := h.Number("x"); !ok || math.Abs(x-11) > 1e-12 {
		t.Fatalf("x = %f, %v", x, ok)
	}
	if y, ok := h.Number("y"); !ok || math.Abs(y-2) > 1e-12 {
		t.Fatalf("y = %f, %v", y, ok)
	}
}

func TestHelpersFromScript(t *testing.T) {
	h := newTestHost(t)
	loadScript(t, h, `
rx, ry, rz = latlon_to_ray(0, pi/2)
lat, lon = ray_to_latlon(1, 0, 0)
`)
	rx, _ := h.Number("rx")
	rz, _ := h.Number("rz")
	if math.Abs(rx-1) > 1e-12 || math.Abs(rz) > 1e-12 {
		t.Fatalf("latlon_to_ray(0, pi/2) = (%f, _, %f)", rx, rz)
	}
	lon, _ := h.Number("lon")
	if math.Abs(lon-math.Pi/2) > 1e-12 {
		t.Fatalf("ray_to_latlon(1,0,0) lon = %f", lon)
	}
}

func TestPlateToRayHelper(t *testing.T) {
	h := newTestHost(t)
	h.SetPlateToRay(func(plate int, u, v float64) (mathutil.Vec3, bool) {
		if plate != 0 {
			return mathutil.Vec3{}, false
		}
		return mathutil.Vec3{u, v, 1}, true
	})
	loadScript(t, h, `
ok_x = plate_to_ray(0, 0.25, 0.75)
bad = plate_to_ray(3, 0, 0)
`)
	if x, ok := h.Number("ok_x"); !ok || x != 0.25 {
		t.Fatalf("plate_to_ray x = %f, %v", x, ok)
	}
	if _, ok := h.Number("bad"); ok {
		t.Fatal("out-of-range plate should return nil")
	}
}

func TestCallInverseProtocol(t *testing.T) {
	h := newTestHost(t)
	loadScript(t, h, `
function good(x, y) return x, y, 2 end
function skip(x, y) return nil end
function bad_string(x, y) return "nope" end
function bad_arity(x, y) return x, y end
`)

	ray, ok, err := h.CallInverse(h.Function("good"), 3, 4)
	if err != nil || !ok {
		t.Fatalf("good: ok=%v err=%v", ok, err)
	}
	// (3,4,2) normalized
	if math.Abs(ray.Len()-1) > 1e-12 {
		t.Fatalf("ray not normalized: %v", ray)
	}
	want := mathutil.Vec3{3, 4, 2}.Normalize()
	if ray.Sub(want).Len() > 1e-12 {
		t.Fatalf("ray = %v, want %v", ray, want)
	}

	if _, ok, err := h.CallInverse(h.Function("skip"), 0, 0); ok || err != nil {
		t.Fatalf("skip: ok=%v err=%v", ok, err)
	}

	if _, _, err := h.CallInverse(h.Function("bad_string"), 0, 0); err == nil {
		t.Fatal("string return should be an error")
	}
	if _, _, err := h.CallInverse(h.Function("bad_arity"), 0, 0); err == nil {
		t.Fatal("2-value return should be an error")
	} else if !strings.Contains(err.Error(), "2 values instead of 3") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCallForwardProtocol(t *testing.T) {
	h := newTestHost(t)
	loadScript(t, h, `
function fwd(x, y, z) return x * 2, y * 2 end
function skip() return nil end
function boom() error("runtime failure") end
`)

	x, y, ok, err := h.CallForward(h.Function("fwd"), mathutil.Vec3{1, -2, 0})
	if err != nil || !ok || x != 2 || y != -4 {
		t.Fatalf("fwd: (%f,%f) ok=%v err=%v", x, y, ok, err)
	}

	if _, _, ok, err := h.CallForward(h.Function("skip"), mathutil.Vec3{}); ok || err != nil {
		t.Fatalf("skip: ok=%v err=%v", ok, err)
	}

	if _, _, _, err := h.CallForward(h.Function("boom"), mathutil.Vec3{}); err == nil {
		t.Fatal("runtime error should surface")
	}
}

func TestCallGlobePlate(t *testing.T) {
	h := newTestHost(t)
	loadScript(t, h, `
function pick(x, y, z)
   if z > 0 then return 0 end
   return 3
end
function bad() return "front" end
`)

	if plate, ok := h.CallGlobePlate(h.Function("pick"), mathutil.Vec3{0, 0, 1}); !ok || plate != 0 {
		t.Fatalf("pick(+z) = %d, %v", plate, ok)
	}
	if plate, ok := h.CallGlobePlate(h.Function("pick"), mathutil.Vec3{0, 0, -1}); !ok || plate != 3 {
		t.Fatalf("pick(-z) = %d, %v", plate, ok)
	}
	if _, ok := h.CallGlobePlate(h.Function("bad"), mathutil.Vec3{}); ok {
		t.Fatal("non-number return should not be ok")
	}
}

func TestLoadFileError(t *testing.T) {
	h := newTestHost(t)
	if err := h.LoadFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Fatal("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "broken.lua")
	os.WriteFile(path, []byte("this is not lua ("), 0644)
	if err := h.LoadFile(path); err == nil {
		t.Fatal("syntax error should surface")
	}
}

func TestClearGlobals(t *testing.T) {
	h := newTestHost(t)
	loadScript(t, h, `lens_width = 5`)
	if _, ok := h.Number("lens_width"); !ok {
		t.Fatal("lens_width should be set")
	}
	h.ClearGlobals("lens_width")
	if _, ok := h.Number("lens_width"); ok {
		t.Fatal("lens_width should be cleared")
	}
}

func TestPlatesValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // substring of the error, empty for success
	}{
		{"valid", `plates = {{{0,0,1},{0,1,0},90}}`, ""},
		{"missing", `x = 1`, "one or more"},
		{"empty", `plates = {}`, "one or more"},
		{"too many", `plates = {
			{{0,0,1},{0,1,0},90},{{0,0,1},{0,1,0},90},{{0,0,1},{0,1,0},90},
			{{0,0,1},{0,1,0},90},{{0,0,1},{0,1,0},90},{{0,0,1},{0,1,0},90},
			{{0,0,1},{0,1,0},90}}`, "at most"},
		{"bad forward", `plates = {{{0,0},{0,1,0},90}}`, "forward vector"},
		{"bad element", `plates = {{{0,"x",1},{0,1,0},90}}`, "element 2"},
		{"bad up", `plates = {{{0,0,1},5,90}}`, "up vector"},
		{"bad fov", `plates = {{{0,0,1},{0,1,0},"wide"}}`, "fov not a number"},
		{"zero fov", `plates = {{{0,0,1},{0,1,0},0}}`, "fov must be"},
		{"fov too wide", `plates = {{{0,0,1},{0,1,0},190}}`, "fov must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHost(t)
			loadScript(t, h, tt.src)
			specs, err := h.Plates()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(specs) != 1 || specs[0].FOVDeg != 90 {
					t.Fatalf("specs = %+v", specs)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %v, want substring %q", err, tt.want)
			}
		})
	}
}
