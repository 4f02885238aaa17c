package mathutil

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestLatLonToRayUnit(t *testing.T) {
	for lat := -1.5; lat <= 1.5; lat += 0.25 {
		for lon := -3.0; lon <= 3.0; lon += 0.25 {
			ray := LatLonToRay(lat, lon)
			if d := math.Abs(ray.Len() - 1); d > eps {
				t.Fatalf("latlon(%f,%f): |ray| = %f", lat, lon, ray.Len())
			}
		}
	}
}

func TestLatLonRoundTrip(t *testing.T) {
	for lat := -1.5; lat <= 1.5; lat += 0.3 {
		for lon := -3.1; lon <= 3.1; lon += 0.3 {
			gotLat, gotLon := RayToLatLon(LatLonToRay(lat, lon))
			if math.Abs(gotLat-lat) > eps || math.Abs(gotLon-lon) > eps {
				t.Fatalf("round trip (%f,%f) = (%f,%f)", lat, lon, gotLat, gotLon)
			}
		}
	}
}

func TestLatLonAxes(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     Vec3
	}{
		{0, 0, Vec3{0, 0, 1}},
		{0, math.Pi / 2, Vec3{1, 0, 0}},
		{0, -math.Pi / 2, Vec3{-1, 0, 0}},
		{math.Pi / 2, 0, Vec3{0, 1, 0}},
		{-math.Pi / 2, 0, Vec3{0, -1, 0}},
	}
	for _, tt := range tests {
		got := LatLonToRay(tt.lat, tt.lon)
		if got.Sub(tt.want).Len() > eps {
			t.Errorf("latlon(%f,%f) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestAngleVectorsOrthonormal(t *testing.T) {
	angles := [][3]float64{
		{0, 0, 0}, {30, 0, 0}, {0, 90, 0}, {0, 0, 45}, {10, 215, -20},
	}
	for _, a := range angles {
		f, r, u := AngleVectors(a[0], a[1], a[2])
		for name, v := range map[string]Vec3{"forward": f, "right": r, "up": u} {
			if d := math.Abs(v.Len() - 1); d > eps {
				t.Errorf("angles %v: |%s| = %f", a, name, v.Len())
			}
		}
		if d := math.Abs(f.Dot(r)); d > eps {
			t.Errorf("angles %v: forward.right = %g", a, f.Dot(r))
		}
		if d := math.Abs(f.Dot(u)); d > eps {
			t.Errorf("angles %v: forward.up = %g", a, f.Dot(u))
		}
		// right-handed: up x forward = right
		if got := u.Cross(f); got.Sub(r).Len() > eps {
			t.Errorf("angles %v: up x forward = %v, want right %v", a, got, r)
		}
	}
}

func TestAngleVectorsIdentity(t *testing.T) {
	f, r, u := AngleVectors(0, 0, 0)
	if f.Sub(Vec3{0, 0, 1}).Len() > eps || r.Sub(Vec3{1, 0, 0}).Len() > eps || u.Sub(Vec3{0, 1, 0}).Len() > eps {
		t.Fatalf("identity basis = %v %v %v", f, r, u)
	}
}

func TestMulAdd(t *testing.T) {
	got := Vec3{1, 2, 3}.MulAdd(2, Vec3{1, 0, -1})
	if got != (Vec3{3, 2, 1}) {
		t.Fatalf("MulAdd = %v", got)
	}
}
