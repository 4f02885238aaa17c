package mathutil

import "math"

// Sphere convention: +z is forward, +y is up, +x is right.
// Longitude swings around the y axis (east positive), latitude toward +y.

// LatLonToRay converts spherical coordinates (radians) to a unit ray.
func LatLonToRay(lat, lon float64) Vec3 {
	clat := math.Cos(lat)
	return Vec3{
		math.Sin(lon) * clat,
		math.Sin(lat),
		math.Cos(lon) * clat,
	}
}

// RayToLatLon converts a ray to spherical coordinates (radians).
// The ray does not need to be unit length.
func RayToLatLon(ray Vec3) (lat, lon float64) {
	lon = math.Atan2(ray[0], ray[2])
	lat = math.Atan2(ray[1], math.Sqrt(ray[0]*ray[0]+ray[2]*ray[2]))
	return lat, lon
}

// AngleVectors derives the view basis from euler view angles in degrees
// (pitch, yaw, roll), matching the host renderer's camera convention.
func AngleVectors(pitch, yaw, roll float64) (forward, right, up Vec3) {
	p := pitch * math.Pi / 180
	y := yaw * math.Pi / 180
	r := roll * math.Pi / 180

	sp, cp := math.Sin(p), math.Cos(p)
	sy, cy := math.Sin(y), math.Cos(y)
	sr, cr := math.Sin(r), math.Cos(r)

	forward = Vec3{cp * sy, -sp, cp * cy}
	right = Vec3{
		-sr*sp*sy + cr*cy,
		-sr*cp,
		-sr*sp*cy - cr*sy,
	}
	up = Vec3{
		cr*sp*sy + sr*cy,
		cr * cp,
		cr*sp*cy - sr*sy,
	}
	return forward, right, up
}
