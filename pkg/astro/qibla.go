package astro

// Kaaba coordinates.
const (
	KaabaLatitude  = 21.4225241
	KaabaLongitude = 39.8261818
)

// Qibla returns the initial great-circle bearing from (lat, lon) to the
// Kaaba, in degrees clockwise from true north, in [0, 360).
func Qibla(lat, lon float64) float64 {
	dLon := KaabaLongitude - lon
	y := dsin(dLon)
	x := dcos(lat)*dtan(KaabaLatitude) - dsin(lat)*dcos(dLon)
	return fixAngle(darctan2(y, x))
}
