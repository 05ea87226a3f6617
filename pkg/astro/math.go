package astro

import "math"

func dtr(d float64) float64 { return d * math.Pi / 180 }
func rtd(r float64) float64 { return r * 180 / math.Pi }

func dsin(d float64) float64 { return math.Sin(dtr(d)) }
func dcos(d float64) float64 { return math.Cos(dtr(d)) }
func dtan(d float64) float64 { return math.Tan(dtr(d)) }

func darcsin(x float64) float64     { return rtd(math.Asin(x)) }
func darccos(x float64) float64     { return rtd(math.Acos(x)) }
func darctan2(y, x float64) float64 { return rtd(math.Atan2(y, x)) }
func darccot(x float64) float64     { return rtd(math.Atan(1 / x)) }

func fix(a, b float64) float64 {
	a = a - b*math.Floor(a/b)
	if a < 0 {
		return a + b
	}
	return a
}

func fixAngle(a float64) float64 { return fix(a, 360) }
func fixHour(a float64) float64  { return fix(a, 24) }

// julianDate returns the Julian day number at 0h UT of the civil date.
func julianDate(year int, month int, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + float64(day) + b - 1524.5
}

// sunPosition returns the declination (degrees) and the equation of time
// (hours) for the given Julian date.
func sunPosition(jd float64) (decl, eqt float64) {
	d := jd - 2451545.0
	g := fixAngle(357.529 + 0.98560028*d)
	q := fixAngle(280.459 + 0.98564736*d)
	l := fixAngle(q + 1.915*dsin(g) + 0.020*dsin(2*g))
	e := 23.439 - 0.00000036*d

	ra := darctan2(dcos(e)*dsin(l), dcos(l)) / 15
	eqt = q/15 - fixHour(ra)
	decl = darcsin(dsin(e) * dsin(l))
	return decl, eqt
}
