// Package solar computes sunset, golden hour and sun azimuth using the
// low-precision solar position model. Results are accurate to about a minute
// for mid latitudes; refraction beyond the standard horizon correction and
// local terrain are ignored.
package solar

import (
	"math"
	"time"
)

const (
	rad    = math.Pi / 180
	dayMs  = 86400000.0
	j1970  = 2440588.0
	j2000  = 2451545.0
	obliq  = rad * 23.4397
	j0     = 0.0009
	perihl = 102.9372
)

// Elevation angles (degrees) for the events we care about.
const (
	SunsetAltitude     = -0.833
	GoldenHourAltitude = 6.0
)

// SunTimes holds the evening events for one date. A zero time means the sun
// never crosses that elevation on the date (polar day or night).
type SunTimes struct {
	Sunset     time.Time
	GoldenHour time.Time
}

// Times returns the sunset and golden-hour instants for the date nearest t.
// Callers should anchor t at local noon.
func Times(t time.Time, lat, lng float64) SunTimes {
	lw := rad * -lng
	phi := rad * lat
	d := toDays(t)

	n := julianCycle(d, lw)
	ds := approxTransit(0, lw, n)

	m := solarMeanAnomaly(ds)
	l := eclipticLongitude(m)
	dec := declination(l, 0)

	return SunTimes{
		Sunset:     fromJulian(setJ(SunsetAltitude*rad, lw, phi, dec, n, m, l)),
		GoldenHour: fromJulian(setJ(GoldenHourAltitude*rad, lw, phi, dec, n, m, l)),
	}
}

// Azimuth returns the sun's compass bearing in degrees (0 = north, clockwise)
// at instant t.
func Azimuth(t time.Time, lat, lng float64) float64 {
	lw := rad * -lng
	phi := rad * lat
	d := toDays(t)

	m := solarMeanAnomaly(d)
	l := eclipticLongitude(m)
	dec := declination(l, 0)
	ra := rightAscension(l, 0)

	h := siderealTime(d, lw) - ra
	az := math.Atan2(math.Sin(h), math.Cos(h)*math.Sin(phi)-math.Tan(dec)*math.Cos(phi))
	return az/rad + 180
}

func toJulian(t time.Time) float64 {
	return float64(t.UnixMilli())/dayMs - 0.5 + j1970
}

func fromJulian(j float64) time.Time {
	if math.IsNaN(j) || math.IsInf(j, 0) {
		return time.Time{}
	}
	ms := (j + 0.5 - j1970) * dayMs
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

func toDays(t time.Time) float64 {
	return toJulian(t) - j2000
}

func rightAscension(l, b float64) float64 {
	return math.Atan2(math.Sin(l)*math.Cos(obliq)-math.Tan(b)*math.Sin(obliq), math.Cos(l))
}

func declination(l, b float64) float64 {
	return math.Asin(math.Sin(b)*math.Cos(obliq) + math.Cos(b)*math.Sin(obliq)*math.Sin(l))
}

func siderealTime(d, lw float64) float64 {
	return rad*(280.16+360.9856235*d) - lw
}

func solarMeanAnomaly(d float64) float64 {
	return rad * (357.5291 + 0.98560028*d)
}

func eclipticLongitude(m float64) float64 {
	c := rad * (1.9148*math.Sin(m) + 0.02*math.Sin(2*m) + 0.0003*math.Sin(3*m))
	return m + c + rad*perihl + math.Pi
}

func julianCycle(d, lw float64) float64 {
	return math.Round(d - j0 - lw/(2*math.Pi))
}

func approxTransit(ht, lw, n float64) float64 {
	return j0 + (ht+lw)/(2*math.Pi) + n
}

func solarTransitJ(ds, m, l float64) float64 {
	return j2000 + ds + 0.0053*math.Sin(m) - 0.0069*math.Sin(2*l)
}

// hourAngle is NaN when the sun never reaches altitude h.
func hourAngle(h, phi, dec float64) float64 {
	return math.Acos((math.Sin(h) - math.Sin(phi)*math.Sin(dec)) / (math.Cos(phi) * math.Cos(dec)))
}

// setJ returns the Julian date at which the descending sun crosses altitude h.
func setJ(h, lw, phi, dec, n, m, l float64) float64 {
	w := hourAngle(h, phi, dec)
	a := approxTransit(w, lw, n)
	return solarTransitJ(a, m, l)
}
