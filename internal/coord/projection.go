package coord

import "math"

// Transform converts a projected (x, y) pair to WGS84 (lon, lat).
// ok is false when the input cannot be inverted (e.g. off the projection).
type Transform interface {
	ToWGS84(x, y float64) (lon, lat float64, ok bool)
}

// korean1985TM inverts the EPSG:5174 projection (Korean 1985 Modified
// Central Belt): a Gauss-Krüger Transverse Mercator on the Bessel 1841
// ellipsoid, followed by a seven-parameter Helmert shift to WGS84.
type korean1985TM struct{}

// NewKorean1985TM returns the transform for EPSG:5174 coordinates.
func NewKorean1985TM() Transform { return korean1985TM{} }

// Bessel 1841 ellipsoid and Korean 1985 Modified Central Belt parameters.
const (
	besselA  = 6377397.155
	besselRF = 299.1528128

	tmLat0       = 38.0
	tmLon0       = 127.0028902777778 // 127°00'10.405" (Korean meridian correction)
	tmScale      = 1.0
	tmFalseEast  = 200000.0
	tmFalseNorth = 500000.0
)

// Korean 1985 → WGS84 datum shift (position vector convention):
// translations in meters, rotations in arc-seconds, scale in ppm.
const (
	dx = -115.80
	dy = 474.99
	dz = 674.11
	rx = 1.16
	ry = -2.31
	rz = -1.63
	ds = 6.43
)

// WGS84 ellipsoid.
const (
	wgsA  = 6378137.0
	wgsRF = 298.257223563
)

func (korean1985TM) ToWGS84(x, y float64) (lon, lat float64, ok bool) {
	latB, lonB, ok := inverseTM(x, y)
	if !ok {
		return 0, 0, false
	}
	lon, lat = helmertToWGS84(latB, lonB)
	return lon, lat, true
}

// inverseTM inverts the Transverse Mercator projection on the Bessel
// ellipsoid, returning geodetic (lat, lon) in radians on the Korean datum.
func inverseTM(x, y float64) (lat, lon float64, ok bool) {
	f := 1.0 / besselRF
	e2 := f * (2 - f)
	ep2 := e2 / (1 - e2)

	lat0 := tmLat0 * math.Pi / 180
	lon0 := tmLon0 * math.Pi / 180

	m0 := meridianArc(besselA, e2, lat0)
	m := m0 + (y-tmFalseNorth)/tmScale
	mu := m / (besselA * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	// Footpoint latitude.
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	fp := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	if math.Abs(fp) > math.Pi/2 {
		return 0, 0, false
	}

	sinFp, cosFp := math.Sin(fp), math.Cos(fp)
	if math.Abs(cosFp) < 1e-12 {
		return 0, 0, false
	}
	tanFp := sinFp / cosFp

	c1 := ep2 * cosFp * cosFp
	t1 := tanFp * tanFp
	n1 := besselA / math.Sqrt(1-e2*sinFp*sinFp)
	r1 := besselA * (1 - e2) / math.Pow(1-e2*sinFp*sinFp, 1.5)
	d := (x - tmFalseEast) / (n1 * tmScale)

	lat = fp - (n1*tanFp/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lon = lon0 + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cosFp

	if math.IsNaN(lat) || math.IsNaN(lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

// meridianArc is the distance along the meridian from the equator to lat.
func meridianArc(a, e2, lat float64) float64 {
	return a * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*lat -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*lat) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*lat) -
		(35*e2*e2*e2/3072)*math.Sin(6*lat))
}

// helmertToWGS84 shifts geodetic coordinates (radians, Bessel/Korean 1985)
// to WGS84 degrees via ECEF and the seven-parameter transform.
func helmertToWGS84(lat, lon float64) (lonDeg, latDeg float64) {
	// Geodetic → ECEF on Bessel (h = 0; sub-meter height error is
	// irrelevant at map-marker precision).
	f := 1.0 / besselRF
	e2 := f * (2 - f)
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n := besselA / math.Sqrt(1-e2*sinLat*sinLat)
	x := n * cosLat * math.Cos(lon)
	y := n * cosLat * math.Sin(lon)
	z := n * (1 - e2) * sinLat

	// Seven-parameter Helmert, position vector convention.
	const arcsec = math.Pi / (180 * 3600)
	rxr, ryr, rzr := rx*arcsec, ry*arcsec, rz*arcsec
	scale := 1 + ds*1e-6
	x2 := dx + scale*(x-rzr*y+ryr*z)
	y2 := dy + scale*(rzr*x+y-rxr*z)
	z2 := dz + scale*(-ryr*x+rxr*y+z)

	// ECEF → geodetic on WGS84 (Bowring's method).
	fw := 1.0 / wgsRF
	we2 := fw * (2 - fw)
	wb := wgsA * (1 - fw)
	wep2 := we2 / (1 - we2)

	p := math.Hypot(x2, y2)
	theta := math.Atan2(z2*wgsA, p*wb)
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	latW := math.Atan2(z2+wep2*wb*sinT*sinT*sinT, p-we2*wgsA*cosT*cosT*cosT)
	lonW := math.Atan2(y2, x2)

	return lonW * 180 / math.Pi, latW * 180 / math.Pi
}
