package astro

import (
	"math"
	"time"
)

// Paksha is the lunar fortnight.
type Paksha int

const (
	Shukla  Paksha = iota // waxing
	Krishna               // waning
)

func (p Paksha) String() string {
	if p == Krishna {
		return "Krishna"
	}
	return "Shukla"
}

// PakshaOf returns the fortnight for the given sidereal Sun and Moon
// longitudes. The Moon is waxing while it is less than 180° ahead of the Sun.
func PakshaOf(sun, moon float64) Paksha {
	if Normalize(moon-sun) < 180 {
		return Shukla
	}
	return Krishna
}

// Polar describes days on which the Sun never crosses the horizon.
type Polar int

const (
	PolarNone Polar = iota
	PolarDay
	PolarNight
)

const (
	j2000      = 2451545.0
	unixEpochJ = 2440587.5
	obliquity  = 23.4397
	horizonAlt = -0.833
)

// SunriseSunset computes the UTC sunrise and sunset for the civil date of t
// at the given latitude and east-positive longitude, using the NOAA sunrise
// equation. On polar days both instants are zero and polar says which kind.
func SunriseSunset(t time.Time, lat, lon float64) (rise, set time.Time, polar Polar) {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	jdNoon := float64(midnight.Unix())/86400 + unixEpochJ + 0.5
	n := math.Round(jdNoon - j2000 + 0.0008)

	jStar := n - lon/360
	mAnom := math.Mod(357.5291+0.98560028*jStar, 360)
	mRad := rad(mAnom)
	c := 1.9148*math.Sin(mRad) + 0.0200*math.Sin(2*mRad) + 0.0003*math.Sin(3*mRad)
	lambda := math.Mod(mAnom+c+180+102.9372, 360)
	lRad := rad(lambda)
	transit := j2000 + jStar + 0.0053*math.Sin(mRad) - 0.0069*math.Sin(2*lRad)

	sinDecl := math.Sin(lRad) * math.Sin(rad(obliquity))
	cosDecl := math.Cos(math.Asin(sinDecl))
	cosOmega := (math.Sin(rad(horizonAlt)) - math.Sin(rad(lat))*sinDecl) / (math.Cos(rad(lat)) * cosDecl)
	switch {
	case cosOmega > 1:
		return time.Time{}, time.Time{}, PolarNight
	case cosOmega < -1:
		return time.Time{}, time.Time{}, PolarDay
	}
	omega := math.Acos(cosOmega) * 180 / math.Pi
	return julianToTime(transit - omega/360), julianToTime(transit + omega/360), PolarNone
}

// IsDayBirth reports whether the birth happened between local sunrise and
// sunset. Explicit Sunrise/Sunset on the birth moment take precedence.
func IsDayBirth(b BirthMoment) bool {
	rise, set := b.Sunrise, b.Sunset
	if rise.IsZero() || set.IsZero() {
		var polar Polar
		rise, set, polar = SunriseSunset(b.Time, b.Latitude, b.Longitude)
		switch polar {
		case PolarDay:
			return true
		case PolarNight:
			return false
		}
	}
	return !b.Time.Before(rise) && b.Time.Before(set)
}

func julianToTime(jd float64) time.Time {
	secs := (jd - unixEpochJ) * 86400
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64((secs-whole)*1e9)).UTC()
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
