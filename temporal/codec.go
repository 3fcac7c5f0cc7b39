// Package temporal converts calendar values to and from the engine's packed
// integer encodings.
//
// Dates are stored as the number of days since 1858-11-17 and times of day as
// units of 1/10000 second since midnight. The codec performs no calendar
// validation: out of range components are encoded arithmetically and any
// complaint is left to the engine.
package temporal

// FractionsPerSecond is the resolution of ISCTime.
const FractionsPerSecond = 10000

// ISCDate is a packed date: days since 1858-11-17.
type ISCDate int32

// ISCTime is a packed time of day in units of 1/10000 second.
type ISCTime uint32

// ISCTimestamp is a packed date and time pair.
type ISCTimestamp struct {
	Date ISCDate
	Time ISCTime
}

// EncodeDate packs a calendar date.
func EncodeDate(year, month, day uint32) ISCDate {
	y := int64(year)
	m := int64(month)
	d := int64(day)

	if m > 2 {
		m -= 3
	} else {
		m += 9
		y--
	}

	c := y / 100
	ya := y - 100*c

	return ISCDate((146097*c)/4 + (1461*ya)/4 + (153*m+2)/5 + d + 1721119 - 2400001)
}

// DecodeDate unpacks a date into year, month and day.
func DecodeDate(date ISCDate) (year, month, day uint32) {
	nday := int64(date) + 2400001 - 1721119

	century := (4*nday - 1) / 146097
	nday = 4*nday - 1 - 146097*century
	d := nday / 4

	nday = (4*d + 3) / 1461
	d = 4*d + 3 - 1461*nday
	d = (d + 4) / 4

	m := (5*d - 3) / 153
	d = 5*d - 3 - 153*m
	d = (d + 5) / 5

	y := 100*century + nday

	if m < 10 {
		m += 3
	} else {
		m -= 9
		y++
	}

	return uint32(y), uint32(m), uint32(d)
}

// EncodeTime packs a time of day.
func EncodeTime(hours, minutes, seconds, fractions uint32) ISCTime {
	return ISCTime(((hours*60+minutes)*60+seconds)*FractionsPerSecond + fractions)
}

// DecodeTime unpacks a time of day.
func DecodeTime(t ISCTime) (hours, minutes, seconds, fractions uint32) {
	v := uint32(t)
	fractions = v % FractionsPerSecond
	v /= FractionsPerSecond
	seconds = v % 60
	v /= 60
	minutes = v % 60
	hours = v / 60
	return hours, minutes, seconds, fractions
}
