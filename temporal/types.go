package temporal

import (
	"fmt"
	"strings"
	"time"
)

// ZoneGMT is the zone id of GMT/UTC.
const ZoneGMT uint16 = 65535

// oneDay is the bias added to offset-based zone ids (minutes in a day minus one).
const oneDay = 24*60 - 1

// Date is a calendar date.
type Date struct {
	Year  uint32
	Month uint32
	Day   uint32
}

// Time is a time of day with 1/10000 second fractions.
type Time struct {
	Hours     uint32
	Minutes   uint32
	Seconds   uint32
	Fractions uint32
}

// TimeTZ is a UTC time of day with a zone id.
type TimeTZ struct {
	UTCTime Time
	Zone    uint16
}

// TimeTZEx is TimeTZ plus the zone's offset in minutes at the time of evaluation.
type TimeTZEx struct {
	UTCTime   Time
	Zone      uint16
	ExtOffset int16
}

// Timestamp is a date and time of day.
type Timestamp struct {
	Date Date
	Time Time
}

// TimestampTZ is a UTC timestamp with a zone id.
type TimestampTZ struct {
	UTC  Timestamp
	Zone uint16
}

// TimestampTZEx is TimestampTZ plus the zone's offset in minutes.
type TimestampTZEx struct {
	UTC       Timestamp
	Zone      uint16
	ExtOffset int16
}

// Encode packs the date.
func (d Date) Encode() ISCDate {
	return EncodeDate(d.Year, d.Month, d.Day)
}

// DateOf unpacks a packed date.
func DateOf(v ISCDate) Date {
	y, m, d := DecodeDate(v)
	return Date{Year: y, Month: m, Day: d}
}

// Encode packs the time of day.
func (t Time) Encode() ISCTime {
	return EncodeTime(t.Hours, t.Minutes, t.Seconds, t.Fractions)
}

// TimeOf unpacks a packed time of day.
func TimeOf(v ISCTime) Time {
	h, m, s, f := DecodeTime(v)
	return Time{Hours: h, Minutes: m, Seconds: s, Fractions: f}
}

// Encode packs the timestamp.
func (ts Timestamp) Encode() ISCTimestamp {
	return ISCTimestamp{Date: ts.Date.Encode(), Time: ts.Time.Encode()}
}

// TimestampOfISC unpacks a packed timestamp.
func TimestampOfISC(v ISCTimestamp) Timestamp {
	return Timestamp{Date: DateOf(v.Date), Time: TimeOf(v.Time)}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%04d", t.Hours, t.Minutes, t.Seconds, t.Fractions)
}

func (ts Timestamp) String() string {
	return ts.Date.String() + " " + ts.Time.String()
}

func (t TimeTZ) String() string {
	return t.UTCTime.String() + " " + ZoneName(t.Zone)
}

func (t TimeTZEx) String() string {
	return t.UTCTime.String() + " " + ZoneName(t.Zone)
}

func (ts TimestampTZ) String() string {
	return ts.UTC.String() + " " + ZoneName(ts.Zone)
}

func (ts TimestampTZEx) String() string {
	return ts.UTC.String() + " " + ZoneName(ts.Zone)
}

// ZoneFromOffset returns the zone id of a fixed displacement from UTC.
func ZoneFromOffset(minutes int) uint16 {
	return uint16(minutes + oneDay)
}

// ZoneOffset returns the displacement in minutes of an offset-based zone id.
// Region zones report false.
func ZoneOffset(zone uint16) (int, bool) {
	if int(zone) > 2*oneDay {
		return 0, false
	}
	return int(zone) - oneDay, true
}

// ZoneName renders a zone id as "+HH:MM", "GMT" or "zone#N" for region ids.
func ZoneName(zone uint16) string {
	if zone == ZoneGMT {
		return "GMT"
	}
	off, ok := ZoneOffset(zone)
	if !ok {
		return fmt.Sprintf("zone#%d", zone)
	}
	sign := '+'
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%c%02d:%02d", sign, off/60, off%60)
}

// DateFromTime takes the calendar date of t in t's location.
func DateFromTime(t time.Time) Date {
	return Date{Year: uint32(t.Year()), Month: uint32(t.Month()), Day: uint32(t.Day())}
}

// TimeFromTime takes the time of day of t in t's location.
func TimeFromTime(t time.Time) Time {
	return Time{
		Hours:     uint32(t.Hour()),
		Minutes:   uint32(t.Minute()),
		Seconds:   uint32(t.Second()),
		Fractions: uint32(t.Nanosecond() / (int(time.Second) / FractionsPerSecond)),
	}
}

// TimestampFromTime takes the date and time of day of t in t's location.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{Date: DateFromTime(t), Time: TimeFromTime(t)}
}

// TimestampTZFromTime converts t to UTC and records its offset as the zone.
func TimestampTZFromTime(t time.Time) TimestampTZ {
	_, off := t.Zone()
	zone := ZoneFromOffset(off / 60)
	if off == 0 {
		zone = ZoneGMT
	}
	return TimestampTZ{UTC: TimestampFromTime(t.UTC()), Zone: zone}
}

// Duration returns the time of day as an offset from midnight.
func (t Time) Duration() time.Duration {
	return time.Duration(t.Hours)*time.Hour +
		time.Duration(t.Minutes)*time.Minute +
		time.Duration(t.Seconds)*time.Second +
		time.Duration(t.Fractions)*(time.Second/FractionsPerSecond)
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, loc)
}

// In returns the timestamp as a time.Time in loc.
func (ts Timestamp) In(loc *time.Location) time.Time {
	return ts.Date.In(loc).Add(ts.Time.Duration())
}

// Time returns the instant in UTC, or in a fixed zone when the zone id is
// offset based.
func (ts TimestampTZ) Time() time.Time {
	t := ts.UTC.In(time.UTC)
	if off, ok := ZoneOffset(ts.Zone); ok {
		return t.In(time.FixedZone(ZoneName(ts.Zone), off*60))
	}
	return t
}

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02 15:04:05"
)

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateFromTime(t), nil
}

// ParseTime parses "HH:MM:SS" with optional fractional seconds.
func ParseTime(s string) (Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return TimeFromTime(t), nil
}

// ParseTimestamp parses "YYYY-MM-DD HH:MM:SS" with optional fractional
// seconds. A "T" separator is accepted as well, and a bare date means midnight.
func ParseTimestamp(s string) (Timestamp, error) {
	v := strings.Replace(s, "T", " ", 1)
	t, err := time.Parse(timestampLayout, v)
	if err != nil {
		var dateErr error
		t, dateErr = time.Parse(dateLayout, v)
		if dateErr != nil {
			return Timestamp{}, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	return TimestampFromTime(t), nil
}
