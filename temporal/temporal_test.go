package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDate_Anchors(t *testing.T) {
	assert.Equal(t, ISCDate(0), EncodeDate(1858, 11, 17))
	assert.Equal(t, ISCDate(51544), EncodeDate(2000, 1, 1))
	assert.Equal(t, ISCDate(-1), EncodeDate(1858, 11, 16))
}

func TestDate_RoundTrip(t *testing.T) {
	dates := []Date{
		{1858, 11, 17},
		{1900, 2, 28},
		{2000, 2, 29},
		{2024, 12, 31},
		{1, 1, 1},
		{9999, 12, 31},
		{1970, 1, 1},
	}

	for _, d := range dates {
		t.Run(d.String(), func(t *testing.T) {
			assert.Equal(t, d, DateOf(d.Encode()))
		})
	}
}

func TestDate_MatchesGoCalendar(t *testing.T) {
	epoch := time.Date(1858, 11, 17, 0, 0, 0, 0, time.UTC)
	for _, tm := range []time.Time{
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
		time.Date(1600, 3, 1, 0, 0, 0, 0, time.UTC),
	} {
		days := int32(tm.Sub(epoch).Hours() / 24)
		assert.Equal(t, ISCDate(days), DateFromTime(tm).Encode(), tm.String())
	}
}

func TestTime_RoundTrip(t *testing.T) {
	times := []Time{
		{0, 0, 0, 0},
		{23, 59, 59, 9999},
		{12, 30, 15, 1234},
	}
	for _, tm := range times {
		t.Run(tm.String(), func(t *testing.T) {
			assert.Equal(t, tm, TimeOf(tm.Encode()))
		})
	}

	assert.Equal(t, ISCTime(((1*60+2)*60+3)*10000+4), EncodeTime(1, 2, 3, 4))
}

func TestTime_NoValidation(t *testing.T) {
	// 25:00 is passed through arithmetically.
	enc := EncodeTime(25, 0, 0, 0)
	h, m, s, f := DecodeTime(enc)
	assert.Equal(t, []uint32{25, 0, 0, 0}, []uint32{h, m, s, f})
}

func TestTimestamp_RoundTrip(t *testing.T) {
	ts := Timestamp{Date: Date{2021, 6, 1}, Time: Time{8, 15, 0, 500}}
	assert.Equal(t, ts, TimestampOfISC(ts.Encode()))
}

func TestTimeConversions(t *testing.T) {
	gt := time.Date(2022, 3, 4, 5, 6, 7, 890100000, time.UTC)
	ts := TimestampFromTime(gt)
	assert.Equal(t, Date{2022, 3, 4}, ts.Date)
	assert.Equal(t, Time{5, 6, 7, 8901}, ts.Time)
	assert.True(t, gt.Equal(ts.In(time.UTC)))
}

func TestZones(t *testing.T) {
	z := ZoneFromOffset(-180)
	off, ok := ZoneOffset(z)
	require.True(t, ok)
	assert.Equal(t, -180, off)
	assert.Equal(t, "-03:00", ZoneName(z))
	assert.Equal(t, "GMT", ZoneName(ZoneGMT))

	_, ok = ZoneOffset(65000)
	assert.False(t, ok)

	loc := time.FixedZone("x", 2*3600)
	tz := TimestampTZFromTime(time.Date(2020, 1, 1, 12, 0, 0, 0, loc))
	assert.Equal(t, Time{10, 0, 0, 0}, tz.UTC.Time)
	assert.Equal(t, "+02:00", ZoneName(tz.Zone))
	assert.True(t, tz.Time().Equal(time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)))
}

func TestParse(t *testing.T) {
	d, err := ParseDate("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{2020, 2, 29}, d)

	tm, err := ParseTime("13:14:15.25")
	require.NoError(t, err)
	assert.Equal(t, Time{13, 14, 15, 2500}, tm)

	ts, err := ParseTimestamp("2020-02-29T13:14:15")
	require.NoError(t, err)
	assert.Equal(t, Timestamp{Date{2020, 2, 29}, Time{13, 14, 15, 0}}, ts)

	ts, err = ParseTimestamp("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, Timestamp{Date: Date{2020, 2, 29}}, ts)

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}
