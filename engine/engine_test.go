package engine

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/maxpert/fbsql/sqltype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_Layout(t *testing.T) {
	desc, err := Allocate([]SlotSpec{
		{Type: sqltype.Boolean.AsNullable()},
		{Type: sqltype.Int64.AsNullable()},
		{Type: sqltype.Varying.AsNullable(), Length: 5, SubType: sqltype.CharsetOctets},
		{Type: sqltype.Text, Length: 3},
		{Type: sqltype.Short.AsNullable()},
	})
	require.NoError(t, err)
	require.Len(t, desc.Columns, 5)

	// BOOLEAN at 0, null at 2
	assert.Equal(t, uint32(0), desc.Columns[0].Offset)
	assert.Equal(t, uint32(2), desc.Columns[0].NullOffset)
	// INT64 aligned to 8
	assert.Equal(t, uint32(8), desc.Columns[1].Offset)
	assert.Equal(t, uint32(16), desc.Columns[1].NullOffset)
	// VARYING: 2-byte prefix + 5
	assert.Equal(t, uint32(18), desc.Columns[2].Offset)
	assert.Equal(t, uint32(7), desc.Columns[2].Size())
	assert.Equal(t, uint32(26), desc.Columns[2].NullOffset)
	assert.Equal(t, int32(sqltype.CharsetOctets), desc.Columns[2].SubType)
	// TEXT is byte aligned
	assert.Equal(t, uint32(28), desc.Columns[3].Offset)
	assert.Equal(t, uint32(32), desc.Columns[3].NullOffset)
	assert.False(t, desc.Columns[3].Nullable)
	// SHORT
	assert.Equal(t, uint32(34), desc.Columns[4].Offset)
	assert.Equal(t, uint32(36), desc.Columns[4].NullOffset)
	assert.Equal(t, uint32(38), desc.Length)

	assert.True(t, desc.Columns[0].Nullable)
	assert.Equal(t, sqltype.Boolean, desc.Columns[0].Type)
	require.NoError(t, desc.Validate())
}

func TestAllocate_FixedWidthIgnoresLength(t *testing.T) {
	desc, err := Allocate([]SlotSpec{{Type: sqltype.Long, Length: 100}})
	require.NoError(t, err)
	assert.Equal(t, uint32(4), desc.Columns[0].Length)
	assert.Equal(t, uint32(6), desc.Length)
}

func TestAllocate_Rejects(t *testing.T) {
	_, err := Allocate([]SlotSpec{{Type: 9999}})
	assert.Error(t, err)

	_, err = Allocate([]SlotSpec{{Type: sqltype.Varying, Length: MaxVaryingLength + 1}})
	assert.Error(t, err)
}

func TestAllocate_Empty(t *testing.T) {
	desc, err := Allocate(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, desc.Count())
	assert.Equal(t, uint32(0), desc.Length)
}

func TestDescriptor_Validate(t *testing.T) {
	d := &Descriptor{
		Columns: []Column{{Type: sqltype.Long, Length: 4, Offset: 0, NullOffset: 4}},
		Length:  5,
	}
	assert.Error(t, d.Validate())

	// Offset plus length wraps in 32 bits
	d = &Descriptor{
		Columns: []Column{{Type: sqltype.Varying, Length: math.MaxUint32, Offset: 0, NullOffset: 0}},
		Length:  10,
	}
	assert.Error(t, d.Validate())
	d = &Descriptor{
		Columns: []Column{{Type: sqltype.Long, Length: 4, Offset: math.MaxUint32 - 1, NullOffset: 4}},
		Length:  10,
	}
	assert.Error(t, d.Validate())

	// The prefix cannot describe more than 65535 bytes
	d = &Descriptor{
		Columns: []Column{{Type: sqltype.Varying, Length: 70000, NullOffset: 70002}},
		Length:  70004,
	}
	assert.Error(t, d.Validate())

	// Fixed slots must be as wide as their type
	d = &Descriptor{
		Columns: []Column{{Type: sqltype.Int64, Length: 4, NullOffset: 4}},
		Length:  6,
	}
	assert.Error(t, d.Validate())

	good, err := Allocate([]SlotSpec{{Type: sqltype.Varying, Length: MaxVaryingLength}, {Type: sqltype.Int64}})
	require.NoError(t, err)
	assert.NoError(t, good.Validate())
	assert.Equal(t, uint64(MaxVaryingLength+2), good.Columns[0].Extent())

	var nilDesc *Descriptor
	assert.Equal(t, 0, nilDesc.Count())
}

func TestBlobID_Bytes(t *testing.T) {
	id := BlobID{Hi: 7, Lo: 0xdeadbeef}
	got, err := BlobIDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.False(t, id.IsZero())
	assert.True(t, BlobID{}.IsZero())
	assert.Equal(t, "0000000000000007:00000000deadbeef", id.String())

	_, err = BlobIDFromBytes([]byte{1, 2})
	assert.Error(t, err)

	parsed, err := ParseBlobID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "7", "zz:1", "1:zz"} {
		_, err = ParseBlobID(bad)
		assert.Error(t, err, bad)
	}
}

func TestInfo_RoundTrip(t *testing.T) {
	var buf []byte
	buf = AppendInfoItem(buf, InfoNumSegments, 3)
	buf = AppendInfoItem(buf, InfoMaxSegment, 32768)
	buf = AppendInfoItem(buf, InfoTotalLength, 1<<40)
	buf = AppendInfoItem(buf, InfoBlobType, -1)
	buf = append(buf, InfoEnd)

	assert.Equal(t, []byte{InfoNumSegments, 1, 0, 3}, buf[:4])

	items, err := ParseInfo(buf)
	require.NoError(t, err)
	require.Len(t, items, 4)

	for item, want := range map[byte]int64{
		InfoNumSegments: 3,
		InfoMaxSegment:  32768,
		InfoTotalLength: 1 << 40,
		InfoBlobType:    -1,
	} {
		got, err := LookupInfo(buf, item)
		require.NoError(t, err)
		assert.Equal(t, want, got, "item %d", item)
	}

	_, err = LookupInfo(buf, 42)
	assert.Error(t, err)
}

func TestParseInfo_Malformed(t *testing.T) {
	_, err := ParseInfo([]byte{InfoNumSegments, 4, 0, 1})
	assert.Error(t, err)

	_, err = ParseInfo([]byte{InfoNumSegments})
	assert.Error(t, err)

	_, err = ParseInfo([]byte{InfoTruncated})
	assert.Error(t, err)
}

func TestPortableInteger(t *testing.T) {
	assert.Equal(t, int64(0x0201), PortableInteger([]byte{1, 2}))
	assert.Equal(t, int64(-2), PortableInteger([]byte{0xfe, 0xff}))
	assert.Equal(t, int64(0), PortableInteger(nil))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("fetch", nil))

	err := Wrap("fetch", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, ErrEngine))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "fetch: unexpected EOF", err.Error())

	again := Wrap("execute", err)
	assert.Same(t, err, again)

	var ee *Error
	require.True(t, errors.As(Errorf("prepare", "bad token %q", "x"), &ee))
	assert.Equal(t, "prepare", ee.Op)
	assert.Equal(t, `prepare: bad token "x"`, ee.Error())
}
