package main

import (
	"bytes"
	"testing"

	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/client"
	"github.com/maxpert/fbsql/engine/loopback"
	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		in   string
		kind message.Kind
		want any
	}{
		{"null", message.KindNull, nil},
		{"plain", message.KindVarText, "plain"},
		{"bool:true", message.KindBoolean, true},
		{"smallint:-3", message.KindInt16, int16(-3)},
		{"int:42", message.KindInt32, int32(42)},
		{"bigint:9000000000", message.KindInt64, int64(9000000000)},
		{"double:2.5", message.KindFloat64, 2.5},
		{"float:0.5", message.KindFloat32, float32(0.5)},
		{"char:ab", message.KindFixedText, "ab"},
		{"varchar:a:b", message.KindVarText, "a:b"},
		{"hex:00ff", message.KindOctets, []byte{0, 0xff}},
		{"date:2024-01-31", message.KindDate, temporal.Date{Year: 2024, Month: 1, Day: 31}},
		{"time:12:30:00", message.KindTime, temporal.Time{Hours: 12, Minutes: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := parseParam(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.want, v.Native())
		})
	}
}

func TestParseParam_Errors(t *testing.T) {
	for _, in := range []string{"int:x", "smallint:70000", "hex:abc", "date:yesterday", "mystery:1"} {
		_, err := parseParam(in)
		assert.Error(t, err, in)
	}
}

func TestWriteRows(t *testing.T) {
	att, err := loopback.Open(blobstore.Options{InMemory: true})
	require.NoError(t, err)
	conn := client.New(att)
	defer conn.Close()

	rs, err := conn.Query("SELECT ?, ?, ?", int32(1), "x", nil)
	require.NoError(t, err)
	defer rs.Close()

	var out bytes.Buffer
	require.NoError(t, writeRows(&out, rs, "text"))
	assert.Equal(t, "PARAM_1\tPARAM_2\tPARAM_3\n1\tx\t<null>\n", out.String())
}

func TestWriteRows_UnknownFormat(t *testing.T) {
	att, err := loopback.Open(blobstore.Options{InMemory: true})
	require.NoError(t, err)
	conn := client.New(att)
	defer conn.Close()

	rs, err := conn.Query("SELECT ?", int32(1))
	require.NoError(t, err)
	defer rs.Close()

	assert.Error(t, writeRows(&bytes.Buffer{}, rs, "xml"))
}
