package message

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatScaled(t *testing.T) {
	tests := []struct {
		raw   int64
		scale int32
		want  string
	}{
		{12345, -2, "123.45"},
		{100, 0, "100"},
		{5, -3, "0.005"},
		{-5, -1, "-0.5"},
		{-120, -2, "-1.20"},
		{42, 3, "42000"},
		{-42, 1, "-420"},
		{math.MinInt64, -2, "-92233720368547758.08"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatScaled(tt.raw, tt.scale), "%d@%d", tt.raw, tt.scale)
	}
}

func TestScaleFloat(t *testing.T) {
	assert.Equal(t, 123.0, ScaleFloat(123, 0))
	assert.InDelta(t, 1.23, ScaleFloat(123, -2), 1e-12)
	assert.InDelta(t, 12300.0, ScaleFloat(123, 2), 1e-9)
}
