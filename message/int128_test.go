package message

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt128_Big(t *testing.T) {
	tests := []string{
		"0",
		"1",
		"-1",
		"9223372036854775808",
		"-170141183460469231731687303715884105728",
		"170141183460469231731687303715884105727",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			v, err := ParseInt128(s)
			require.NoError(t, err)
			assert.Equal(t, s, v.String())
			assert.Equal(t, s, v.Big().String())
		})
	}

	_, err := ParseInt128("170141183460469231731687303715884105728")
	assert.Error(t, err)
	_, err = ParseInt128("twelve")
	assert.Error(t, err)
}

func TestInt128_FromInt64(t *testing.T) {
	assert.Equal(t, Int128{Lo: ^uint64(0), Hi: ^uint64(0)}, Int128FromInt64(-1))
	assert.Equal(t, Int128{Lo: 5}, Int128FromInt64(5))
	assert.True(t, Int128FromInt64(-7).IsInt64())
	assert.False(t, Int128{Hi: 1}.IsInt64())

	b := new(big.Int).Lsh(big.NewInt(1), 64)
	v, err := Int128FromBig(b)
	require.NoError(t, err)
	assert.Equal(t, Int128{Hi: 1}, v)
}
