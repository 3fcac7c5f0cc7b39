package message

import (
	"fmt"
	"math/big"
)

// Int128 is a two's complement 128-bit integer as two 64-bit words.
type Int128 struct {
	Lo uint64
	Hi uint64
}

// Int128FromInt64 sign-extends v.
func Int128FromInt64(v int64) Int128 {
	hi := uint64(0)
	if v < 0 {
		hi = ^uint64(0)
	}
	return Int128{Lo: uint64(v), Hi: hi}
}

// Int128FromBig converts b, failing when it does not fit in 128 bits.
func Int128FromBig(b *big.Int) (Int128, error) {
	if b.BitLen() > 127 && !(b.Sign() < 0 && isMinInt128(b)) {
		return Int128{}, fmt.Errorf("integer %s overflows INT128", b.String())
	}
	v := new(big.Int).Set(b)
	if v.Sign() < 0 {
		v.Add(v, twoTo128)
	}
	lo := new(big.Int).And(v, maxUint64)
	hi := new(big.Int).Rsh(v, 64)
	return Int128{Lo: lo.Uint64(), Hi: hi.Uint64()}, nil
}

// ParseInt128 parses a base 10 integer.
func ParseInt128(s string) (Int128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, fmt.Errorf("invalid INT128 literal %q", s)
	}
	return Int128FromBig(b)
}

// Big returns the value as a big.Int.
func (i Int128) Big() *big.Int {
	v := new(big.Int).SetUint64(i.Hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(i.Lo))
	if i.Hi>>63 == 1 {
		v.Sub(v, twoTo128)
	}
	return v
}

// IsInt64 reports whether the value fits in an int64.
func (i Int128) IsInt64() bool {
	if int64(i.Lo) < 0 {
		return i.Hi == ^uint64(0)
	}
	return i.Hi == 0
}

func (i Int128) String() string {
	if i.IsInt64() {
		return fmt.Sprint(int64(i.Lo))
	}
	return i.Big().String()
}

var (
	twoTo128  = new(big.Int).Lsh(big.NewInt(1), 128)
	maxUint64 = new(big.Int).SetUint64(^uint64(0))
)

func isMinInt128(b *big.Int) bool {
	min := new(big.Int).Lsh(big.NewInt(1), 127)
	min.Neg(min)
	return b.Cmp(min) == 0
}
