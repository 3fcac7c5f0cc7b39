package message

import "fmt"

// Dec16 is an opaque IEEE 754 decimal64 word. The codec moves it between
// buffers without interpreting it.
type Dec16 struct {
	Bits uint64
}

// Dec34 is an opaque IEEE 754 decimal128 value as two 64-bit words.
type Dec34 struct {
	Lo uint64
	Hi uint64
}

func (d Dec16) String() string {
	return fmt.Sprintf("dec16(%016x)", d.Bits)
}

func (d Dec34) String() string {
	return fmt.Sprintf("dec34(%016x%016x)", d.Hi, d.Lo)
}
