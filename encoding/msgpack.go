// Package encoding provides centralized msgpack serialization for fbsql.
// Blob store records and exported rows both go through this package.
//
// Thread Safety: Marshal and Unmarshal are safe for concurrent use.
//
// Type Preservation: When decoding into interface{}, msgpack strings decode as
// Go strings (not []byte), and so do binary values. Decode into a typed
// destination when OCTETS must stay []byte.
package encoding

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes a value to msgpack format.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes msgpack data using loose interface decoding.
func Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	// Loose decoding turns []byte into string inside interface{} values, so
	// exported CHAR and VARCHAR columns read back as strings.
	dec.UseLooseInterfaceDecoding(true)

	return dec.Decode(v)
}
