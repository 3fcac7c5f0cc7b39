package engine

import (
	"encoding/binary"
	"fmt"
)

// Blob info items.
const (
	InfoEnd         byte = 1
	InfoTruncated   byte = 2
	InfoNumSegments byte = 4
	InfoMaxSegment  byte = 5
	InfoTotalLength byte = 6
	InfoBlobType    byte = 7
)

// Blob types reported by InfoBlobType.
const (
	BlobSegmented int64 = 0
	BlobStream    int64 = 1
)

// InfoItem is one decoded clumplet.
type InfoItem struct {
	Item  byte
	Value []byte
}

// AppendInfoItem appends item, a 2-byte little-endian length and v encoded as
// a little-endian integer of the smallest width among 1, 2, 4 and 8 bytes.
func AppendInfoItem(dst []byte, item byte, v int64) []byte {
	var size int
	switch {
	case v >= -1<<7 && v < 1<<7:
		size = 1
	case v >= -1<<15 && v < 1<<15:
		size = 2
	case v >= -1<<31 && v < 1<<31:
		size = 4
	default:
		size = 8
	}

	dst = append(dst, item)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(size))
	for i := 0; i < size; i++ {
		dst = append(dst, byte(uint64(v)>>(8*i)))
	}
	return dst
}

// PortableInteger decodes a little-endian signed integer of up to 8 bytes.
func PortableInteger(b []byte) int64 {
	if len(b) == 0 || len(b) > 8 {
		return 0
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	shift := uint(64 - 8*len(b))
	return int64(v<<shift) >> shift
}

// ParseInfo splits an info response into its clumplets. Parsing stops at
// InfoEnd; InfoTruncated is reported as an error.
func ParseInfo(buf []byte) ([]InfoItem, error) {
	var items []InfoItem
	for pos := 0; pos < len(buf); {
		item := buf[pos]
		switch item {
		case InfoEnd:
			return items, nil
		case InfoTruncated:
			return items, fmt.Errorf("info response truncated at byte %d", pos)
		}

		if pos+3 > len(buf) {
			return items, fmt.Errorf("info item %d: missing length at byte %d", item, pos)
		}
		n := int(binary.LittleEndian.Uint16(buf[pos+1 : pos+3]))
		start := pos + 3
		if start+n > len(buf) {
			return items, fmt.Errorf("info item %d: value of %d bytes overruns buffer", item, n)
		}
		items = append(items, InfoItem{Item: item, Value: buf[start : start+n]})
		pos = start + n
	}
	return items, nil
}

// LookupInfo returns the integer value of item from an info response.
func LookupInfo(buf []byte, item byte) (int64, error) {
	items, err := ParseInfo(buf)
	if err != nil {
		return 0, err
	}
	for _, it := range items {
		if it.Item == item {
			return PortableInteger(it.Value), nil
		}
	}
	return 0, fmt.Errorf("info item %d not present in response", item)
}
