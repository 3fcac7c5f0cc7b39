// Package engine defines the boundary between the message codec and a
// tabular engine that exchanges rows as binary buffers.
//
// An engine allocates message descriptors, executes statements against an
// input buffer, fills output buffers one row at a time and stores large
// objects as segmented blobs. Implementations live in sub-packages; the codec
// only talks to the interfaces below.
package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/maxpert/fbsql/sqltype"
)

// SlotSpec is the request for one message slot.
type SlotSpec struct {
	Type    sqltype.Code
	SubType int32
	Scale   int32
	// Length is the declared byte length. Only meaningful for TEXT and VARYING;
	// fixed-width types take their width from the catalog.
	Length uint32
	Name   string
	Alias  string
}

// Column describes one slot of a message buffer.
type Column struct {
	Type       sqltype.Code // base code, nullable bit cleared
	SubType    int32
	Scale      int32
	Length     uint32 // declared length; payload capacity for VARYING
	Offset     uint32
	NullOffset uint32
	Nullable   bool
	Name       string
	Alias      string
	Relation   string
}

// Size returns the number of bytes the slot occupies at Offset. Only
// meaningful for validated columns; see Extent.
func (c Column) Size() uint32 {
	if c.Type == sqltype.Varying {
		return c.Length + 2
	}
	return c.Length
}

// Extent is Size computed without wrapping.
func (c Column) Extent() uint64 {
	if c.Type == sqltype.Varying {
		return uint64(c.Length) + 2
	}
	return uint64(c.Length)
}

// Descriptor is the immutable layout of a message buffer.
type Descriptor struct {
	Columns []Column
	Length  uint32
}

// Count returns the number of columns.
func (d *Descriptor) Count() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// Validate checks that every slot and null indicator lies inside the buffer,
// that fixed-width slots are as wide as their type and that VARYING lengths
// fit the 2-byte prefix.
func (d *Descriptor) Validate() error {
	for i, c := range d.Columns {
		if c.Type == sqltype.Varying && c.Length > math.MaxUint16 {
			return fmt.Errorf("column %d (%s) length %d exceeds the %d byte prefix limit",
				i, c.Type, c.Length, math.MaxUint16)
		}
		if w, ok := sqltype.Width(c.Type); ok && c.Length < w {
			return fmt.Errorf("column %d (%s) length %d is narrower than %d", i, c.Type, c.Length, w)
		}
		if end := uint64(c.Offset) + c.Extent(); end > uint64(d.Length) {
			return fmt.Errorf("column %d (%s) slot [%d,%d) exceeds message length %d",
				i, c.Type, c.Offset, end, d.Length)
		}
		if uint64(c.NullOffset)+2 > uint64(d.Length) {
			return fmt.Errorf("column %d null indicator at %d exceeds message length %d",
				i, c.NullOffset, d.Length)
		}
	}
	return nil
}

// BlobID is the 128-bit engine identifier of a blob.
type BlobID struct {
	Hi uint64
	Lo uint64
}

// IsZero reports whether the id is unset.
func (id BlobID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

func (id BlobID) String() string {
	return fmt.Sprintf("%016x:%016x", id.Hi, id.Lo)
}

// Bytes returns the id as it is laid out in a BLOB slot.
func (id BlobID) Bytes() []byte {
	b := make([]byte, 16)
	binary.NativeEndian.PutUint64(b[0:8], id.Hi)
	binary.NativeEndian.PutUint64(b[8:16], id.Lo)
	return b
}

// ParseBlobID parses the "hi:lo" hexadecimal form produced by String.
func ParseBlobID(s string) (BlobID, error) {
	hi, lo, ok := strings.Cut(s, ":")
	if !ok {
		return BlobID{}, fmt.Errorf("blob id %q: want hi:lo", s)
	}
	h, err := strconv.ParseUint(hi, 16, 64)
	if err != nil {
		return BlobID{}, fmt.Errorf("blob id %q: %w", s, err)
	}
	l, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return BlobID{}, fmt.Errorf("blob id %q: %w", s, err)
	}
	return BlobID{Hi: h, Lo: l}, nil
}

// BlobIDFromBytes reads an id laid out by Bytes.
func BlobIDFromBytes(b []byte) (BlobID, error) {
	if len(b) != 16 {
		return BlobID{}, fmt.Errorf("blob id needs 16 bytes, got %d", len(b))
	}
	return BlobID{
		Hi: binary.NativeEndian.Uint64(b[0:8]),
		Lo: binary.NativeEndian.Uint64(b[8:16]),
	}, nil
}

// SegmentStatus is the outcome of a segment read.
type SegmentStatus int

const (
	// SegmentOK means a whole segment (or its remainder) was returned.
	SegmentOK SegmentStatus = iota
	// SegmentPartial means the buffer was smaller than the segment; more of it follows.
	SegmentPartial
	// SegmentEOF means there is no more data.
	SegmentEOF
)

func (s SegmentStatus) String() string {
	switch s {
	case SegmentOK:
		return "OK"
	case SegmentPartial:
		return "SEGMENT"
	case SegmentEOF:
		return "NO_DATA"
	}
	return fmt.Sprintf("SegmentStatus(%d)", int(s))
}

// Metadata allocates message descriptors.
type Metadata interface {
	AllocateDescriptor(slots []SlotSpec) (*Descriptor, error)
}

// Statement is a prepared statement. A nil descriptor and buffer mean the
// statement takes no parameters.
type Statement interface {
	Execute(in *Descriptor, buf []byte) (int64, error)
	OpenCursor(in *Descriptor, buf []byte) (Cursor, error)
	Close() error
}

// Cursor produces output rows into caller-owned buffers sized from Descriptor.
type Cursor interface {
	Descriptor() *Descriptor
	FetchNext(out []byte) (bool, error)
	Close() error
}

// BlobHandle is an open blob, either freshly created for writing or opened
// for reading.
type BlobHandle interface {
	ID() BlobID
	ReadSegment(p []byte) (int, SegmentStatus, error)
	WriteSegment(p []byte) error
	Info(items []byte, out []byte) error
	Close() error
}

// BlobStore creates and opens blobs.
type BlobStore interface {
	CreateBlob() (BlobHandle, error)
	OpenBlob(id BlobID) (BlobHandle, error)
}

// Attachment is one engine session.
type Attachment interface {
	Metadata
	BlobStore
	Prepare(sql string) (Statement, error)
	Close() error
}
