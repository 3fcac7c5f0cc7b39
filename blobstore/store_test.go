package blobstore

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/maxpert/fbsql/blob"
	"github.com/maxpert/fbsql/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T, level int) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true, CompressionLevel: level, NodeID: 7})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeBlob(t *testing.T, s *Store, segments ...[]byte) engine.BlobID {
	t.Helper()
	h, err := s.CreateBlob()
	require.NoError(t, err)
	for _, seg := range segments {
		require.NoError(t, h.WriteSegment(seg))
	}
	require.NoError(t, h.Close())
	return h.ID()
}

func TestCreateAndRead(t *testing.T) {
	for _, level := range []int{0, 1, 4} {
		s := newMemStore(t, level)
		big := bytes.Repeat([]byte("fbsql "), 2000)
		blobID := writeBlob(t, s, []byte("hello"), big)
		assert.Equal(t, uint64(7), blobID.Hi)

		h, err := s.OpenBlob(blobID)
		require.NoError(t, err)

		buf := make([]byte, len(big))
		n, status, err := h.ReadSegment(buf)
		require.NoError(t, err)
		assert.Equal(t, engine.SegmentOK, status)
		assert.Equal(t, "hello", string(buf[:n]))

		n, status, err = h.ReadSegment(buf)
		require.NoError(t, err)
		assert.Equal(t, engine.SegmentOK, status)
		assert.Equal(t, big, buf[:n])

		_, status, err = h.ReadSegment(buf)
		require.NoError(t, err)
		assert.Equal(t, engine.SegmentEOF, status)
		require.NoError(t, h.Close())
	}
}

func TestReadSegment_Partial(t *testing.T) {
	s := newMemStore(t, 0)
	blobID := writeBlob(t, s, []byte("abcdefgh"))

	h, err := s.OpenBlob(blobID)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 3)
	var got []byte
	var statuses []engine.SegmentStatus
	for {
		n, status, err := h.ReadSegment(buf)
		require.NoError(t, err)
		if status == engine.SegmentEOF {
			break
		}
		got = append(got, buf[:n]...)
		statuses = append(statuses, status)
	}

	assert.Equal(t, "abcdefgh", string(got))
	assert.Equal(t, []engine.SegmentStatus{engine.SegmentPartial, engine.SegmentPartial, engine.SegmentOK}, statuses)
}

func TestInfo(t *testing.T) {
	s := newMemStore(t, 1)
	blobID := writeBlob(t, s, []byte("abc"), make([]byte, 300), []byte("z"))

	h, err := s.OpenBlob(blobID)
	require.NoError(t, err)
	defer h.Close()

	out := make([]byte, 64)
	req := []byte{engine.InfoNumSegments, engine.InfoMaxSegment, engine.InfoTotalLength, engine.InfoBlobType, engine.InfoEnd}
	require.NoError(t, h.Info(req, out))

	for item, want := range map[byte]int64{
		engine.InfoNumSegments: 3,
		engine.InfoMaxSegment:  300,
		engine.InfoTotalLength: 304,
		engine.InfoBlobType:    engine.BlobSegmented,
	} {
		v, err := engine.LookupInfo(out, item)
		require.NoError(t, err)
		assert.Equal(t, want, v, "item %d", item)
	}

	assert.Error(t, h.Info([]byte{99, engine.InfoEnd}, out))

	small := make([]byte, 4)
	require.NoError(t, h.Info(req, small))
	_, err = engine.ParseInfo(small)
	assert.Error(t, err)
}

func TestInfo_WhileWriting(t *testing.T) {
	s := newMemStore(t, 0)
	h, err := s.CreateBlob()
	require.NoError(t, err)
	require.NoError(t, h.WriteSegment([]byte("12345")))

	out := make([]byte, 32)
	require.NoError(t, h.Info([]byte{engine.InfoTotalLength, engine.InfoEnd}, out))
	v, err := engine.LookupInfo(out, engine.InfoTotalLength)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
	require.NoError(t, h.Close())
}

func TestOpenBlob_NotFound(t *testing.T) {
	s := newMemStore(t, 0)

	_, err := s.OpenBlob(engine.BlobID{Hi: 1, Lo: 2})
	assert.True(t, errors.Is(err, ErrNotFound))

	// Never closed, so never visible
	h, err := s.CreateBlob()
	require.NoError(t, err)
	require.NoError(t, h.WriteSegment([]byte("x")))
	_, err = s.OpenBlob(h.ID())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestModeViolations(t *testing.T) {
	s := newMemStore(t, 0)
	w, err := s.CreateBlob()
	require.NoError(t, err)
	_, _, err = w.ReadSegment(make([]byte, 4))
	assert.Error(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.Close())

	r, err := s.OpenBlob(w.ID())
	require.NoError(t, err)
	assert.Error(t, r.WriteSegment([]byte("x")))
	require.NoError(t, r.Close())
}

func TestOpenBlobCount(t *testing.T) {
	s := newMemStore(t, 0)
	a, err := s.CreateBlob()
	require.NoError(t, err)
	b, err := s.CreateBlob()
	require.NoError(t, err)
	assert.Equal(t, 2, s.OpenBlobCount())

	require.NoError(t, a.Close())
	assert.Equal(t, 1, s.OpenBlobCount())
	require.NoError(t, b.Close())
	assert.Equal(t, 0, s.OpenBlobCount())
}

func TestDeleteBlob(t *testing.T) {
	s := newMemStore(t, 0)
	blobID := writeBlob(t, s, []byte("gone"))

	segments, total, err := s.Stat(blobID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), segments)
	assert.Equal(t, int64(4), total)

	require.NoError(t, s.DeleteBlob(blobID))
	_, err = s.OpenBlob(blobID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClosedStore(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.CreateBlob()
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = s.OpenBlob(engine.BlobID{Lo: 1})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestReopenResumesIDs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")

	s, err := Open(Options{Path: dir, NodeID: 3})
	require.NoError(t, err)
	first := writeBlob(t, s, []byte("one"))
	require.NoError(t, s.Close())

	s, err = Open(Options{Path: dir, NodeID: 3})
	require.NoError(t, err)
	defer s.Close()

	second := writeBlob(t, s, []byte("two"))
	assert.Greater(t, second.Lo, first.Lo)

	h, err := s.OpenBlob(first)
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, _, err := h.ReadSegment(buf)
	require.NoError(t, err)
	assert.Equal(t, "one", string(buf[:n]))
	require.NoError(t, h.Close())
}

func TestParseBlobKey(t *testing.T) {
	want := engine.BlobID{Hi: 0x0102030405060708, Lo: 0xa0b0c0d0e0f00010}
	got, err := parseBlobKey(segmentKey(want, 3))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = parseBlobKey([]byte("/blob/zz"))
	assert.Error(t, err)
}

func TestStreamRoundTrip(t *testing.T) {
	s := newMemStore(t, 2)
	payload := bytes.Repeat([]byte{0xAB}, blob.MaxSegmentSize+1)

	w, err := blob.Create(s)
	require.NoError(t, err)
	require.NoError(t, w.Put(payload))

	segments, err := w.NumSegments()
	require.NoError(t, err)
	assert.Equal(t, int64(2), segments)
	require.NoError(t, w.Close())

	r, err := blob.Open(s, w.ID())
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	total, err := r.TotalLength()
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), total)
	require.NoError(t, r.Close())
}

func TestSegmentCodec(t *testing.T) {
	c := newSegmentCodec(3)
	defer c.close()

	compressible := bytes.Repeat([]byte("a"), 4096)
	val, err := c.encode(compressible)
	require.NoError(t, err)
	assert.Equal(t, tagZstd, val[0])
	assert.Less(t, len(val), len(compressible))

	got, err := c.decode(val)
	require.NoError(t, err)
	assert.Equal(t, compressible, got)

	val, err = c.encode([]byte{1})
	require.NoError(t, err)
	assert.Equal(t, []byte{tagRaw, 1}, val)

	_, err = c.decode([]byte{9, 1})
	assert.Error(t, err)
	_, err = c.decode(nil)
	assert.Error(t, err)
}
