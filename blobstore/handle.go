package blobstore

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/maxpert/fbsql/encoding"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/rs/zerolog/log"
)

var errHandleClosed = errors.New("blob handle is closed")

// handle is one open blob. Write handles append segments and commit the
// metadata on Close; read handles walk the segments in order.
type handle struct {
	store  *Store
	id     engine.BlobID
	seq    uint64
	write  bool
	closed bool
	meta   blobMeta

	// read position
	next    int64  // index of the next segment to load
	pending []byte // unread remainder of the current segment
	loaded  bool   // pending holds a segment, possibly already drained
}

func (h *handle) ID() engine.BlobID {
	return h.id
}

// WriteSegment stores p as the next segment
func (h *handle) WriteSegment(p []byte) error {
	if h.closed {
		return errHandleClosed
	}
	if !h.write {
		return fmt.Errorf("blob %s is open for reading", h.id)
	}
	if h.store.closed.Load() {
		return ErrStoreClosed
	}

	val, err := h.store.codec.encode(p)
	if err != nil {
		return fmt.Errorf("failed to encode segment: %w", err)
	}
	if err := h.store.db.Set(segmentKey(h.id, h.meta.Segments), val, pebble.NoSync); err != nil {
		return err
	}

	h.meta.Segments++
	h.meta.TotalLength += int64(len(p))
	if int64(len(p)) > h.meta.MaxSegment {
		h.meta.MaxSegment = int64(len(p))
	}
	telemetry.BlobSegmentBytes.Observe(float64(len(p)))
	return nil
}

// ReadSegment copies the current segment into p. When p is smaller than what
// is left of the segment the status is SegmentPartial and the next call
// continues where this one stopped.
func (h *handle) ReadSegment(p []byte) (int, engine.SegmentStatus, error) {
	if h.closed {
		return 0, engine.SegmentEOF, errHandleClosed
	}
	if h.write {
		return 0, engine.SegmentEOF, fmt.Errorf("blob %s is open for writing", h.id)
	}

	if !h.loaded {
		if h.next >= h.meta.Segments {
			return 0, engine.SegmentEOF, nil
		}
		seg, err := h.store.readSegment(h.id, h.next)
		if err != nil {
			return 0, engine.SegmentEOF, err
		}
		h.next++
		h.pending = seg
		h.loaded = true
	}

	n := copy(p, h.pending)
	h.pending = h.pending[n:]
	if len(h.pending) > 0 {
		return n, engine.SegmentPartial, nil
	}
	h.loaded = false
	return n, engine.SegmentOK, nil
}

// Info answers the requested items in the order asked, followed by InfoEnd.
func (h *handle) Info(items []byte, out []byte) error {
	if h.closed {
		return errHandleClosed
	}

	resp := make([]byte, 0, len(out))
	for _, item := range items {
		if item == engine.InfoEnd {
			break
		}
		var v int64
		switch item {
		case engine.InfoNumSegments:
			v = h.meta.Segments
		case engine.InfoMaxSegment:
			v = h.meta.MaxSegment
		case engine.InfoTotalLength:
			v = h.meta.TotalLength
		case engine.InfoBlobType:
			v = h.meta.Type
		default:
			return fmt.Errorf("unknown blob info item %d", item)
		}
		resp = engine.AppendInfoItem(resp, item, v)
	}
	resp = append(resp, engine.InfoEnd)

	if len(resp) > len(out) {
		if len(out) > 0 {
			out[0] = engine.InfoTruncated
		}
		return nil
	}
	copy(out, resp)
	return nil
}

// Close commits the metadata of a written blob and releases the handle
func (h *handle) Close() error {
	if h.closed {
		return errHandleClosed
	}
	h.closed = true
	defer h.store.release(h)

	if !h.write {
		h.pending = nil
		return nil
	}
	if h.store.closed.Load() {
		return ErrStoreClosed
	}

	data, err := encoding.Marshal(&h.meta)
	if err != nil {
		return fmt.Errorf("failed to encode blob metadata: %w", err)
	}
	// Sync: the blob id may be stored elsewhere as soon as Close returns
	if err := h.store.db.Set(metaKey(h.id), data, pebble.Sync); err != nil {
		return err
	}

	log.Debug().
		Stringer("blob_id", h.id).
		Int64("segments", h.meta.Segments).
		Int64("total_length", h.meta.TotalLength).
		Msg("Committed blob")
	return nil
}
