// Package blob streams large objects to and from an engine in segments.
package blob

import (
	"errors"
	"io"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/rs/zerolog/log"
)

// MaxSegmentSize is the largest segment written in one call.
const MaxSegmentSize = 32 * 1024

var (
	// ErrClosed is returned by every operation on a closed stream.
	ErrClosed = errors.New("blob stream is closed")
	// ErrWrongMode is returned when reading a stream opened for writing or
	// writing a stream opened for reading.
	ErrWrongMode = errors.New("blob stream mode does not allow this operation")
)

// Mode is the direction a stream was opened in.
type Mode int

const (
	ModeWrite Mode = iota
	ModeRead
)

func (m Mode) String() string {
	if m == ModeRead {
		return "read"
	}
	return "write"
}

// Stream is one open blob. A stream is not safe for concurrent use.
type Stream struct {
	h      engine.BlobHandle
	id     engine.BlobID
	mode   Mode
	closed bool
}

// Create creates a new blob for writing. Its id is known immediately and can
// be bound as a parameter once the stream is closed.
func Create(store engine.BlobStore) (*Stream, error) {
	h, err := store.CreateBlob()
	if err != nil {
		telemetry.EngineErrorsTotal.With("create_blob").Inc()
		return nil, engine.Wrap("create blob", err)
	}
	s := &Stream{h: h, id: h.ID(), mode: ModeWrite}
	log.Debug().Stringer("blob_id", s.id).Msg("Created blob")
	return s, nil
}

// Open opens an existing blob for reading.
func Open(store engine.BlobStore, id engine.BlobID) (*Stream, error) {
	h, err := store.OpenBlob(id)
	if err != nil {
		telemetry.EngineErrorsTotal.With("open_blob").Inc()
		return nil, engine.Wrap("open blob", err)
	}
	log.Debug().Stringer("blob_id", id).Msg("Opened blob")
	return &Stream{h: h, id: id, mode: ModeRead}, nil
}

// ID returns the blob id.
func (s *Stream) ID() engine.BlobID {
	return s.id
}

// Mode returns the direction the stream was opened in.
func (s *Stream) Mode() Mode {
	return s.mode
}

func (s *Stream) check(mode Mode) error {
	if s.closed {
		return ErrClosed
	}
	if s.mode != mode {
		return ErrWrongMode
	}
	return nil
}

// Put appends p as one segment per MaxSegmentSize chunk, in order. An empty
// p writes nothing.
func (s *Stream) Put(p []byte) error {
	if err := s.check(ModeWrite); err != nil {
		return err
	}
	for len(p) > 0 {
		n := min(len(p), MaxSegmentSize)
		if err := s.h.WriteSegment(p[:n]); err != nil {
			telemetry.EngineErrorsTotal.With("put_segment").Inc()
			return engine.Wrap("put segment", err)
		}
		telemetry.BlobSegmentsTotal.With("write").Inc()
		telemetry.BlobBytesTotal.With("write").Add(float64(n))
		p = p[n:]
	}
	return nil
}

// PutString appends str like Put.
func (s *Stream) PutString(str string) error {
	return s.Put([]byte(str))
}

// Write implements io.Writer on top of Put.
func (s *Stream) Write(p []byte) (int, error) {
	if err := s.Put(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// readSegment reads at most len(p) bytes of the current segment.
func (s *Stream) readSegment(p []byte) (int, engine.SegmentStatus, error) {
	n, status, err := s.h.ReadSegment(p)
	if err != nil {
		telemetry.EngineErrorsTotal.With("get_segment").Inc()
		return 0, status, engine.Wrap("get segment", err)
	}
	if n > 0 {
		telemetry.BlobSegmentsTotal.With("read").Inc()
		telemetry.BlobBytesTotal.With("read").Add(float64(n))
	}
	return n, status, nil
}

// Get returns at most limit bytes from the next segment. The engine may return
// fewer. At the end of the blob Get returns io.EOF.
func (s *Stream) Get(limit int) ([]byte, error) {
	if err := s.check(ModeRead); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = MaxSegmentSize
	}
	buf := make([]byte, limit)
	n, status, err := s.readSegment(buf)
	if err != nil {
		return nil, err
	}
	if status == engine.SegmentEOF {
		return nil, io.EOF
	}
	return buf[:n], nil
}

// GetAll drains the blob and returns its remaining bytes.
func (s *Stream) GetAll() ([]byte, error) {
	if err := s.check(ModeRead); err != nil {
		return nil, err
	}
	buf := make([]byte, MaxSegmentSize)
	var out []byte
	for {
		n, status, err := s.readSegment(buf)
		if err != nil {
			return nil, err
		}
		if status != engine.SegmentOK && status != engine.SegmentPartial {
			return out, nil
		}
		out = append(out, buf[:n]...)
	}
}

// GetString drains the blob as a string.
func (s *Stream) GetString() (string, error) {
	b, err := s.GetAll()
	return string(b), err
}

// Read implements io.Reader over the segments of the blob.
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.check(ModeRead); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, status, err := s.readSegment(p)
		if err != nil {
			return 0, err
		}
		if status == engine.SegmentEOF {
			return 0, io.EOF
		}
		if n > 0 {
			return n, nil
		}
	}
}

// Info asks the engine for one info item and returns its integer value.
func (s *Stream) Info(item byte) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	out := make([]byte, 32)
	if err := s.h.Info([]byte{item, engine.InfoEnd}, out); err != nil {
		telemetry.EngineErrorsTotal.With("blob_info").Inc()
		return 0, engine.Wrap("blob info", err)
	}
	v, err := engine.LookupInfo(out, item)
	if err != nil {
		return 0, engine.Wrap("blob info", err)
	}
	return v, nil
}

// NumSegments returns the number of segments stored.
func (s *Stream) NumSegments() (int64, error) {
	return s.Info(engine.InfoNumSegments)
}

// MaxSegment returns the length of the longest segment.
func (s *Stream) MaxSegment() (int64, error) {
	return s.Info(engine.InfoMaxSegment)
}

// TotalLength returns the blob length in bytes.
func (s *Stream) TotalLength() (int64, error) {
	return s.Info(engine.InfoTotalLength)
}

// Type returns engine.BlobSegmented or engine.BlobStream.
func (s *Stream) Type() (int64, error) {
	return s.Info(engine.InfoBlobType)
}

// Close finalizes a written blob or releases a read one. The handle is
// released even when the engine reports an error; a second Close returns
// ErrClosed.
func (s *Stream) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	if err := s.h.Close(); err != nil {
		telemetry.EngineErrorsTotal.With("close_blob").Inc()
		return engine.Wrap("close blob", err)
	}
	log.Debug().Stringer("blob_id", s.id).Str("mode", s.mode.String()).Msg("Closed blob")
	return nil
}
