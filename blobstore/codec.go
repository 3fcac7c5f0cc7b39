package blobstore

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Segment values start with a one byte codec tag
const (
	tagRaw  byte = 0
	tagZstd byte = 1
)

// segmentCodec compresses segments with pooled zstd encoders and decoders
type segmentCodec struct {
	level       zstd.EncoderLevel
	enabled     bool
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newSegmentCodec(level int) *segmentCodec {
	return &segmentCodec{
		level:   configLevelToZstd(level),
		enabled: level > 0,
	}
}

// encode returns the stored form of p. Segments that do not shrink are kept raw.
func (c *segmentCodec) encode(p []byte) ([]byte, error) {
	if c.enabled && len(p) > 0 {
		enc, err := c.encoder()
		if err != nil {
			return nil, err
		}
		out := enc.EncodeAll(p, []byte{tagZstd})
		c.encoderPool.Put(enc)
		if len(out) < len(p)+1 {
			return out, nil
		}
	}

	out := make([]byte, 0, len(p)+1)
	out = append(out, tagRaw)
	return append(out, p...), nil
}

// decode returns a fresh copy of the payload held by a stored segment
func (c *segmentCodec) decode(val []byte) ([]byte, error) {
	if len(val) == 0 {
		return nil, fmt.Errorf("empty segment value")
	}

	switch val[0] {
	case tagRaw:
		return append([]byte{}, val[1:]...), nil
	case tagZstd:
		dec, err := c.decoder()
		if err != nil {
			return nil, err
		}
		defer c.decoderPool.Put(dec)
		return dec.DecodeAll(val[1:], nil)
	}
	return nil, fmt.Errorf("unknown segment codec tag %d", val[0])
}

func (c *segmentCodec) encoder() (*zstd.Encoder, error) {
	if enc, ok := c.encoderPool.Get().(*zstd.Encoder); ok {
		return enc, nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level))
}

func (c *segmentCodec) decoder() (*zstd.Decoder, error) {
	if dec, ok := c.decoderPool.Get().(*zstd.Decoder); ok {
		return dec, nil
	}
	return zstd.NewReader(nil)
}

// close releases pooled decoders, which hold background goroutines
func (c *segmentCodec) close() {
	for {
		dec, ok := c.decoderPool.Get().(*zstd.Decoder)
		if !ok {
			return
		}
		dec.Close()
	}
}

// configLevelToZstd maps config levels (1-4) to zstd.EncoderLevel
func configLevelToZstd(level int) zstd.EncoderLevel {
	switch level {
	case 1:
		return zstd.SpeedFastest
	case 2:
		return zstd.SpeedDefault
	case 3:
		return zstd.SpeedBetterCompression
	case 4:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedFastest
	}
}
