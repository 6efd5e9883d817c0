package storage

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// CompressThreshold is the encoded size above which values are compressed
const CompressThreshold = 4 << 10

// Every stored value starts with one header byte naming its encoding
const (
	headerRaw  byte = 0x00
	headerZstd byte = 0x01
)

// ErrCorrupt is returned when a stored value cannot be decoded
var ErrCorrupt = errors.New("storage: corrupt value")

// Codec turns values into stored bytes and back. JSON goes through sonic;
// large payloads are zstd-compressed. A Codec is safe for concurrent use.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec creates a codec
func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// Encode marshals value and returns the stored form along with the JSON
func (c *Codec) Encode(value interface{}) (stored []byte, payload []byte, err error) {
	payload, err = sonic.Marshal(value)
	if err != nil {
		return nil, nil, fmt.Errorf("encode value: %w", err)
	}

	if len(payload) > CompressThreshold {
		stored = c.encoder.EncodeAll(payload, make([]byte, 1, len(payload)/2))
		stored[0] = headerZstd
		return stored, payload, nil
	}

	stored = make([]byte, 0, len(payload)+1)
	stored = append(stored, headerRaw)
	stored = append(stored, payload...)
	return stored, payload, nil
}

// Payload returns the JSON held in a stored value
func (c *Codec) Payload(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, ErrCorrupt
	}

	switch stored[0] {
	case headerRaw:
		return stored[1:], nil
	case headerZstd:
		payload, err := c.decoder.DecodeAll(stored[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: unknown header 0x%02x", ErrCorrupt, stored[0])
	}
}

// Decode unmarshals a stored value into dst
func (c *Codec) Decode(stored []byte, dst interface{}) error {
	payload, err := c.Payload(stored)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}

// Close releases the compressor's resources
func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
