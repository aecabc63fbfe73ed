package storage

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec serializes results to and from their on-disk form
type Codec interface {
	Name() string
	Ext() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// JSONCodec writes indented JSON
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }
func (JSONCodec) Ext() string  { return ".json" }

func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// CBORCodec writes compact CBOR with RFC 3339 timestamps
type CBORCodec struct {
	enc cbor.EncMode
}

// NewCBORCodec creates a CBOR codec with canonical map ordering
func NewCBORCodec() (*CBORCodec, error) {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	enc, err := opts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create cbor encoder: %w", err)
	}
	return &CBORCodec{enc: enc}, nil
}

func (c *CBORCodec) Name() string { return "cbor" }
func (c *CBORCodec) Ext() string  { return ".cbor" }

func (c *CBORCodec) Marshal(v interface{}) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *CBORCodec) Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}

// CodecByName returns the codec for a configured storage format
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return NewCBORCodec()
	default:
		return nil, fmt.Errorf("unsupported storage codec: %s (use json or cbor)", name)
	}
}

// codecForExt picks the decoder for a stored file
func codecForExt(ext string) (Codec, error) {
	switch ext {
	case ".json":
		return JSONCodec{}, nil
	case ".cbor":
		return NewCBORCodec()
	default:
		return nil, fmt.Errorf("unknown result file extension: %s", ext)
	}
}
