// Package codec serializes envelopes for the wire.
//
// Two formats share the same sparse field set (see message.Core):
//   - JSON:    the canonical text form, byte-identical to Request.Data().
//   - Msgpack: a compact binary form for service-to-service hops.
package codec

import (
	"errors"
	"fmt"

	"github.com/flogvit/rbm-request/message"
)

type CodecType byte

const (
	CodecTypeJSON    CodecType = 0
	CodecTypeMsgpack CodecType = 1
)

// ErrUnsupportedType is returned when a codec is handed something other
// than an envelope or its core form.
var ErrUnsupportedType = errors.New("codec: v must be *message.Request or message.Core")

// Codec encodes and decodes envelopes.
//
// Encode accepts *message.Request, message.Core or *message.Core.
// Decode fills a *message.Request or *message.Core.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() CodecType // 0=JSON, 1=Msgpack
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &MsgpackCodec{}
}

// coreOf returns the sparse form of an encodable value.
func coreOf(v any) (message.Core, error) {
	switch t := v.(type) {
	case *message.Request:
		if t == nil {
			return message.Core{}, fmt.Errorf("%w: nil request", ErrUnsupportedType)
		}
		return t.DataCore(), nil
	case message.Core:
		return t, nil
	case *message.Core:
		if t == nil {
			return message.Core{}, fmt.Errorf("%w: nil core", ErrUnsupportedType)
		}
		return *t, nil
	}
	return message.Core{}, fmt.Errorf("%w, got %T", ErrUnsupportedType, v)
}

// store writes a decoded core form into v.
func store(c message.Core, v any) error {
	switch t := v.(type) {
	case *message.Request:
		if t == nil {
			return fmt.Errorf("%w: nil request", ErrUnsupportedType)
		}
		*t = *message.New(&c)
		return nil
	case *message.Core:
		if t == nil {
			return fmt.Errorf("%w: nil core", ErrUnsupportedType)
		}
		*t = c
		return nil
	}
	return fmt.Errorf("%w, got %T", ErrUnsupportedType, v)
}
