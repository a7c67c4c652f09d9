package codec

import (
	"bytes"
	"fmt"

	"github.com/flogvit/rbm-request/message"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MsgpackCodec encodes the core form as a MessagePack map keyed by the
// wire field names, so a msgpack peer sees the same fields as a JSON one.
//
// Decoded params keep msgpack's native number types (int8, uint16, ...)
// instead of JSON's float64.
type MsgpackCodec struct{}

func (c *MsgpackCodec) Encode(v any) ([]byte, error) {
	core, err := coreOf(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeCore(enc, core); err != nil {
		return nil, fmt.Errorf("msgpack codec: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *MsgpackCodec) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	core, err := decodeCore(dec)
	if err != nil {
		return fmt.Errorf("msgpack codec: %w", err)
	}
	return store(core, v)
}

func (c *MsgpackCodec) Type() CodecType {
	return CodecTypeMsgpack
}

func encodeCore(enc *msgpack.Encoder, c message.Core) error {
	if err := enc.EncodeMapLen(c.Len()); err != nil {
		return err
	}
	return c.Each(func(key string, value any) error {
		if err := enc.EncodeString(key); err != nil {
			return err
		}
		switch t := value.(type) {
		case []message.Populate:
			return encodePopulate(enc, t)
		case message.User:
			return encodeUser(enc, t)
		}
		return enc.Encode(value)
	})
}

func encodePopulate(enc *msgpack.Encoder, entries []message.Populate) error {
	if err := enc.EncodeArrayLen(len(entries)); err != nil {
		return err
	}
	for _, p := range entries {
		if err := enc.EncodeMapLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString("request"); err != nil {
			return err
		}
		if err := encodeCore(enc, p.Request); err != nil {
			return err
		}
		if err := enc.EncodeString("returns"); err != nil {
			return err
		}
		if err := enc.EncodeString(p.Returns); err != nil {
			return err
		}
	}
	return nil
}

func encodeUser(enc *msgpack.Encoder, u message.User) error {
	if err := enc.EncodeMapLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString("uid"); err != nil {
		return err
	}
	if err := enc.Encode(u.UID); err != nil {
		return err
	}
	if err := enc.EncodeString("persistent"); err != nil {
		return err
	}
	return enc.EncodeBool(u.Persistent)
}

// decodeCore reads a map written by encodeCore. Unknown keys are skipped
// and a msgpack nil decodes to an empty core.
func decodeCore(dec *msgpack.Decoder) (message.Core, error) {
	var c message.Core
	n, err := dec.DecodeMapLen()
	if err != nil {
		return c, err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return c, err
		}
		switch key {
		case message.FieldCommand:
			c.Command, err = decodeString(dec)
		case message.FieldNow:
			c.Now, err = decodeInt64(dec)
		case message.FieldParams:
			c.Params, err = decodeBag(dec)
		case message.FieldExtra:
			c.Extra, err = decodeBag(dec)
		case message.FieldReqID:
			c.ReqID, err = decodeInt64(dec)
		case message.FieldSID:
			c.SID, err = decodeString(dec)
		case message.FieldRID:
			c.RID, err = decodeString(dec)
		case message.FieldPopulate:
			var entries []message.Populate
			entries, err = decodePopulate(dec)
			c.Populate = message.Some(entries)
		case message.FieldError:
			var code any
			code, err = dec.DecodeInterface()
			c.Error = message.Some(code)
		case message.FieldErrorText:
			c.ErrorText, err = decodeString(dec)
		case message.FieldUID:
			var u message.User
			u, err = decodeUser(dec)
			c.UID = message.Some(u)
		case message.FieldHops:
			var hops []string
			err = dec.Decode(&hops)
			c.Hops = message.Some(hops)
		default:
			err = dec.Skip()
		}
		if err != nil {
			return message.Core{}, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return c, nil
}

func decodePopulate(dec *msgpack.Decoder) ([]message.Populate, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil || n < 0 {
		return nil, err
	}
	entries := make([]message.Populate, 0, n)
	for i := 0; i < n; i++ {
		fields, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		var p message.Populate
		for j := 0; j < fields; j++ {
			key, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			switch key {
			case "request":
				p.Request, err = decodeCore(dec)
			case "returns":
				p.Returns, err = dec.DecodeString()
			default:
				err = dec.Skip()
			}
			if err != nil {
				return nil, err
			}
		}
		entries = append(entries, p)
	}
	return entries, nil
}

func decodeUser(dec *msgpack.Decoder) (message.User, error) {
	var u message.User
	n, err := dec.DecodeMapLen()
	if err != nil {
		return u, err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return u, err
		}
		switch key {
		case "uid":
			u.UID, err = dec.DecodeInterface()
		case "persistent":
			u.Persistent, err = dec.DecodeBool()
		default:
			err = dec.Skip()
		}
		if err != nil {
			return u, err
		}
	}
	return u, nil
}

func decodeString(dec *msgpack.Decoder) (message.Opt[string], error) {
	s, err := dec.DecodeString()
	if err != nil {
		return message.None[string](), err
	}
	return message.Some(s), nil
}

// decodeInt64 reads an integer, truncating float32/float64 values.
func decodeInt64(dec *msgpack.Decoder) (message.Opt[int64], error) {
	code, err := dec.PeekCode()
	if err != nil {
		return message.None[int64](), err
	}
	if code == msgpcode.Float || code == msgpcode.Double {
		f, err := dec.DecodeFloat64()
		if err != nil {
			return message.None[int64](), err
		}
		return message.Some(int64(f)), nil
	}
	n, err := dec.DecodeInt64()
	if err != nil {
		return message.None[int64](), err
	}
	return message.Some(n), nil
}

func decodeBag(dec *msgpack.Decoder) (message.Opt[map[string]any], error) {
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return message.None[map[string]any](), err
	}
	return message.Some(m), nil
}
