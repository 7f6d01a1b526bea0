package fileio

import (
	"fmt"
	"io"
	"time"

	"github.com/HappyEinara/wingline/internal/record"
	"github.com/vmihailenco/msgpack/v5"
)

// msgpack implements the Msgpack format used for the intermediate
// cache (spec §4.5, §6): one top-level record per message, encoded via
// the low-level Encoder/Decoder so field order survives the round
// trip (msgpack.v5's struct/map marshaling would otherwise not
// preserve Record's insertion order). Values not natively encodable
// fall back per spec: decimals are out of scope for this data model,
// but datetimes encode as ISO-8601 strings and lists recurse.

type msgpackReader struct {
	dec *msgpack.Decoder
}

func newMsgpackReader(r io.Reader) RecordReader {
	return &msgpackReader{dec: msgpack.NewDecoder(r)}
}

func (mr *msgpackReader) Read() (*record.Record, error) {
	n, err := mr.dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	r := record.New()
	for i := 0; i < n; i++ {
		key, err := mr.dec.DecodeString()
		if err != nil {
			return nil, err
		}
		v, err := decodeMsgpackValue(mr.dec)
		if err != nil {
			return nil, err
		}
		r.Set(key, v)
	}
	return r, nil
}

// decodeMsgpackValue reads the wire shape for one record.Value: a one-byte
// Kind tag followed by the payload, letting the decoder dispatch
// without peeking at raw msgpack type codes. Wrapping every value this
// way costs a little space but keeps decode a closed recursion over
// Kind rather than over msgpack's wire format.
func decodeMsgpackValue(dec *msgpack.Decoder) (record.Value, error) {
	kind, err := dec.DecodeUint8()
	if err != nil {
		return record.Value{}, err
	}
	switch record.Kind(kind) {
	case record.KindNull:
		if err := dec.DecodeNil(); err != nil {
			return record.Value{}, err
		}
		return record.Null(), nil
	case record.KindBool:
		b, err := dec.DecodeBool()
		return record.Bool(b), err
	case record.KindInt:
		i, err := dec.DecodeInt64()
		return record.Int(i), err
	case record.KindFloat:
		f, err := dec.DecodeFloat64()
		return record.Float(f), err
	case record.KindString:
		s, err := dec.DecodeString()
		return record.String(s), err
	case record.KindBytes:
		b, err := dec.DecodeBytes()
		return record.Bytes(b), err
	case record.KindTime:
		s, err := dec.DecodeString()
		if err != nil {
			return record.Value{}, err
		}
		t, err := timeParse(s)
		return record.Time(t), err
	case record.KindList:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return record.Value{}, err
		}
		list := make([]record.Value, n)
		for i := 0; i < n; i++ {
			v, err := decodeMsgpackValue(dec)
			if err != nil {
				return record.Value{}, err
			}
			list[i] = v
		}
		return record.List(list), nil
	case record.KindMap:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return record.Value{}, err
		}
		m := record.New()
		for i := 0; i < n; i++ {
			key, err := dec.DecodeString()
			if err != nil {
				return record.Value{}, err
			}
			v, err := decodeMsgpackValue(dec)
			if err != nil {
				return record.Value{}, err
			}
			m.Set(key, v)
		}
		return record.Map(m), nil
	default:
		return record.Value{}, fmt.Errorf("fileio: unknown record kind %d in msgpack stream", kind)
	}
}

func timeParse(s string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05.000Z07:00", s)
}

type msgpackWriter struct {
	enc *msgpack.Encoder
}

func newMsgpackWriter(w io.Writer) RecordWriter {
	return &msgpackWriter{enc: msgpack.NewEncoder(w)}
}

func (mw *msgpackWriter) Write(r *record.Record) error {
	if err := mw.enc.EncodeMapLen(r.Len()); err != nil {
		return err
	}
	var encErr error
	r.Range(func(key string, v record.Value) bool {
		if err := mw.enc.EncodeString(key); err != nil {
			encErr = err
			return false
		}
		if err := encodeMsgpackValue(mw.enc, v); err != nil {
			encErr = err
			return false
		}
		return true
	})
	return encErr
}

func encodeMsgpackValue(enc *msgpack.Encoder, v record.Value) error {
	if err := enc.EncodeUint8(uint8(v.Kind())); err != nil {
		return err
	}
	switch v.Kind() {
	case record.KindNull:
		return enc.EncodeNil()
	case record.KindBool:
		return enc.EncodeBool(v.Bool())
	case record.KindInt:
		return enc.EncodeInt64(v.Int())
	case record.KindFloat:
		return enc.EncodeFloat64(v.Float())
	case record.KindString:
		return enc.EncodeString(v.String())
	case record.KindBytes:
		return enc.EncodeBytes(v.Bytes())
	case record.KindTime:
		return enc.EncodeString(v.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	case record.KindList:
		if err := enc.EncodeArrayLen(len(v.List())); err != nil {
			return err
		}
		for _, e := range v.List() {
			if err := encodeMsgpackValue(enc, e); err != nil {
				return err
			}
		}
		return nil
	case record.KindMap:
		m := v.Map()
		if err := enc.EncodeMapLen(m.Len()); err != nil {
			return err
		}
		var err error
		m.Range(func(key string, fv record.Value) bool {
			if err = enc.EncodeString(key); err != nil {
				return false
			}
			if err = encodeMsgpackValue(enc, fv); err != nil {
				return false
			}
			return true
		})
		return err
	default:
		return enc.EncodeNil()
	}
}

func (mw *msgpackWriter) Close() error { return nil }
