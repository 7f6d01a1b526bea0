package pipeline

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/HappyEinara/wingline/internal/record"
)

// recordByteWriter builds a deterministic byte encoding of a sequence
// of records, used only to derive a stable content hash (spec §3: "hash
// of the serialized sequence ... stable across runs for equal
// sequences"). It is not a wire format — nothing reads it back.
type recordByteWriter struct {
	buf bytes.Buffer
}

func (w *recordByteWriter) Bytes() []byte { return w.buf.Bytes() }

func (w *recordByteWriter) writeRecord(r *record.Record) {
	w.writeUint(uint64(r.Len()))
	r.Range(func(key string, v record.Value) bool {
		w.writeString(key)
		w.writeValue(v)
		return true
	})
}

func (w *recordByteWriter) writeValue(v record.Value) {
	w.buf.WriteByte(byte(v.Kind()))
	switch v.Kind() {
	case record.KindNull:
	case record.KindBool:
		if v.Bool() {
			w.buf.WriteByte(1)
		} else {
			w.buf.WriteByte(0)
		}
	case record.KindInt:
		w.writeUint(uint64(v.Int()))
	case record.KindFloat:
		w.writeString(fmt.Sprintf("%g", v.Float()))
	case record.KindString:
		w.writeString(v.String())
	case record.KindBytes:
		w.writeUint(uint64(len(v.Bytes())))
		w.buf.Write(v.Bytes())
	case record.KindTime:
		w.writeString(v.Time().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
	case record.KindList:
		w.writeUint(uint64(len(v.List())))
		for _, e := range v.List() {
			w.writeValue(e)
		}
	case record.KindMap:
		w.writeRecord(v.Map())
	}
}

func (w *recordByteWriter) writeString(s string) {
	w.writeUint(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *recordByteWriter) writeUint(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}
