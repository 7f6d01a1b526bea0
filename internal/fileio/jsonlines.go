package fileio

import (
	"bufio"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/HappyEinara/wingline/internal/record"
)

// jsonlines implements the JSONLines format: one JSON object per line,
// UTF-8, newline-terminated; writer sorts keys and serializes dates as
// ISO-8601 strings (spec §4.5).

type jsonLinesReader struct {
	sc *bufio.Scanner
}

func newJSONLinesReader(r io.Reader) RecordReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &jsonLinesReader{sc: sc}
}

func (jr *jsonLinesReader) Read() (*record.Record, error) {
	for jr.sc.Scan() {
		line := jr.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return recordFromJSONMap(m), nil
	}
	if err := jr.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

type jsonLinesWriter struct {
	w io.Writer
}

func newJSONLinesWriter(w io.Writer) RecordWriter {
	return &jsonLinesWriter{w: w}
}

func (jw *jsonLinesWriter) Write(r *record.Record) error {
	// encoding/json sorts object keys on marshal, matching the spec's
	// "writer sorts keys" requirement without extra bookkeeping here.
	data, err := json.Marshal(jsonMapFromRecord(r))
	if err != nil {
		return err
	}
	if _, err := jw.w.Write(data); err != nil {
		return err
	}
	_, err = jw.w.Write([]byte("\n"))
	return err
}

func (jw *jsonLinesWriter) Close() error { return nil }

// jsonMapFromRecord flattens a Record to a plain JSON-encodable map.
func jsonMapFromRecord(r *record.Record) map[string]interface{} {
	m := make(map[string]interface{}, r.Len())
	r.Range(func(key string, v record.Value) bool {
		m[key] = jsonValue(v)
		return true
	})
	return m
}

func jsonValue(v record.Value) interface{} {
	switch v.Kind() {
	case record.KindNull:
		return nil
	case record.KindBool:
		return v.Bool()
	case record.KindInt:
		return v.Int()
	case record.KindFloat:
		return v.Float()
	case record.KindString:
		return v.String()
	case record.KindBytes:
		return v.Bytes()
	case record.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	case record.KindList:
		out := make([]interface{}, len(v.List()))
		for i, e := range v.List() {
			out[i] = jsonValue(e)
		}
		return out
	case record.KindMap:
		return jsonMapFromRecord(v.Map())
	default:
		return nil
	}
}

// recordFromJSONMap lifts a decoded JSON object back into a Record.
// encoding/json decodes objects into map[string]interface{}, which
// loses key order; JSONLines therefore does not guarantee key-order
// round trip (only CSV and Msgpack do, per spec §8 property 4).
func recordFromJSONMap(m map[string]interface{}) *record.Record {
	r := record.New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, recordValueFromJSON(m[k]))
	}
	return r
}

func recordValueFromJSON(v interface{}) record.Value {
	switch t := v.(type) {
	case nil:
		return record.Null()
	case bool:
		return record.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return record.Int(int64(t))
		}
		return record.Float(t)
	case string:
		return record.String(t)
	case []interface{}:
		out := make([]record.Value, len(t))
		for i, e := range t {
			out[i] = recordValueFromJSON(e)
		}
		return record.List(out)
	case map[string]interface{}:
		return record.Map(recordFromJSONMap(t))
	default:
		return record.Null()
	}
}
