package record

import "fmt"

// FromStrings builds a Record by zipping header with row, in header
// order. Extra row values beyond header are dropped; missing ones are
// empty strings. This is the shape CSV rows arrive in.
func FromStrings(header []string, row []string) *Record {
	r := New()
	for i, key := range header {
		if i < len(row) {
			r.Set(key, String(row[i]))
		} else {
			r.Set(key, String(""))
		}
	}
	return r
}

// ToStrings renders a Record back to a row following header's key
// order, stringifying every value. Used by the CSV writer and by the
// round-trip identity property for all-string records.
func ToStrings(header []string, r *Record) []string {
	row := make([]string, len(header))
	for i, key := range header {
		v, ok := r.Get(key)
		if !ok {
			continue
		}
		row[i] = stringify(v)
	}
	return row
}

func stringify(v Value) string {
	switch v.Kind() {
	case KindNull:
		return ""
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.Int())
	case KindFloat:
		return fmt.Sprintf("%g", v.Float())
	case KindString:
		return v.String()
	case KindBytes:
		return string(v.Bytes())
	case KindTime:
		return v.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	default:
		return ""
	}
}
