// Package stages implements the built-in windowed all-process stages:
// Head, Tail, and Bucket. All three need the whole-iterator shape
// (spec §4.2's "All-process... used for windowed operations") rather
// than the each-process shape, since none of them can decide a
// record's fate by looking at that record alone.
//
// Head/Tail are grounded on original_source/wingline's stream-slicing
// helpers; Bucket is adapted from
// _examples/scrapbird-breachline/application/app/histogram/bucket.go's
// fixed-size time bucketing, generalized from a query-result
// visualization helper into a general-purpose pipeline stage.
package stages

import (
	"time"

	"github.com/HappyEinara/wingline/internal/graph"
	"github.com/HappyEinara/wingline/internal/record"
)

func unixSeconds(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

// Head yields at most the first n records and then stops draining
// its input, matching spec §8 scenario S2.
func Head(n int) graph.AllProcess {
	return func(in graph.Iterator) graph.Iterator {
		return &headIterator{in: in, remaining: n}
	}
}

type headIterator struct {
	in        graph.Iterator
	remaining int
}

func (h *headIterator) Next() (*record.Record, bool) {
	if h.remaining <= 0 {
		return nil, false
	}
	r, ok := h.in.Next()
	if !ok {
		h.remaining = 0
		return nil, false
	}
	h.remaining--
	return r, true
}

// Tail yields the last n records, which requires draining the whole
// input before anything can be emitted (spec §8 scenario S2).
func Tail(n int) graph.AllProcess {
	return func(in graph.Iterator) graph.Iterator {
		buf := make([]*record.Record, 0, n)
		for {
			r, ok := in.Next()
			if !ok {
				break
			}
			buf = append(buf, r)
			if len(buf) > n {
				buf = buf[1:]
			}
		}
		return graph.NewSliceIterator(buf)
	}
}

// BucketConfig configures a fixed-width time bucketing stage.
type BucketConfig struct {
	// TimeField names the record field holding a time.Time value
	// (record.KindTime) to bucket on.
	TimeField string
	// BucketSizeSeconds is the fixed bucket width; records are grouped
	// by floor(unix_seconds / BucketSizeSeconds).
	BucketSizeSeconds int64
	// CountField names the output field holding the bucket's record
	// count. Defaults to "count".
	CountField string
	// BucketField names the output field holding the bucket's start
	// time, as a record.KindTime value. Defaults to "bucket".
	BucketField string
}

// Bucket groups records into fixed-width time windows and emits one
// aggregate record per non-empty bucket, in ascending bucket order.
// Records missing TimeField or holding a non-time value there are
// dropped from the aggregation (they have no bucket to join).
func Bucket(cfg BucketConfig) graph.AllProcess {
	countField := cfg.CountField
	if countField == "" {
		countField = "count"
	}
	bucketField := cfg.BucketField
	if bucketField == "" {
		bucketField = "bucket"
	}
	size := cfg.BucketSizeSeconds
	if size < 1 {
		size = 1
	}

	return func(in graph.Iterator) graph.Iterator {
		counts := make(map[int64]int64)
		var order []int64

		for {
			r, ok := in.Next()
			if !ok {
				break
			}
			v, ok := r.Get(cfg.TimeField)
			if !ok || v.Kind() != record.KindTime {
				continue
			}
			key := (v.Time().Unix() / size) * size
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		}

		sortInt64s(order)

		out := make([]*record.Record, len(order))
		for i, key := range order {
			rec := record.New()
			rec.Set(bucketField, record.Time(unixSeconds(key)))
			rec.Set(countField, record.Int(counts[key]))
			out[i] = rec
		}
		return graph.NewSliceIterator(out)
	}
}

func sortInt64s(s []int64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
