package graph

import "github.com/HappyEinara/wingline/internal/record"

// SourceFromSlice builds a tap source function that emits items in
// order, checking for abort before each put (spec §4.3: "All taps put
// records to their outbound queues and terminate with SENTINEL").
func SourceFromSlice(items []*record.Record) func(n *Node) {
	return func(n *Node) {
		for _, r := range items {
			if n.g.aborted() {
				return
			}
			n.putOutbound(r)
		}
	}
}

// SourceFromIterator builds a tap source function that drains it,
// pushing each yielded record until exhaustion or abort. Used by file
// taps and any other streaming, non-materialized source.
func SourceFromIterator(it Iterator) func(n *Node) {
	return func(n *Node) {
		for {
			if n.g.aborted() {
				return
			}
			r, ok := it.Next()
			if !ok {
				return
			}
			n.putOutbound(r)
		}
	}
}

// SourceFromFunc builds a tap source function from a pull closure that
// returns ok=false once exhausted, without requiring callers to wrap it
// in an Iterator value.
func SourceFromFunc(next func() (*record.Record, bool)) func(n *Node) {
	return SourceFromIterator(&funcIterator{next: next})
}

// NewSliceIterator exposes sliceIterator construction to sibling
// packages (e.g. fileio readers) without widening the Iterator surface.
func NewSliceIterator(items []*record.Record) Iterator { return &sliceIterator{items: items} }

// NewFuncIterator wraps a pull function as an Iterator.
func NewFuncIterator(next func() (*record.Record, bool)) Iterator { return &funcIterator{next: next} }
