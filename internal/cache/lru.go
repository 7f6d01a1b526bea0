package cache

import (
	"hash"
	"sync"

	"github.com/minio/highwayhash"
)

// lru is a fixed-capacity least-recently-used map from a stage hash
// string to whether that hash was last observed present on disk. It
// exists purely to avoid repeated stat() calls for hot stages; it is
// never consulted as a substitute for the canonical on-disk check when
// capacity is disabled or the key has been evicted.
//
// Adapted from _examples/scrapbird-breachline/application/app/cache
// /lru.go's doubly-linked-list LRUList, generalized from "cache entry
// bookkeeping" to "hit/miss bookkeeping" for this domain. Internal map
// keys are a HighwayHash-64 of the (already content-addressed) stage
// hash string rather than the string itself — a non-canonical speedup
// for the hot path; the stage's real identity is always the BLAKE2b-64
// hash computed in internal/hashid, never this derived key.
type lru struct {
	mu       sync.Mutex
	capacity int
	key      highwayhashKeyer
	head     *lruNode
	tail     *lruNode
	nodes    map[uint64]*lruNode
}

type lruNode struct {
	mapKey     uint64
	hit        bool
	prev, next *lruNode
}

// highwayhashKeyer lazily builds the hash.Hash64 on first use so the
// zero value (as embedded in a freshly allocated lru) is ready to go
// without an explicit constructor step.
type highwayhashKeyer struct {
	h hash.Hash64
}

var highwayhashZeroKey = make([]byte, 32)

func (k *highwayhashKeyer) sum(s string) uint64 {
	if k.h == nil {
		h, err := highwayhash.New64(highwayhashZeroKey)
		if err != nil {
			// Only fails for a key of the wrong length; the zero key
			// above is always 32 bytes.
			panic(err)
		}
		k.h = h
	}
	k.h.Reset()
	_, _ = k.h.Write([]byte(s))
	return k.h.Sum64()
}

func newLRU(capacity int) *lru {
	head := &lruNode{}
	tail := &lruNode{}
	head.next = tail
	tail.prev = head
	return &lru{
		capacity: capacity,
		nodes:    make(map[uint64]*lruNode, capacity),
		head:     head,
		tail:     tail,
	}
}

func (l *lru) get(hash string) (hit bool, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := l.key.sum(hash)
	n, exists := l.nodes[k]
	if !exists {
		return false, false
	}
	l.moveToFront(n)
	return n.hit, true
}

func (l *lru) put(hash string, hit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := l.key.sum(hash)
	if n, exists := l.nodes[k]; exists {
		n.hit = hit
		l.moveToFront(n)
		return
	}
	n := &lruNode{mapKey: k, hit: hit}
	l.nodes[k] = n
	l.pushFront(n)
	if len(l.nodes) > l.capacity {
		l.evictOldest()
	}
}

func (l *lru) pushFront(n *lruNode) {
	n.next = l.head.next
	n.prev = l.head
	l.head.next.prev = n
	l.head.next = n
}

func (l *lru) remove(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (l *lru) moveToFront(n *lruNode) {
	l.remove(n)
	l.pushFront(n)
}

func (l *lru) evictOldest() {
	oldest := l.tail.prev
	if oldest == l.head {
		return
	}
	l.remove(oldest)
	delete(l.nodes, oldest.mapKey)
}
