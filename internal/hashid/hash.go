// Package hashid computes the content-addressed identity hashes used
// for stage identity (spec §3) and the intermediate cache (spec §4.6).
//
// Every hash is a 16 hex-char (64-bit) BLAKE2b digest, grounded on
// original_source/wingline/hasher.py's hashlib.blake2b(digest_size=8)
// and on opal-lang-opal/core/planfmt/writer.go's use of the same
// library for content-addressed digests.
package hashid

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the number of hash bytes; 8 bytes render as 16 hex
// chars, matching spec §3's "16 hex chars, BLAKE2b-64".
const DigestSize = 8

// ChunkSize is the read buffer used when streaming file contents
// through the hasher (spec §4.3: "4 KiB chunks").
const ChunkSize = 4096

// Hash is a stage's content fingerprint. The zero value means
// "no hash" (spec §3: non-deterministic sources propagate Hash{}, and
// Valid() reports false for it).
type Hash struct {
	digest [DigestSize]byte
	valid  bool
}

// Valid reports whether this hash is meaningful (as opposed to a
// non-deterministic source's absent hash).
func (h Hash) Valid() bool { return h.valid }

// String renders the hash as 16 lowercase hex chars, or "" if invalid.
func (h Hash) String() string {
	if !h.valid {
		return ""
	}
	return hex.EncodeToString(h.digest[:])
}

// Prefix2 returns the first two hex chars, used as the cache directory
// shard (spec §6: "<cache_dir>/<xx>/...").
func (h Hash) Prefix2() string {
	s := h.String()
	if len(s) < 2 {
		return ""
	}
	return s[:2]
}

func fromSum(sum []byte) Hash {
	var h Hash
	copy(h.digest[:], sum)
	h.valid = true
	return h
}

func newHasher() *blake2bHasher {
	hh, err := blake2b.New(DigestSize, nil)
	if err != nil {
		// Only returns an error for invalid key/size combinations; the
		// size used here is always valid, so this never fires.
		panic(err)
	}
	return &blake2bHasher{h: hh}
}

type blake2bHasher struct {
	h interface {
		io.Writer
		Sum(b []byte) []byte
	}
}

func (b *blake2bHasher) write(p []byte) { _, _ = b.h.Write(p) }
func (b *blake2bHasher) sum() Hash       { return fromSum(b.h.Sum(nil)) }

// HashBytes hashes a byte slice directly (used for small in-memory
// payloads such as a stage-identity string).
func HashBytes(data []byte) Hash {
	h := newHasher()
	h.write(data)
	return h.sum()
}

// HashReader streams r through the hasher in ChunkSize pieces, used by
// the file tap to fingerprint a file's raw bytes (spec §4.3) without
// holding the whole file in memory.
func HashReader(r io.Reader) (Hash, error) {
	h := newHasher()
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.write(buf[:n])
		}
		if err == io.EOF {
			return h.sum(), nil
		}
		if err != nil {
			return Hash{}, err
		}
	}
}

// HashFile streams a file's raw bytes through the hasher, implementing
// spec §3's "A file-tap's hash = hash of the file's byte contents."
func HashFile(path string) (Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hash{}, err
	}
	defer f.Close()
	return HashReader(f)
}

// HashSequence hashes an ordered, stably-serializable sequence. The
// caller supplies the sequence already rendered to bytes (e.g. via
// encoding/gob or a caller-chosen stable encoder); HashSequence itself
// only owns the hashing step, mirroring hasher.py's split between
// pickling (caller's concern) and hashing (this function's concern).
func HashSequence(serialized []byte) Hash {
	return HashBytes(serialized)
}

// Combine derives a descendant hash from a parent hash and a stage's
// own identity contribution, matching spec §3: "hash(parent_hash ∥
// hash(process_code))". If parent is invalid the result is invalid too
// (§3: "If any ancestor has no hash ... the descendant's hash is None").
func Combine(parent Hash, stageContribution Hash) Hash {
	if !parent.valid || !stageContribution.valid {
		return Hash{}
	}
	h := newHasher()
	h.write(parent.digest[:])
	h.write(stageContribution.digest[:])
	return h.sum()
}

// StageIdentity derives the hash contribution of a user-supplied
// transformation from an explicit identity string, per spec §9's
// design note: a compiled target cannot hash a closure, so callers
// that want caching must supply a stable identity string alongside
// their callable (e.g. a name plus a version, or a hash of the
// function's source). Two calls with equal id produce equal hashes.
func StageIdentity(id string) Hash {
	if id == "" {
		return Hash{}
	}
	return HashBytes([]byte(id))
}

// Uint64 exposes the raw digest as a uint64 for callers that need a
// numeric form (e.g. sharding); it is not part of the string identity
// contract.
func (h Hash) Uint64() uint64 {
	if !h.valid {
		return 0
	}
	return binary.BigEndian.Uint64(h.digest[:])
}
