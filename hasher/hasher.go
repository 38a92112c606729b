package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"sync"

	"sigscan/logger"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"
)

const hashBufferSize = 64 * 1024

var hashBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, hashBufferSize)
		return &buf
	},
}

// Supported lists the algorithm names accepted by ComputeHashes.
var Supported = []string{"md5", "sha1", "sha256", "blake3", "xxh64"}

func newHash(algo string) (hash.Hash, bool) {
	switch algo {
	case "md5":
		return md5.New(), true
	case "sha1":
		return sha1.New(), true
	case "sha256":
		return sha256.New(), true
	case "blake3":
		return blake3.New(32, nil), true
	case "xxh64":
		return xxhash.New(), true
	default:
		return nil, false
	}
}

// ComputeHashes digests the file once, feeding every requested algorithm.
// Unknown algorithms are logged and skipped; a read failure yields an empty map.
func ComputeHashes(path string, algorithms []string) map[string]string {
	hashes := make(map[string]string, len(algorithms))
	if len(algorithms) == 0 {
		return hashes
	}

	type hasherEntry struct {
		name string
		h    hash.Hash
	}
	hashers := make([]hasherEntry, 0, len(algorithms))
	seen := make(map[string]struct{}, len(algorithms))
	for _, algo := range algorithms {
		if _, ok := seen[algo]; ok {
			continue
		}
		h, ok := newHash(algo)
		if !ok {
			logger.Warnf("Unsupported hash algorithm: %s", algo)
			continue
		}
		seen[algo] = struct{}{}
		hashers = append(hashers, hasherEntry{name: algo, h: h})
	}
	if len(hashers) == 0 {
		return hashes
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Warnf("Failed to open file for hashing %s: %v", path, err)
		return hashes
	}
	defer file.Close()

	writers := make([]io.Writer, len(hashers))
	for i := range hashers {
		writers[i] = hashers[i].h
	}
	bufferPtr := hashBufferPool.Get().(*[]byte)
	defer hashBufferPool.Put(bufferPtr)
	if _, err := io.CopyBuffer(io.MultiWriter(writers...), file, *bufferPtr); err != nil {
		logger.Warnf("Failed to compute hashes for %s: %v", path, err)
		return map[string]string{}
	}

	for i := range hashers {
		hashes[hashers[i].name] = hex.EncodeToString(hashers[i].h.Sum(nil))
	}
	return hashes
}
