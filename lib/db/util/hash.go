package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// NewSeed returns a random seed for key hashing
func NewSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Hash64 is FNV-1a with the seed mixed into the offset basis
func Hash64(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	h := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// NodeID maps a human readable replica name (e.g. "node-1") to the numeric id
// used by the raft cluster. Equal names give equal ids on every machine.
// The result is never zero since raft reserves it.
func NodeID(name string) uint64 {
	if id := Hash64(name, 0); id != 0 {
		return id
	}
	return 1
}
