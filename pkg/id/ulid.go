// Package id provides sortable ID generation for request tracing.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet (excludes I, L, O, U to avoid confusion).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewULID generates a ULID: a 26-character string of 10 timestamp chars
// (48-bit milliseconds) followed by 16 random chars (80 bits). ULIDs
// sort lexicographically by creation time, which keeps request IDs
// greppable in order.
func NewULID() string {
	ms := uint64(time.Now().UnixMilli())

	randomBytes := make([]byte, 10)
	if _, err := rand.Read(randomBytes); err != nil {
		// Degraded but functional entropy.
		binary.BigEndian.PutUint64(randomBytes[:8], uint64(time.Now().UnixNano()))
	}

	var ulid [26]byte
	for i := 9; i >= 0; i-- {
		ulid[i] = crockfordBase32[ms&0x1F]
		ms >>= 5
	}

	// 80 random bits become 16 base32 chars.
	var acc uint32
	bits := 0
	pos := 10
	for _, b := range randomBytes {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			ulid[pos] = crockfordBase32[(acc>>bits)&0x1F]
			pos++
		}
	}

	return string(ulid[:])
}
