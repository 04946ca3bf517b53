// Package crypto implements the CREATE2 preimage builder and the
// hash+score kernel. Both are pure, stateless functions;
// all allocation-avoidance buffers are owned by the caller (pkg/worker)
// so the hot loop never allocates.
package crypto

import (
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// PreimageLen is the CREATE2 preimage length: 0xff(1) + factory(20) +
	// salt(32) + init_code_hash(32).
	PreimageLen = 1 + 20 + 32 + 32

	factoryOffset  = 1
	saltOffset     = factoryOffset + 20
	initHashOffset = saltOffset + 32
)

// NewHasher returns a fresh keccak256 hasher sized for the CPU hot loop.
// Workers keep one per goroutine and reuse it across attempts.
func NewHasher() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// BuildPreimage writes the 85-byte CREATE2 preimage into buf:
//
//	buf[0]      = 0xff
//	buf[1:21]   = factory
//	buf[21:41]  = callingAddress (first 20 bytes of the 32-byte salt field)
//	buf[41:53]  = nonce12 (the free nonce the search enumerates)
//	buf[53:85]  = initCodeHash
//
// buf must be exactly PreimageLen bytes. This is the sole place the
// preimage layout is assembled; any byte-order deviation here breaks
// every downstream address.
func BuildPreimage(buf []byte, factory, callingAddress [20]byte, nonce12 [12]byte, initCodeHash [32]byte) {
	buf[0] = 0xff
	copy(buf[factoryOffset:factoryOffset+20], factory[:])
	copy(buf[saltOffset:saltOffset+20], callingAddress[:])
	copy(buf[saltOffset+20:saltOffset+32], nonce12[:])
	copy(buf[initHashOffset:initHashOffset+32], initCodeHash[:])
}

// Salt extracts the full 32-byte salt (callingAddress || nonce12) from a
// preimage built by BuildPreimage.
func Salt(preimage []byte) [32]byte {
	var s [32]byte
	copy(s[:], preimage[saltOffset:saltOffset+32])
	return s
}

// HashAddress computes keccak256(preimage) into hashBuf (>=32 bytes) and
// writes the low 20 bytes (the candidate address) into addrBuf (20
// bytes). hasher is reset and reused; no allocation occurs in the hot
// path.
func HashAddress(hasher hash.Hash, preimage, hashBuf, addrBuf []byte) {
	hasher.Reset()
	hasher.Write(preimage)
	sum := hasher.Sum(hashBuf[:0])
	copy(addrBuf, sum[12:32])
}

// Score counts leading and total zero bytes in a 20-byte address.
func Score(addr []byte) (leading, total int) {
	seenNonZero := false
	for _, b := range addr {
		if b == 0 {
			total++
			if !seenNonZero {
				leading++
			}
		} else {
			seenNonZero = true
		}
	}
	return leading, total
}

// Keccak256 hashes data with keccak-256 (not SHA3-256). Used to hash
// init-code after pipeline placeholder substitution.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// HexToAddress decodes a 40-hex-char address string (optionally 0x- or
// 0X-prefixed) into a fixed 20-byte array.
func HexToAddress(s string) ([20]byte, error) {
	var out [20]byte
	b, err := decodeFixedHex(s, 20)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// HexToHash32 decodes a 64-hex-char hash string into a fixed 32-byte
// array.
func HexToHash32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := decodeFixedHex(s, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func decodeFixedHex(s string, wantLen int) ([]byte, error) {
	h := strings.TrimSpace(s)
	if len(h) >= 2 && (h[0:2] == "0x" || h[0:2] == "0X") {
		h = h[2:]
	}
	if len(h) != wantLen*2 {
		return nil, fmt.Errorf("invalid hex length: got %d hex chars, want %d", len(h), wantLen*2)
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// AddressToHex lowercases a 20-byte address to plain hex with no 0x
// prefix, the format the pipeline resolver substitutes into bin files.
func AddressToHex(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}
