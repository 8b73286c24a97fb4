// Package common holds the small fixed-size identifier types shared by
// every consensus-core package: block/vertex hashes and validator public
// keys. Both are comparable value types so they can be used directly as
// map keys, the same way go-ethereum's common.Hash/common.Address are.
package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// HashLength is the byte length of a VertexId / block hash.
const HashLength = 32

// Hash identifies a vertex or block by its content digest. Hashing itself is
// an opaque external collaborator (§1 non-goal); this type only carries the
// already-computed digest.
type Hash [HashLength]byte

// BytesToHash right-aligns b into a Hash, truncating from the left if b is
// longer than HashLength.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash decodes a hex string (with or without 0x prefix) into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(FromHex(s))
}

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) Hex() string    { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) String() string { return h.Hex() }

// PublicKeyLength is the byte length of a PublicKey: one algorithm tag byte
// plus 32 raw key bytes, wide enough for either an Ed25519 key or a
// compressed secp256k1 key.
const PublicKeyLength = 33

// Algorithm tags for PublicKey.Tag().
const (
	AlgEd25519   byte = 1
	AlgSecp256k1 byte = 2
)

// PublicKey identifies a validator. Signing/verification is an opaque
// external collaborator; this type only carries the encoded key.
type PublicKey [PublicKeyLength]byte

// BytesToPublicKey right-aligns b into a PublicKey.
func BytesToPublicKey(b []byte) PublicKey {
	var k PublicKey
	if len(b) > PublicKeyLength {
		b = b[len(b)-PublicKeyLength:]
	}
	copy(k[PublicKeyLength-len(b):], b)
	return k
}

// HexToPublicKey decodes a hex string (with or without 0x prefix) into a PublicKey.
func HexToPublicKey(s string) PublicKey {
	return BytesToPublicKey(FromHex(s))
}

func (k PublicKey) Tag() byte    { return k[0] }
func (k PublicKey) Bytes() []byte { return k[:] }
func (k PublicKey) Hex() string   { return "0x" + hex.EncodeToString(k[:]) }
func (k PublicKey) String() string { return k.Hex() }

// Less reports whether k sorts strictly before other in the total,
// node-agreed byte order every map keyed by PublicKey must iterate in for
// results to match across nodes.
func (k PublicKey) Less(other PublicKey) bool {
	return bytes.Compare(k[:], other[:]) < 0
}

// FromHex decodes a hex string, accepting an optional "0x"/"0X" prefix.
// Malformed input decodes to nil rather than panicking; callers that need to
// distinguish malformed input from an empty key should use hex.DecodeString
// directly.
func FromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// EraID identifies a protocol era.
type EraID uint64

func (e EraID) String() string { return fmt.Sprintf("era-%d", uint64(e)) }

// PeerID is an opaque handle for a network peer, supplied by the transport
// collaborator and never interpreted by this module.
type PeerID string
