// Package bitmap implements the signature bitmap: a bit-packed
// representation of which validators, in an ordered list, signed a
// particular past block.
//
// The packing convention is big-endian within each byte: the first
// validator in the list occupies bit 7 of byte 0, the second bit 6, and so
// on. The shape of the API (sentinel errors for malformed input, plain
// pack/unpack-against-a-validator-list operations) is grounded on the
// ethereum-go-ethereum repo's network/bitvector test fixtures.
package bitmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/consensus-core/common"
)

// ErrTruncated is returned by Deserialize when the buffer is shorter than
// its own length prefix claims.
var ErrTruncated = errors.New("bitmap: truncated buffer")

// ErrUnknownSigners is the diagnostic Pack reports when signers contains
// keys absent from validators (§4.A). The returned Bitmap is still valid:
// the absent keys are silently dropped from it.
var ErrUnknownSigners = errors.New("bitmap: signers contains keys not in validator list")

// Bitmap is a contiguous, big-endian-packed byte sequence: bit i (counting
// from the most significant bit of byte 0) is 1 iff validator i signed.
type Bitmap []byte

// Pack builds a Bitmap for signers relative to the ordered validator list.
// If signers contains a key not present in validators, that key is dropped
// from the bitmap and ErrUnknownSigners is returned alongside the
// otherwise-valid Bitmap. Pack logs a warning for it itself; callers must
// not treat it as fatal.
func Pack(signers map[common.PublicKey]struct{}, validators []common.PublicKey) (Bitmap, error) {
	bm := make(Bitmap, byteLen(len(validators)))
	matched := 0
	for i, v := range validators {
		if _, ok := signers[v]; ok {
			bm[i/8] |= 1 << uint(7-i%8)
			matched++
		}
	}
	if matched != len(signers) {
		err := fmt.Errorf("%w: %d of %d signer keys matched the validator list", ErrUnknownSigners, matched, len(signers))
		log.Warn("bitmap: pack dropped unknown signer keys", "matched", matched, "signers", len(signers))
		return bm, err
	}
	return bm, nil
}

// UnpackToSet returns the set of validators whose bit is set in bm. Excess
// bits beyond len(validators) are ignored (§4.A).
func UnpackToSet(bm Bitmap, validators []common.PublicKey) map[common.PublicKey]struct{} {
	out := make(map[common.PublicKey]struct{})
	for i, v := range validators {
		byteIdx := i / 8
		if byteIdx >= len(bm) {
			break
		}
		if bm[byteIdx]&(1<<uint(7-i%8)) != 0 {
			out[v] = struct{}{}
		}
	}
	return out
}

// Popcount returns the number of set bits in bm.
func Popcount(bm Bitmap) int {
	n := 0
	for _, b := range bm {
		n += bits.OnesCount8(b)
	}
	return n
}

// byteLen returns ceil(n/8).
func byteLen(n int) int {
	return (n + 7) / 8
}

// Serialize encodes bm as a 4-byte little-endian length prefix followed by
// its bytes (§6).
func Serialize(bm Bitmap) []byte {
	out := make([]byte, 4+len(bm))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(bm)))
	copy(out[4:], bm)
	return out
}

// Deserialize decodes the wire format Serialize produces.
func Deserialize(data []byte) (Bitmap, error) {
	if len(data) < 4 {
		return nil, ErrTruncated
	}
	n := binary.LittleEndian.Uint32(data[:4])
	if uint64(len(data)-4) < uint64(n) {
		return nil, ErrTruncated
	}
	bm := make(Bitmap, n)
	copy(bm, data[4:4+n])
	return bm, nil
}
