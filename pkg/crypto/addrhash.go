package crypto

import (
	"golang.org/x/crypto/argon2"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

// Argon2id tuning for address derivation. Deliberately cheaper than the
// mining hash's parameters (this runs on every witness check, not once per
// block attempt), but still memory-hard rather than a bare fast hash.
const (
	addrTimeCost  = 1
	addrMemoryKiB = 8 * 1024
	addrThreads   = 2
)

// AddressFromPubKeyArgon2 derives an address from a compressed public key
// using Argon2id, matching the ownership-confirmation contract. This is
// the production address-derivation path; AddressFromPubKey (BLAKE3) is
// the faster devnet/test path selected by the useDevHash flag threaded
// through validation.
func AddressFromPubKeyArgon2(pubKey []byte) types.Address {
	sum := argon2.IDKey(pubKey, nil, addrTimeCost, addrMemoryKiB, addrThreads, types.AddressSize)
	var addr types.Address
	copy(addr[:], sum)
	return addr
}

// DeriveAddress derives an address from a compressed public key, selecting
// between the Argon2id production path and the BLAKE3 devnet path.
func DeriveAddress(pubKey []byte, useDevHash bool) types.Address {
	if useDevHash {
		return AddressFromPubKey(pubKey)
	}
	return AddressFromPubKeyArgon2(pubKey)
}
