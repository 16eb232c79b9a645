// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cry signs messages and recovers their signers on secp256k1.
package cry

import (
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/cache"
	"github.com/vechain/tierstake/types"
)

// SignatureLength is the size of a compact recoverable signature.
const SignatureLength = 65

var (
	signerCacheSize = 1024

	ErrInvalidSignature = errors.New("invalid signature")
)

// Signing signs message hashes and extracts signers.
type Signing struct {
	domain types.Bytes32
	cache  *cache.LRU
}

// NewSigning creates a signing object. Hashes are masked with domain so a
// signature made for one ledger instance is rejected by another.
func NewSigning(domain types.Bytes32) (*Signing, error) {
	c, err := cache.NewLRU(signerCacheSize)
	if err != nil {
		return nil, err
	}
	return &Signing{domain: domain, cache: c}, nil
}

// Domain returns the hash mask of this signing object.
func (s *Signing) Domain() types.Bytes32 {
	return s.domain
}

func (s *Signing) maskHash(hash types.Bytes32) types.Bytes32 {
	for i := range hash {
		hash[i] ^= s.domain[i]
	}
	return hash
}

// Sign signs hash with key.
func (s *Signing) Sign(hash types.Bytes32, key *secp256k1.PrivateKey) []byte {
	masked := s.maskHash(hash)
	return ecdsa.SignCompact(key, masked[:], false)
}

// Signer recovers the address that signed hash.
func (s *Signing) Signer(hash types.Bytes32, sig []byte) (types.Address, error) {
	if len(sig) != SignatureLength {
		return types.Address{}, ErrInvalidSignature
	}
	id := types.Blake2b(hash[:], sig)
	if addr, ok := s.cache.Get(id); ok {
		return addr.(types.Address), nil
	}

	masked := s.maskHash(hash)
	pub, _, err := ecdsa.RecoverCompact(sig, masked[:])
	if err != nil {
		return types.Address{}, errors.WithMessage(ErrInvalidSignature, err.Error())
	}
	addr := PubkeyToAddress(pub)
	s.cache.Add(id, addr)
	return addr, nil
}

// PubkeyToAddress derives the account address of a public key.
func PubkeyToAddress(pub *secp256k1.PublicKey) types.Address {
	return types.BytesToAddress(crypto.Keccak256(pub.SerializeUncompressed()[1:])[12:])
}

// HexToPrivateKey parses a 32-byte hex encoded private key, with or without 0x prefix.
func HexToPrivateKey(s string) (*secp256k1.PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.New("invalid hex string")
	}
	if len(b) != 32 {
		return nil, errors.New("invalid length, need 256 bits")
	}
	key := secp256k1.PrivKeyFromBytes(b)
	if key.Key.IsZero() {
		return nil, errors.New("invalid private key")
	}
	return key, nil
}
