//
// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package address

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint: staticcheck
)

// MainnetPubKeyHash is the version byte of a pay-to-pubkey-hash address.
const MainnetPubKeyHash byte = 0x00

const (
	checksumLen = 4
	hashLen     = ripemd160.Size
	// version byte + hash160 + checksum
	decodedLen = 1 + hashLen + checksumLen
)

// ErrInvalidAddress is returned for strings that are not well-formed Base58Check addresses.
var ErrInvalidAddress = errors.New("invalid address")

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// FromPublicKey derives the mainnet address of a serialized public key. The
// serialization is hashed as given, so compressed and uncompressed encodings
// of the same key yield different addresses.
func FromPublicKey(serialized []byte) string {
	return Encode(MainnetPubKeyHash, Hash160(serialized))
}

// Encode returns the Base58Check encoding of version || payload.
func Encode(version byte, payload []byte) string {
	b := make([]byte, 0, 1+len(payload)+checksumLen)
	b = append(b, version)
	b = append(b, payload...)
	b = append(b, checksum(b)...)
	return base58.Encode(b)
}

// Decode validates a Base58Check address and returns its version byte and hash.
func Decode(addr string) (byte, []byte, error) {
	if addr == "" {
		return 0, nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != decodedLen {
		return 0, nil, fmt.Errorf("%w: decoded length %d, want %d", ErrInvalidAddress, len(raw), decodedLen)
	}
	body, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	if !bytes.Equal(checksum(body), sum) {
		return 0, nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return body[0], body[1:], nil
}

// Validate reports whether addr is a well-formed Base58Check address.
func Validate(addr string) error {
	_, _, err := Decode(addr)
	return err
}

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:checksumLen]
}
