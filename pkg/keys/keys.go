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

// Package keys wraps secp256k1 public keys as carried in identity tokens:
// hex-encoded on the wire, PEM-encoded for signature verification, and hashed
// to an address for identity comparison.
package keys

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/blockstack/blockchain-id-auth/pkg/address"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sigstore/sigstore/pkg/cryptoutils"
)

// ErrInvalidPublicKey is returned for keys that cannot be parsed.
var ErrInvalidPublicKey = errors.New("invalid public key")

var (
	oidPublicKeyECDSA      = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// subjectPublicKeyInfo mirrors the X.509 structure. crypto/x509 refuses to
// marshal keys on curves it does not know, secp256k1 included.
type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// PublicKey is a parsed token public key.
type PublicKey struct {
	key *secp256k1.PublicKey
	// serialization as received, used for address derivation
	raw []byte
}

// ParsePublicKey parses a hex-encoded compressed or uncompressed secp256k1 key.
func ParsePublicKey(hexKey string) (*PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding hex: %v", ErrInvalidPublicKey, err)
	}
	key, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return &PublicKey{key: key, raw: raw}, nil
}

// NewPublicKey wraps an already parsed key using its compressed serialization.
func NewPublicKey(key *secp256k1.PublicKey) *PublicKey {
	return &PublicKey{key: key, raw: key.SerializeCompressed()}
}

// Address returns the address derived from the key.
func (k *PublicKey) Address() string {
	return address.FromPublicKey(k.raw)
}

// PEM returns the PKIX PEM encoding of the key.
func (k *PublicKey) PEM() ([]byte, error) {
	return MarshalPEM(k.key)
}

// MarshalPEM encodes a secp256k1 key as a PKIX "PUBLIC KEY" PEM block.
func MarshalPEM(key *secp256k1.PublicKey) ([]byte, error) {
	params, err := asn1.Marshal(oidNamedCurveSecp256k1)
	if err != nil {
		return nil, fmt.Errorf("marshalling curve oid: %w", err)
	}
	point := key.SerializeUncompressed()
	der, err := asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: pkix.AlgorithmIdentifier{
			Algorithm:  oidPublicKeyECDSA,
			Parameters: asn1.RawValue{FullBytes: params},
		},
		PublicKey: asn1.BitString{Bytes: point, BitLength: 8 * len(point)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling public key: %w", err)
	}
	return cryptoutils.PEMEncode(cryptoutils.PublicKeyPEMType, der), nil
}

// ParsePEM decodes a PKIX "PUBLIC KEY" PEM block holding a secp256k1 key.
func ParsePEM(pemBytes []byte) (*secp256k1.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidPublicKey)
	}
	if block.Type != string(cryptoutils.PublicKeyPEMType) {
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidPublicKey, block.Type)
	}
	var spki subjectPublicKeyInfo
	rest, err := asn1.Unmarshal(block.Bytes, &spki)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: trailing data after public key", ErrInvalidPublicKey)
	}
	if !spki.Algorithm.Algorithm.Equal(oidPublicKeyECDSA) {
		return nil, fmt.Errorf("%w: not an EC public key", ErrInvalidPublicKey)
	}
	var curve asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(spki.Algorithm.Parameters.FullBytes, &curve); err != nil {
		return nil, fmt.Errorf("%w: parsing curve: %v", ErrInvalidPublicKey, err)
	}
	if !curve.Equal(oidNamedCurveSecp256k1) {
		return nil, fmt.Errorf("%w: unsupported curve %v", ErrInvalidPublicKey, curve)
	}
	key, err := secp256k1.ParsePubKey(spki.PublicKey.RightAlign())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return key, nil
}
