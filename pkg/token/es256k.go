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

package token

import (
	"bytes"
	"crypto/sha256"
	"strings"

	"github.com/blockstack/blockchain-id-auth/pkg/keys"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sigstore/sigstore/pkg/signature"
)

// SigningMethodSecp256k1 implements ES256K, ECDSA over secp256k1 with SHA-256.
type SigningMethodSecp256k1 struct{}

// SigningMethodES256K is registered with jwt under "ES256K".
var SigningMethodES256K = &SigningMethodSecp256k1{}

func init() {
	jwt.RegisterSigningMethod(SigningMethodES256K.Alg(), func() jwt.SigningMethod {
		return SigningMethodES256K
	})
}

func (m *SigningMethodSecp256k1) Alg() string {
	return "ES256K"
}

// Verify accepts a *secp256k1.PublicKey or any signature.Verifier for the key.
func (m *SigningMethodSecp256k1) Verify(signingString string, sig []byte, key any) error {
	var verifier signature.Verifier
	switch k := key.(type) {
	case *secp256k1.PublicKey:
		v, err := keys.NewVerifier(k)
		if err != nil {
			return err
		}
		verifier = v
	case signature.Verifier:
		verifier = k
	default:
		return jwt.ErrInvalidKeyType
	}
	return verifier.VerifySignature(bytes.NewReader(sig), strings.NewReader(signingString))
}

// Sign produces an r || s signature with a *secp256k1.PrivateKey.
func (m *SigningMethodSecp256k1) Sign(signingString string, key any) ([]byte, error) {
	priv, ok := key.(*secp256k1.PrivateKey)
	if !ok {
		return nil, jwt.ErrInvalidKeyType
	}
	digest := sha256.Sum256([]byte(signingString))
	compact := ecdsa.SignCompact(priv, digest[:], true)
	// drop the recovery code
	return compact[1:], nil
}
