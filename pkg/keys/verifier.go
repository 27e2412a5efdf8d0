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

package keys

import (
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/sigstore/sigstore/pkg/signature"
)

// SignatureSize is the length of a JWS ES256K signature, r || s.
const SignatureSize = 64

// ErrSignatureMismatch is returned when a signature does not verify.
var ErrSignatureMismatch = errors.New("signature verification failed")

var _ signature.Verifier = (*Verifier)(nil)

// Verifier verifies ES256K (ECDSA over secp256k1 with SHA-256) signatures.
type Verifier struct {
	key *secp256k1.PublicKey
}

// NewVerifier returns a verifier for the given key.
func NewVerifier(key *secp256k1.PublicKey) (*Verifier, error) {
	if key == nil {
		return nil, errors.New("public key is nil")
	}
	return &Verifier{key: key}, nil
}

// LoadVerifierFromPEM returns a verifier for a PEM-encoded secp256k1 key.
func LoadVerifierFromPEM(pemBytes []byte) (*Verifier, error) {
	key, err := ParsePEM(pemBytes)
	if err != nil {
		return nil, err
	}
	return NewVerifier(key)
}

// PublicKey returns the verification key.
func (v *Verifier) PublicKey(_ ...signature.PublicKeyOption) (crypto.PublicKey, error) {
	return v.key.ToECDSA(), nil
}

// VerifySignature verifies a fixed-size r || s signature over the SHA-256
// digest of message.
func (v *Verifier) VerifySignature(sig, message io.Reader, _ ...signature.VerifyOption) error {
	if sig == nil || message == nil {
		return errors.New("signature and message are required")
	}
	sigBytes, err := io.ReadAll(sig)
	if err != nil {
		return fmt.Errorf("reading signature: %w", err)
	}
	if len(sigBytes) != SignatureSize {
		return fmt.Errorf("%w: signature length %d, want %d", ErrSignatureMismatch, len(sigBytes), SignatureSize)
	}
	h := sha256.New()
	if _, err := io.Copy(h, message); err != nil {
		return fmt.Errorf("reading message: %w", err)
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sigBytes[:32]); overflow {
		return fmt.Errorf("%w: r out of range", ErrSignatureMismatch)
	}
	if overflow := s.SetByteSlice(sigBytes[32:]); overflow {
		return fmt.Errorf("%w: s out of range", ErrSignatureMismatch)
	}
	if !ecdsa.NewSignature(&r, &s).Verify(h.Sum(nil), v.key) {
		return ErrSignatureMismatch
	}
	return nil
}
