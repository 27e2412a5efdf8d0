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
	"errors"
	"fmt"

	"github.com/blockstack/blockchain-id-auth/pkg/keys"
	"github.com/golang-jwt/jwt/v5"
)

// SignatureVerifier checks a raw token's signature against a PEM-encoded
// public key. A signature that does not match returns false with a nil
// error; errors are reserved for inputs that could not be evaluated.
type SignatureVerifier interface {
	Verify(raw string, publicKeyPEM []byte) (bool, error)
}

// ES256KVerifier verifies ES256K-signed tokens. Claims are not validated here.
type ES256KVerifier struct{}

var _ SignatureVerifier = ES256KVerifier{}

func (ES256KVerifier) Verify(raw string, publicKeyPEM []byte) (bool, error) {
	verifier, err := keys.LoadVerifierFromPEM(publicKeyPEM)
	if err != nil {
		return false, fmt.Errorf("loading verifier: %w", err)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{SigningMethodES256K.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err = parser.Parse(raw, func(*jwt.Token) (any, error) {
		return verifier, nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}
