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

package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blockstack/blockchain-id-auth/pkg/did"
	"github.com/blockstack/blockchain-id-auth/pkg/keys"
	"github.com/blockstack/blockchain-id-auth/pkg/token"
)

// Check names, as reported in Result.Check.
const (
	CheckSignature       = "signature"
	CheckPublicKeyIssuer = "public-key-issuer"
	CheckUsernameIssuer  = "username-issuer"
	CheckIssuedAt        = "issued-at"
	CheckExpiration      = "expiration"
)

var (
	// ErrUnsupported marks tokens that use features this verifier does not implement.
	ErrUnsupported = errors.New("unsupported token")
	// ErrMultipleKeys is returned for tokens carrying more than one public key.
	ErrMultipleKeys = fmt.Errorf("%w: multiple public keys", ErrUnsupported)
	// ErrIssuerWithoutKey is returned when iss is claimed without a public key to back it.
	ErrIssuerWithoutKey = errors.New("issuer claimed without a public key")
	// ErrMissingClaim is returned when a claim required by a check is absent.
	ErrMissingClaim = errors.New("missing claim")
	// ErrUsernameUnresolved is returned when the username lookup produced no address.
	ErrUsernameUnresolved = errors.New("username not resolved")
	// ErrInternal wraps unexpected failures, including recovered panics.
	ErrInternal = errors.New("internal verification error")
)

// NameResolver resolves a username to its registered address.
type NameResolver interface {
	ResolveUsername(ctx context.Context, username string) (string, bool)
}

func singleKey(pubKeys []string) (*keys.PublicKey, error) {
	if len(pubKeys) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrMultipleKeys, len(pubKeys))
	}
	return keys.ParsePublicKey(pubKeys[0])
}

func issuerAddress(t *token.Token) (string, error) {
	iss, ok, err := t.Payload.Issuer.Get()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingClaim, token.ClaimIssuer)
	}
	return did.AddressFromDID(iss)
}

// SignatureMatchesKey checks the token signature against its sole public
// key. Tokens without public keys pass.
func SignatureMatchesKey(raw string, t *token.Token, sigs token.SignatureVerifier) (bool, error) {
	pubKeys, ok, err := t.Payload.PublicKeys.Get()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	pub, err := singleKey(pubKeys)
	if err != nil {
		return false, err
	}
	pemBytes, err := pub.PEM()
	if err != nil {
		return false, fmt.Errorf("encoding public key: %w", err)
	}
	return sigs.Verify(raw, pemBytes)
}

// KeyMatchesIssuer checks that the public key's address is the one encoded
// in the issuer DID. Without public keys it passes only if no issuer is
// claimed either.
func KeyMatchesIssuer(t *token.Token) (bool, error) {
	pubKeys, ok, err := t.Payload.PublicKeys.Get()
	if err != nil {
		return false, err
	}
	if !ok {
		if t.Payload.Issuer.Exists() {
			return false, ErrIssuerWithoutKey
		}
		return true, nil
	}
	pub, err := singleKey(pubKeys)
	if err != nil {
		return false, err
	}
	issAddr, err := issuerAddress(t)
	if err != nil {
		return false, err
	}
	return pub.Address() == issAddr, nil
}

// UsernameMatchesIssuer checks that the username resolves to the issuer's
// address. Tokens without a username pass.
func UsernameMatchesIssuer(ctx context.Context, t *token.Token, resolver NameResolver) (bool, error) {
	username, ok, err := t.Payload.Username.Get()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	resolved, found := resolver.ResolveUsername(ctx, username)
	if !found {
		return false, fmt.Errorf("%w: %q", ErrUsernameUnresolved, username)
	}
	issAddr, err := issuerAddress(t)
	if err != nil {
		return false, err
	}
	return resolved == issAddr, nil
}

// IssuedAtValid requires iat to be strictly before now.
func IssuedAtValid(t *token.Token, now time.Time) (bool, error) {
	iat, ok, err := t.Payload.IssuedAt.Get()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingClaim, token.ClaimIssuedAt)
	}
	return iat.Before(now), nil
}

// ExpirationValid requires exp to be strictly after now.
func ExpirationValid(t *token.Token, now time.Time) (bool, error) {
	exp, ok, err := t.Payload.Expiration.Get()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingClaim, token.ClaimExpiration)
	}
	return exp.After(now), nil
}
