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

// Package did resolves decentralized identifiers of the form
// did:btc-addr:<address> to the address they encode.
package did

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blockstack/blockchain-id-auth/pkg/address"
)

const (
	scheme = "did"
	// MethodBTCAddr identifies DIDs that carry a Base58Check address.
	MethodBTCAddr = "btc-addr"
)

var (
	// ErrInvalidDID is returned for identifiers that do not match the DID structure.
	ErrInvalidDID = errors.New("invalid decentralized identifier")
	// ErrUnsupportedMethod is returned for well-formed DIDs of an unknown method.
	ErrUnsupportedMethod = fmt.Errorf("%w: unsupported method", ErrInvalidDID)
)

// FromAddress builds the DID for an address.
func FromAddress(addr string) string {
	return scheme + ":" + MethodBTCAddr + ":" + addr
}

// Method returns the lower-cased method of a DID.
func Method(id string) (string, error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 parts, got %d", ErrInvalidDID, len(parts))
	}
	if !strings.EqualFold(parts[0], scheme) {
		return "", fmt.Errorf("%w: must start with %q", ErrInvalidDID, scheme+":")
	}
	if parts[1] == "" {
		return "", fmt.Errorf("%w: empty method", ErrInvalidDID)
	}
	return strings.ToLower(parts[1]), nil
}

// AddressFromDID extracts the address encoded in a btc-addr DID. The address
// must be valid Base58Check; no partial extraction is attempted.
func AddressFromDID(id string) (string, error) {
	method, err := Method(id)
	if err != nil {
		return "", err
	}
	if method != MethodBTCAddr {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	addr := id[strings.LastIndex(id, ":")+1:]
	if err := address.Validate(addr); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDID, err)
	}
	return addr, nil
}
