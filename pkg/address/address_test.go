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
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	// secp256k1 generator point, i.e. the public key of private key 1
	generatorCompressed   = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	generatorUncompressed = "0479be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8"
)

func TestFromPublicKey(t *testing.T) {
	tests := []struct {
		name   string
		pubKey string
		want   string
	}{
		{
			name:   "compressed",
			pubKey: generatorCompressed,
			want:   "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
		},
		{
			name:   "uncompressed",
			pubKey: generatorUncompressed,
			want:   "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			raw, err := hex.DecodeString(test.pubKey)
			if err != nil {
				t.Fatal(err)
			}
			assert.Equal(t, test.want, FromPublicKey(raw))
		})
	}
}

func TestHash160(t *testing.T) {
	raw, err := hex.DecodeString(generatorCompressed)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(Hash160(raw)))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		wantVersion byte
		wantHash    string
		wantErr     bool
	}{
		{
			name:        "valid",
			addr:        "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
			wantVersion: MainnetPubKeyHash,
			wantHash:    "751e76e8199196d454941c45d1b3a323f1433bd6",
		},
		{
			name:    "empty",
			addr:    "",
			wantErr: true,
		},
		{
			name:    "bad checksum",
			addr:    "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMJ",
			wantErr: true,
		},
		{
			name:    "not base58",
			addr:    "0OIl",
			wantErr: true,
		},
		{
			name:    "too short",
			addr:    "1BgGZ9tcN4",
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			version, hash, err := Decode(test.addr)
			if test.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAddress))
				assert.Error(t, Validate(test.addr))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.wantVersion, version)
			assert.Equal(t, test.wantHash, hex.EncodeToString(hash))
			assert.NoError(t, Validate(test.addr))
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	hash := make([]byte, hashLen)
	for i := range hash {
		hash[i] = byte(i)
	}
	addr := Encode(0x05, hash)
	version, got, err := Decode(addr)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x05), version)
	assert.Equal(t, hash, got)
}
