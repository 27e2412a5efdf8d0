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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatorCompressed = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func TestParsePublicKey(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey()

	tests := []struct {
		name    string
		hexKey  string
		wantErr bool
	}{
		{
			name:   "compressed",
			hexKey: hex.EncodeToString(pub.SerializeCompressed()),
		},
		{
			name:   "uncompressed",
			hexKey: hex.EncodeToString(pub.SerializeUncompressed()),
		},
		{
			name:   "surrounding whitespace",
			hexKey: " " + generatorCompressed + "\n",
		},
		{
			name:    "not hex",
			hexKey:  "not-a-key",
			wantErr: true,
		},
		{
			name:    "empty",
			hexKey:  "",
			wantErr: true,
		},
		{
			name:    "wrong length",
			hexKey:  generatorCompressed[:40],
			wantErr: true,
		},
		{
			name:    "not on curve",
			hexKey:  "02" + strings.Repeat("ff", 32),
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParsePublicKey(test.hexKey)
			if test.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPublicKey))
				assert.Nil(t, got)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, strings.TrimSpace(test.hexKey), hex.EncodeToString(got.raw))
		})
	}
}

func TestAddress(t *testing.T) {
	k, err := ParsePublicKey(generatorCompressed)
	require.NoError(t, err)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", k.Address())

	// NewPublicKey uses the compressed form
	assert.Equal(t, k.Address(), NewPublicKey(k.key).Address())
}

func TestPEMRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	k := NewPublicKey(priv.PubKey())

	encoded, err := k.PEM()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(encoded), "-----BEGIN PUBLIC KEY-----"))

	parsed, err := ParsePEM(encoded)
	require.NoError(t, err)
	assert.True(t, parsed.IsEqual(priv.PubKey()))
}

func TestParsePEMErrors(t *testing.T) {
	p256, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	p256DER, err := x509.MarshalPKIXPublicKey(&p256.PublicKey)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input []byte
	}{
		{
			name:  "no block",
			input: []byte("garbage"),
		},
		{
			name:  "wrong type",
			input: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: p256DER}),
		},
		{
			name:  "not DER",
			input: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{0x01, 0x02}}),
		},
		{
			name:  "wrong curve",
			input: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: p256DER}),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParsePEM(test.input)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPublicKey))
			assert.Nil(t, got)
		})
	}
}
