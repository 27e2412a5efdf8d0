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

package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockstack/blockchain-id-auth/internal/tokentest"
	"github.com/blockstack/blockchain-id-auth/pkg/verify"
)

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

func waitFor(t *testing.T, url string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "server at %s did not start", url)
}

func TestServe_smoke(t *testing.T) {
	id := tokentest.NewIdentity(t)
	hc := NewHTTPConfig(
		WithHTTPPort(freePort(t)),
		WithHTTPMetricsPort(freePort(t)),
	)
	s := NewService(verify.New(nil, fakeResolver{"alice.id": id.Address}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		Serve(context.Background(), hc, s)
	}()

	httpBaseURL := fmt.Sprintf("http://%s", hc.HTTPTarget())
	metricsURL := fmt.Sprintf("http://%s/metrics", hc.HTTPMetricsTarget())
	waitFor(t, httpBaseURL+"/healthz")
	waitFor(t, metricsURL)

	body := `{"token":"` + id.Sign(t, validClaims(id)) + `"}`
	resp, err := http.Post(httpBaseURL+"/v1/verify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(respBody), `"valid":true`)

	resp, err = http.Get(metricsURL)
	require.NoError(t, err)
	metricsBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	for _, metric := range []string{
		"blockchain_id_auth_verifications_total",
		"blockchain_id_auth_http_api_latency",
		"blockchain_id_auth_http_requests_total",
		"blockchain_id_auth_http_api_request_size",
		"blockchain_id_auth_build_info",
		"go_goroutines",
	} {
		assert.Contains(t, string(metricsBody), metric)
	}

	// Simulate SIGTERM to trigger graceful shutdown
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	wg.Wait()
}
