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
	"log/slog"
	"os"
	"sync"
)

// Serve starts the verification API and its metrics endpoint, and blocks
// until both have shut down on SIGINT or SIGTERM.
func Serve(ctx context.Context, hc *HTTPConfig, s *Service) {
	var wg sync.WaitGroup

	if hc.port == 0 || hc.metricsPort == 0 {
		slog.Error("dynamic port allocation '0' is not supported", "http port", hc.port, "metrics port", hc.metricsPort)
		os.Exit(1)
	}
	if hc.port == hc.metricsPort {
		slog.Error("http and metrics cannot serve at the same address", "host", hc.host, "port", hc.port)
		os.Exit(1)
	}

	httpServer := newHTTPServer(hc, s)
	httpServer.start(&wg)

	httpMetrics := newHTTPMetrics(ctx, hc)
	httpMetrics.start(&wg)

	wg.Wait()
}
