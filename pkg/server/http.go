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
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-Id"

type httpServer struct {
	*http.Server
	serverEndpoint string
}

// newRouter creates a mux for the verification API and the health check.
func newRouter(config *HTTPConfig, s *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/v1/verify", s.handleVerify)

	metrics := getMetrics()
	handler := promhttp.InstrumentHandlerDuration(metrics.httpLatency, r)
	handler = promhttp.InstrumentHandlerCounter(metrics.httpRequestsCount, handler)
	handler = promhttp.InstrumentHandlerRequestSize(metrics.httpRequestSize, handler)
	return http.MaxBytesHandler(handler, int64(config.maxRequestBodySize))
}

// requestID propagates the caller's X-Request-Id, or assigns a new one, and
// echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.DebugContext(r.Context(), "handled request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func newHTTPServer(config *HTTPConfig, s *Service) *httpServer {
	server := &http.Server{
		Addr:              config.HTTPTarget(),
		Handler:           newRouter(config, s),
		ReadTimeout:       config.timeout,
		ReadHeaderTimeout: config.timeout,
		WriteTimeout:      config.timeout,
		IdleTimeout:       config.timeout,
		// by default MaxHeaderBytes is 1MB, so no need to set.
	}

	if config.HasTLS() {
		cert, err := tls.LoadX509KeyPair(config.certFile, config.keyFile)
		if err != nil {
			slog.Error("failed to load TLS certificates:", "errors", err)
			os.Exit(1)
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS13,
		}
	}

	return &httpServer{
		Server:         server,
		serverEndpoint: config.HTTPTarget(),
	}
}

func (hs *httpServer) start(wg *sync.WaitGroup) {
	lis, err := net.Listen("tcp", hs.serverEndpoint)
	if err != nil {
		slog.Error("failed to create listener:", "errors", err)
		os.Exit(1)
	}

	hs.serverEndpoint = lis.Addr().String()

	var protocol string
	if hs.TLSConfig != nil {
		protocol = "HTTPS"
	} else {
		protocol = "HTTP"
	}
	slog.Info("starting server", "protocol", protocol, "address", hs.serverEndpoint)

	// capture interrupts and shutdown Server
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)

	waitToClose := make(chan struct{})
	go func() {
		<-sigint
		signal.Stop(sigint)

		if err := hs.Shutdown(context.Background()); err != nil {
			slog.Info("http server shutdown returned an error", "error", err)
		}
		close(waitToClose)
		slog.Info("stopped server", "protocol", protocol)
	}()

	wg.Add(1)
	go func() {
		var err error
		if hs.TLSConfig != nil {
			err = hs.ServeTLS(lis, "", "") // skip cert and key as they are already set in TLSConfig
		} else {
			err = hs.Serve(lis)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("could not start server", "protocol", protocol, "error", err)
			os.Exit(1)
		}
		<-waitToClose
		wg.Done()
		slog.Info("server shutdown complete", "protocol", protocol)
	}()
}
