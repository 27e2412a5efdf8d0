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
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/release-utils/version"

	"github.com/blockstack/blockchain-id-auth/pkg/verify"
)

type metrics struct {
	reg *prometheus.Registry
	// metrics
	verifications     *prometheus.CounterVec
	checkFailures     *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
	httpRequestsCount *prometheus.CounterVec
	httpRequestSize   *prometheus.HistogramVec
}

// Metrics provides the singleton metrics instance
func getMetrics() *metrics {
	return _initMetricsFunc()
}

var _initMetricsFunc = sync.OnceValue[*metrics](func() *metrics {
	m := metrics{
		reg: prometheus.NewRegistry(),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(m.reg)

	m.verifications = f.NewCounterVec(prometheus.CounterOpts{
		Name: "blockchain_id_auth_verifications_total",
		Help: "The total number of tokens verified, by verdict",
	}, []string{"valid"})

	// kind is "mismatch" when the claims were evaluated and disagreed, and
	// "fault" when they could not be evaluated
	m.checkFailures = f.NewCounterVec(prometheus.CounterOpts{
		Name: "blockchain_id_auth_check_failures_total",
		Help: "The total number of failed verification checks",
	}, []string{"check", "kind"})

	m.httpLatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Name: "blockchain_id_auth_http_api_latency",
		Help: "API Latency on HTTP calls",
	}, []string{"code", "method"})

	m.httpRequestsCount = f.NewCounterVec(prometheus.CounterOpts{
		Name: "blockchain_id_auth_http_requests_total",
		Help: "Count all HTTP requests",
	}, []string{"code", "method"})

	m.httpRequestSize = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blockchain_id_auth_http_api_request_size",
		Help:    "API Request size on HTTP calls",
		Buckets: prometheus.ExponentialBuckets(128, 2, 10),
	}, []string{"code", "method"})

	_ = f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "blockchain_id_auth",
			Name:      "build_info",
			Help:      "A metric with a constant '1' value labeled by version, revision, branch, and goversion from which blockchain-id-auth was built.",
			ConstLabels: prometheus.Labels{
				"version":    version.GetVersionInfo().GitVersion,
				"revision":   version.GetVersionInfo().GitCommit,
				"build_date": version.GetVersionInfo().BuildDate,
				"goversion":  version.GetVersionInfo().GoVersion,
			},
		},
		func() float64 { return 1 },
	)
	return &m
})

func (m *metrics) observeReport(report *verify.Report) {
	m.verifications.WithLabelValues(strconv.FormatBool(report.Valid())).Inc()
	for _, res := range report.Failed() {
		kind := "mismatch"
		if res.Err != nil {
			kind = "fault"
		}
		m.checkFailures.WithLabelValues(res.Check, kind).Inc()
	}
}

type httpMetrics struct {
	*http.Server
	serverEndpoint string
}

func newHTTPMetrics(_ context.Context, config *HTTPConfig) *httpMetrics {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(getMetrics().reg, promhttp.HandlerOpts{
		// Opt into OpenMetrics e.g. to support exemplars.
		EnableOpenMetrics: true,
	}))

	endpoint := config.HTTPMetricsTarget()
	return &httpMetrics{
		Server: &http.Server{
			Addr:    endpoint,
			Handler: mux,

			ReadTimeout:       config.timeout,
			ReadHeaderTimeout: config.timeout,
			WriteTimeout:      config.timeout,
			IdleTimeout:       config.timeout,
		},
		serverEndpoint: endpoint,
	}
}

func (hp *httpMetrics) start(wg *sync.WaitGroup) {
	lis, err := net.Listen("tcp", hp.serverEndpoint)
	if err != nil {
		slog.Error("failed to create listener:", "errors", err)
		os.Exit(1)
	}

	hp.serverEndpoint = lis.Addr().String()

	slog.Info("starting http metrics", "address", hp.serverEndpoint)

	// capture interrupts and shutdown Server
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)

	waitToClose := make(chan struct{})
	go func() {
		<-sigint
		signal.Stop(sigint)

		if err := hp.Shutdown(context.Background()); err != nil {
			slog.Info("http metrics server shutdown returned an error", "error", err)
		}
		close(waitToClose)
		slog.Info("stopped http metrics server")
	}()

	wg.Add(1)
	go func() {
		if err := hp.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("could not start http metrics server", "error", err)
			os.Exit(1)
		}
		<-waitToClose
		wg.Done()
		slog.Info("http metrics server shutdown complete")
	}()
}
