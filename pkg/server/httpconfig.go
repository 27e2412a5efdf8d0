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
	"net"
	"strconv"
	"time"
)

const (
	defaultTimeout        = 60 * time.Second
	defaultMaxSize        = 1024 * 1024
	minMaxRequestBodySize = 16 * 1024
)

// HTTPConfig configures the verification API listener and its metrics
// listener. Options that receive a non-positive value keep the default.
type HTTPConfig struct {
	host               string
	timeout            time.Duration
	port               int
	metricsPort        int
	maxRequestBodySize int
	certFile           string
	keyFile            string
}
type HTTPOption func(config *HTTPConfig)

func NewHTTPConfig(options ...HTTPOption) *HTTPConfig {
	config := &HTTPConfig{
		host:               "localhost",
		timeout:            defaultTimeout,
		port:               8080,
		metricsPort:        2112,
		maxRequestBodySize: defaultMaxSize,
	}
	for _, opt := range options {
		opt(config)
	}

	return config
}

func WithHTTPPort(port int) HTTPOption {
	return func(config *HTTPConfig) {
		if port > 0 {
			config.port = port
		}
	}
}

func WithHTTPHost(host string) HTTPOption {
	return func(config *HTTPConfig) {
		if host != "" {
			config.host = host
		}
	}
}

// WithHTTPTimeout bounds reading, writing and idling on a connection.
func WithHTTPTimeout(timeout time.Duration) HTTPOption {
	return func(config *HTTPConfig) {
		if timeout > 0 {
			config.timeout = timeout
		}
	}
}

// WithHTTPMaxRequestBodySize specifies the maximum size of a request's body.
// A token is a few kilobytes at most, so sizes below minMaxRequestBodySize
// are raised to it.
func WithHTTPMaxRequestBodySize(size int) HTTPOption {
	return func(config *HTTPConfig) {
		switch {
		case size <= 0:
		case size < minMaxRequestBodySize:
			config.maxRequestBodySize = minMaxRequestBodySize
		default:
			config.maxRequestBodySize = size
		}
	}
}

func WithHTTPMetricsPort(port int) HTTPOption {
	return func(config *HTTPConfig) {
		if port > 0 {
			config.metricsPort = port
		}
	}
}

func WithHTTPTLSCredentials(certFile, keyFile string) HTTPOption {
	return func(config *HTTPConfig) {
		config.certFile = certFile
		config.keyFile = keyFile
	}
}

func (hc HTTPConfig) HTTPTarget() string {
	return net.JoinHostPort(hc.host, strconv.Itoa(hc.port))
}

func (hc HTTPConfig) HTTPMetricsTarget() string {
	return net.JoinHostPort(hc.host, strconv.Itoa(hc.metricsPort))
}

func (hc HTTPConfig) HasTLS() bool {
	return hc.certFile != "" && hc.keyFile != ""
}
