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

// Package client holds options shared by the HTTP clients in this module.
package client

import (
	"net/http"
	"time"
)

// Option configures a client.
type Option func(*Config)

// Config holds client settings collected from Options.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithTransport replaces http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Config) {
		c.Transport = rt
	}
}

type roundTripper struct {
	http.RoundTripper
	UserAgent string
}

// RoundTrip sets the User-Agent header before delegating.
func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", rt.UserAgent)
	return rt.RoundTripper.RoundTrip(req)
}

// CreateRoundTripper wraps inner so that requests carry userAgent.
func CreateRoundTripper(inner http.RoundTripper, userAgent string) http.RoundTripper {
	if inner == nil {
		inner = http.DefaultTransport
	}
	if userAgent == "" {
		return inner
	}
	return &roundTripper{
		RoundTripper: inner,
		UserAgent:    userAgent,
	}
}
