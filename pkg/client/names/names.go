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

// Package names resolves usernames to addresses through the name lookup
// API, asking a local node first and a hosted node second.
package names

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blockstack/blockchain-id-auth/pkg/client"
)

const (
	// DefaultLocalBaseURL is the name lookup API of a node on this host.
	DefaultLocalBaseURL = "http://localhost:6270"
	// DefaultRemoteBaseURL is the public hosted name lookup API.
	DefaultRemoteBaseURL = "https://core.blockstack.org"
	// DefaultTimeout bounds a single lookup request.
	DefaultTimeout = 5 * time.Second

	lookupPath      = "/v1/names/"
	maxResponseSize = 1 << 20
)

// Endpoint names reported in Record.Source.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// ErrNotFound is returned when no endpoint produced a usable address.
var ErrNotFound = errors.New("name not resolved")

// Config holds the lookup endpoints.
type Config struct {
	LocalBaseURL  string
	RemoteBaseURL string
	// Timeout bounds each request; zero or negative selects DefaultTimeout.
	Timeout time.Duration
}

// DefaultConfig returns the standard local and hosted endpoints.
func DefaultConfig() Config {
	return Config{
		LocalBaseURL:  DefaultLocalBaseURL,
		RemoteBaseURL: DefaultRemoteBaseURL,
		Timeout:       DefaultTimeout,
	}
}

// Record is a resolved name.
type Record struct {
	Name    string
	Address string
	// Source is the endpoint that answered, SourceLocal or SourceRemote.
	Source string
}

type endpoint struct {
	name string
	base string
}

// Client looks up names. It holds no mutable state and is safe for
// concurrent use.
type Client struct {
	endpoints []endpoint
	client    *http.Client
}

// New validates the configured endpoints and returns a Client.
func New(cfg Config, opts ...client.Option) (*Client, error) {
	local, err := parseBaseURL(SourceLocal, cfg.LocalBaseURL)
	if err != nil {
		return nil, err
	}
	remote, err := parseBaseURL(SourceRemote, cfg.RemoteBaseURL)
	if err != nil {
		return nil, err
	}
	httpCfg := &client.Config{Timeout: cfg.Timeout}
	for _, o := range opts {
		o(httpCfg)
	}
	if httpCfg.Timeout <= 0 {
		httpCfg.Timeout = DefaultTimeout
	}
	return &Client{
		endpoints: []endpoint{
			{name: SourceLocal, base: local},
			{name: SourceRemote, base: remote},
		},
		client: &http.Client{
			Transport: client.CreateRoundTripper(httpCfg.Transport, httpCfg.UserAgent),
			Timeout:   httpCfg.Timeout,
		},
	}, nil
}

func parseBaseURL(name, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing %s lookup url %q: %w", name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s lookup url %q: scheme must be http or https", name, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%s lookup url %q: missing host", name, raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Lookup resolves username, trying the local endpoint and then the remote
// one. Failures of an endpoint are not errors on their own; ErrNotFound is
// returned only once both have been tried, or the context is done.
func (c *Client) Lookup(ctx context.Context, username string) (*Record, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrNotFound)
	}
	var errs []error
	for _, ep := range c.endpoints {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rec, err := c.lookup(ctx, ep, username)
		if err == nil {
			return rec, nil
		}
		slog.DebugContext(ctx, "name lookup failed", "endpoint", ep.name, "username", username, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", ep.name, err))
	}
	return nil, fmt.Errorf("%w: %q: %w", ErrNotFound, username, errors.Join(errs...))
}

// ResolveUsername returns the address registered for username, if any.
func (c *Client) ResolveUsername(ctx context.Context, username string) (string, bool) {
	rec, err := c.Lookup(ctx, username)
	if err != nil {
		return "", false
	}
	return rec.Address, true
}

func (c *Client) lookup(ctx context.Context, ep endpoint, username string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.base+lookupPath+url.PathEscape(username), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting response: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected response: %d", resp.StatusCode)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling response body: %w", err)
	}
	addr, _ := payload["address"].(string)
	if addr == "" {
		return nil, errors.New("response has no address")
	}
	return &Record{Name: username, Address: addr, Source: ep.name}, nil
}
