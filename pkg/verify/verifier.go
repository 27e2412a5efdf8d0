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

// Package verify decides whether an identity token is valid by running a
// fixed set of independent checks and requiring all of them to pass.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blockstack/blockchain-id-auth/pkg/token"
)

// Check is a single verification predicate. A check returns false with a
// nil error when the token simply does not verify, and a non-nil error when
// the relevant claims could not be evaluated.
type Check struct {
	Name string
	Run  func(ctx context.Context, raw string, t *token.Token) (bool, error)
}

// Result is the outcome of one check.
type Result struct {
	Check  string
	Passed bool
	// Err explains a fault. It is nil for a pass and for a plain mismatch.
	Err error
}

// Report collects the results of all checks run against a token.
type Report struct {
	Results []Result
}

// Valid reports whether every check passed.
func (r *Report) Valid() bool {
	if r == nil || len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Result returns the result of the named check.
func (r *Report) Result(check string) (Result, bool) {
	if r == nil {
		return Result{}, false
	}
	for _, res := range r.Results {
		if res.Check == check {
			return res, true
		}
	}
	return Result{}, false
}

// Failed returns the results of checks that did not pass.
func (r *Report) Failed() []Result {
	if r == nil {
		return nil
	}
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the faults of all checks, or returns nil if there were none.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Check, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock sets the time source used for iat and exp.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithLogger sets the logger faults are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// Verifier runs the verification checks. It is immutable after
// construction and safe for concurrent use.
type Verifier struct {
	checks []Check
	now    func() time.Time
	logger *slog.Logger
}

type unresolved struct{}

func (unresolved) ResolveUsername(context.Context, string) (string, bool) {
	return "", false
}

// New returns a Verifier. A nil sigs selects token.ES256KVerifier; a nil
// resolver resolves no username.
func New(sigs token.SignatureVerifier, resolver NameResolver, opts ...Option) *Verifier {
	if sigs == nil {
		sigs = token.ES256KVerifier{}
	}
	if resolver == nil {
		resolver = unresolved{}
	}
	v := &Verifier{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(v)
	}
	v.checks = []Check{
		{
			Name: CheckSignature,
			Run: func(_ context.Context, raw string, t *token.Token) (bool, error) {
				return SignatureMatchesKey(raw, t, sigs)
			},
		},
		{
			Name: CheckPublicKeyIssuer,
			Run: func(_ context.Context, _ string, t *token.Token) (bool, error) {
				return KeyMatchesIssuer(t)
			},
		},
		{
			Name: CheckUsernameIssuer,
			Run: func(ctx context.Context, _ string, t *token.Token) (bool, error) {
				return UsernameMatchesIssuer(ctx, t, resolver)
			},
		},
		{
			Name: CheckIssuedAt,
			Run: func(_ context.Context, _ string, t *token.Token) (bool, error) {
				return IssuedAtValid(t, v.now())
			},
		},
		{
			Name: CheckExpiration,
			Run: func(_ context.Context, _ string, t *token.Token) (bool, error) {
				return ExpirationValid(t, v.now())
			},
		},
	}
	return v
}

// Evaluate runs every check, without short-circuiting, and returns their
// results. Faults are logged here and reported as failed checks.
func (v *Verifier) Evaluate(ctx context.Context, raw string, t *token.Token) *Report {
	report := &Report{Results: make([]Result, 0, len(v.checks))}
	for _, c := range v.checks {
		passed, err := v.run(ctx, c, raw, t)
		switch {
		case err != nil:
			v.logger.WarnContext(ctx, "verification check faulted", "check", c.Name, "error", err)
		case !passed:
			v.logger.DebugContext(ctx, "verification check failed", "check", c.Name)
		}
		report.Results = append(report.Results, Result{
			Check:  c.Name,
			Passed: passed && err == nil,
			Err:    err,
		})
	}
	return report
}

func (v *Verifier) run(ctx context.Context, c Check, raw string, t *token.Token) (passed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			passed, err = false, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	if t == nil {
		return false, fmt.Errorf("%w: nil token", ErrInternal)
	}
	return c.Run(ctx, raw, t)
}

// Verify reports whether the decoded token t, serialized as raw, is valid.
func (v *Verifier) Verify(ctx context.Context, raw string, t *token.Token) bool {
	return v.Evaluate(ctx, raw, t).Valid()
}

// VerifyToken decodes raw and evaluates it. A token that cannot be decoded
// is returned as an error; it is never valid.
func (v *Verifier) VerifyToken(ctx context.Context, raw string) (*Report, error) {
	t, err := token.Decode(raw)
	if err != nil {
		return nil, err
	}
	return v.Evaluate(ctx, t.Raw, t), nil
}
