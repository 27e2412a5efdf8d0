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

package token

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedClaim is returned for claims that are present but not of the expected type.
var ErrMalformedClaim = errors.New("malformed claim")

// Claim is an optional payload field. The zero value is an absent claim.
type Claim[T any] struct {
	value   T
	present bool
	err     error
}

// Value returns a present, well-formed claim.
func Value[T any](v T) Claim[T] {
	return Claim[T]{value: v, present: true}
}

// Invalid returns a claim that is present but could not be interpreted.
func Invalid[T any](err error) Claim[T] {
	return Claim[T]{present: true, err: err}
}

// Get returns the claim value. ok is true only for a present, well-formed
// claim; err is non-nil only for a malformed one. An absent claim returns
// the zero value, false and nil.
func (c Claim[T]) Get() (value T, ok bool, err error) {
	if !c.present || c.err != nil {
		var zero T
		return zero, false, c.err
	}
	return c.value, true, nil
}

// Exists reports whether the claim was present, well-formed or not.
func (c Claim[T]) Exists() bool {
	return c.present
}

// Timestamp is a claim value in seconds since the Unix epoch. Fractional
// seconds are kept.
type Timestamp float64

// NewTimestamp converts a time to a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second))
}

// Time converts the timestamp to a time.Time.
func (ts Timestamp) Time() time.Time {
	sec, frac := math.Modf(float64(ts))
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// Before reports whether the timestamp is strictly earlier than t.
func (ts Timestamp) Before(t time.Time) bool {
	return ts.compare(t) < 0
}

// After reports whether the timestamp is strictly later than t.
func (ts Timestamp) After(t time.Time) bool {
	return ts.compare(t) > 0
}

// compare orders the timestamp against t at nanosecond resolution. Whole
// seconds and the fraction are compared separately, since a float64 of
// seconds since the epoch cannot hold nanoseconds.
func (ts Timestamp) compare(t time.Time) int {
	sec := math.Floor(float64(ts))
	if c := cmp.Compare(sec, float64(t.Unix())); c != 0 {
		return c
	}
	nanos := int64(math.Round((float64(ts) - sec) * float64(time.Second)))
	return cmp.Compare(nanos, int64(t.Nanosecond()))
}

// absent follows the claim truthiness of the token format: null, "" and
// empty lists count as missing.
func absent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func stringClaim(claims map[string]any, name string) Claim[string] {
	raw, ok := claims[name]
	if !ok || absent(raw) {
		return Claim[string]{}
	}
	s, ok := raw.(string)
	if !ok {
		return Invalid[string](fmt.Errorf("%w: %q is %T, want string", ErrMalformedClaim, name, raw))
	}
	return Value(s)
}

func stringListClaim(claims map[string]any, name string) Claim[[]string] {
	raw, ok := claims[name]
	if !ok || absent(raw) {
		return Claim[[]string]{}
	}
	switch list := raw.(type) {
	case []string:
		return Value(list)
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return Invalid[[]string](fmt.Errorf("%w: %q[%d] is %T, want string", ErrMalformedClaim, name, i, item))
			}
			out = append(out, s)
		}
		return Value(out)
	}
	return Invalid[[]string](fmt.Errorf("%w: %q is %T, want list of strings", ErrMalformedClaim, name, raw))
}

// timestampClaim accepts JSON numbers and numeric strings.
func timestampClaim(claims map[string]any, name string) Claim[Timestamp] {
	raw, ok := claims[name]
	if !ok || absent(raw) {
		return Claim[Timestamp]{}
	}
	var (
		f   float64
		err error
	)
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case Timestamp:
		f = float64(v)
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = fmt.Errorf("unexpected type %T", raw)
	}
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = errors.New("not a finite number")
	}
	if err != nil {
		return Invalid[Timestamp](fmt.Errorf("%w: %q: %v", ErrMalformedClaim, name, err))
	}
	return Value(Timestamp(f))
}
