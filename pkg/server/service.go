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
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/blockstack/blockchain-id-auth/pkg/verify"
)

// VerifyRequest is the body of POST /v1/verify.
type VerifyRequest struct {
	Token string `json:"token"`
}

// CheckResult is the outcome of one verification check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// VerifyResponse reports the verdict for a token. Error is set, and Checks
// is empty, when the token could not be decoded.
type VerifyResponse struct {
	Valid  bool          `json:"valid"`
	Checks []CheckResult `json:"checks,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// NewVerifyResponse converts the outcome of verify.Verifier.VerifyToken.
func NewVerifyResponse(report *verify.Report, err error) VerifyResponse {
	if err != nil {
		return VerifyResponse{Error: err.Error()}
	}
	resp := VerifyResponse{Valid: report.Valid()}
	for _, res := range report.Results {
		cr := CheckResult{Name: res.Check, Passed: res.Passed}
		if res.Err != nil {
			cr.Error = res.Err.Error()
		}
		resp.Checks = append(resp.Checks, cr)
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
}

// Service serves the verification API.
type Service struct {
	verifier *verify.Verifier
}

func NewService(verifier *verify.Verifier) *Service {
	return &Service{verifier: verifier}
}

func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: trailing data"})
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "token is required"})
		return
	}

	report, err := s.verifier.VerifyToken(r.Context(), req.Token)
	m := getMetrics()
	if err != nil {
		slog.DebugContext(r.Context(), "token could not be decoded", "request_id", middleware.GetReqID(r.Context()), "error", err)
		m.verifications.WithLabelValues("false").Inc()
	} else {
		m.observeReport(report)
	}
	writeJSON(w, http.StatusOK, NewVerifyResponse(report, err))
}

func (s *Service) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
