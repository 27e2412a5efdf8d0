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

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blockstack/blockchain-id-auth/internal/cli"
	"github.com/blockstack/blockchain-id-auth/pkg/server"
)

var errTokenInvalid = errors.New("token is not valid")

var verifyCmd = &cobra.Command{
	Use:   "verify [token]",
	Short: "verify a single token",
	Long: `verify a single token, read from the first argument or from stdin,
	and print the result of every check as JSON. Exits with a non-zero status
	if the token is not valid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readToken(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		verifier, err := cli.NewVerifier()
		if err != nil {
			return err
		}
		report, err := verifier.VerifyToken(cmd.Context(), raw)
		resp := server.NewVerifyResponse(report, err)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		if !resp.Valid {
			return errTokenInvalid
		}
		return nil
	},
}

func readToken(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	raw := strings.TrimSpace(string(b))
	if raw == "" {
		return "", errors.New("no token given")
	}
	return raw, nil
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
