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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"

	"github.com/blockstack/blockchain-id-auth/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "blockchain-id-auth",
	Short: "Verify blockchain identity authentication tokens",
	Long: `blockchain-id-auth verifies ES256K authentication tokens issued by
	blockchain identities: the signature, the issuer DID, the registered
	username and the token lifetime.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := cli.LoadConfig(cmd); err != nil {
			return err
		}
		return cli.ConfigureLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute root command", "error", err)
		os.Exit(1)
	}
}

func init() {
	cli.Initialize(rootCmd)
	rootCmd.AddCommand(version.Version())
}
