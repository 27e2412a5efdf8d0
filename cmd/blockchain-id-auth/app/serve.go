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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/release-utils/version"

	"github.com/blockstack/blockchain-id-auth/internal/cli"
	"github.com/blockstack/blockchain-id-auth/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the token verification server",
	Long:  "start the token verification server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		slog.Info("starting blockchain-id-auth", "version", version.GetVersionInfo())

		verifier, err := cli.NewVerifier()
		if err != nil {
			return err
		}

		server.Serve(
			cmd.Context(),
			server.NewHTTPConfig(
				server.WithHTTPPort(viper.GetInt("http-port")),
				server.WithHTTPHost(viper.GetString("http-address")),
				server.WithHTTPTimeout(viper.GetDuration("server-timeout")),
				server.WithHTTPMaxRequestBodySize(viper.GetInt("max-request-body-size")),
				server.WithHTTPMetricsPort(viper.GetInt("http-metrics-port")),
				server.WithHTTPTLSCredentials(viper.GetString("http-tls-cert-file"), viper.GetString("http-tls-key-file")),
			),
			server.NewService(verifier),
		)
		return nil
	},
}

func init() {
	cli.InitializeServe(serveCmd)
	rootCmd.AddCommand(serveCmd)
}
