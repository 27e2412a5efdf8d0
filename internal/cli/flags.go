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

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/release-utils/version"

	"github.com/blockstack/blockchain-id-auth/pkg/client"
	"github.com/blockstack/blockchain-id-auth/pkg/client/names"
	"github.com/blockstack/blockchain-id-auth/pkg/verify"
)

// EnvPrefix prefixes environment variables that override flags, with
// dashes replaced by underscores, e.g. BLOCKCHAIN_ID_AUTH_LOG_LEVEL.
const EnvPrefix = "BLOCKCHAIN_ID_AUTH"

// Initialize adds flags that are shared between all commands
func Initialize(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("config", "", "optional configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the process. options are [debug, info, warn, error]")

	// name lookup configs
	rootCmd.PersistentFlags().String("local-lookup-url", names.DefaultLocalBaseURL, "base URL of the local name lookup API, tried first")
	rootCmd.PersistentFlags().String("remote-lookup-url", names.DefaultRemoteBaseURL, "base URL of the hosted name lookup API, tried when the local one fails")
	rootCmd.PersistentFlags().Duration("lookup-timeout", names.DefaultTimeout, "timeout for each name lookup request")
	rootCmd.PersistentFlags().String("user-agent", "blockchain-id-auth/"+version.GetVersionInfo().GitVersion, "User-Agent sent with name lookup requests")
}

// InitializeServe adds flags used only by the serve command
func InitializeServe(serveCmd *cobra.Command) {
	serveCmd.Flags().Int("http-port", 3000, "HTTP port to bind to")
	serveCmd.Flags().String("http-address", "127.0.0.1", "HTTP address to bind to")
	serveCmd.Flags().Int("http-metrics-port", 2112, "HTTP port to bind metrics to")
	serveCmd.Flags().Duration("server-timeout", 20*time.Second, "timeout settings for HTTP connections")
	serveCmd.Flags().Int("max-request-body-size", 1024*1024, "maximum request body size in bytes")
	serveCmd.Flags().String("http-tls-cert-file", "", "optional TLS certificate for serving HTTP over TLS")
	serveCmd.Flags().String("http-tls-key-file", "", "optional TLS private key for serving HTTP over TLS")
}

// LoadConfig binds the command's flags to viper, together with environment
// variables and the optional configuration file.
func LoadConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	if cfg := viper.GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfg, err)
		}
	}
	return nil
}

// ConfigureLogging installs a JSON handler on stderr at the configured level.
func ConfigureLogging() error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log-level specified: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	return nil
}

// NewVerifier builds a token verifier backed by the configured name lookup
// endpoints.
func NewVerifier() (*verify.Verifier, error) {
	lookup, err := names.New(
		names.Config{
			LocalBaseURL:  viper.GetString("local-lookup-url"),
			RemoteBaseURL: viper.GetString("remote-lookup-url"),
			Timeout:       viper.GetDuration("lookup-timeout"),
		},
		client.WithUserAgent(viper.GetString("user-agent")),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring name lookup: %w", err)
	}
	return verify.New(nil, lookup, verify.WithLogger(slog.Default())), nil
}
