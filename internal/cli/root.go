/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/host"
)

var (
	sshSpec    string
	sshKeyFile string
	verbose    bool

	logger logr.Logger
)

var rootCmd = &cobra.Command{
	Use:           "nvmeof",
	Short:         "Verify NVMe-oF (TCP) subsystem discoverability",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogger)
	rootCmd.PersistentFlags().StringVar(&sshSpec, "ssh", "", "Run discovery commands on a remote host (user@host)")
	rootCmd.PersistentFlags().StringVar(&sshKeyFile, "ssh-key", "", "Private key for --ssh (default is $HOME/.ssh/id_rsa)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log the commands being run")
}

func initLogger() {
	config := zap.NewDevelopmentConfig()
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	zapLogger, err := config.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not create logger:", err)
		os.Exit(1)
	}

	logger = zapr.NewLogger(zapLogger)
}

// checkHost selects the host discovery commands run on: the local
// system, or a remote host when --ssh is given. The returned closer
// releases the SSH connection.
func checkHost() (host.Host, func(), error) {
	if len(sshSpec) == 0 {
		return host.NewLocalHost(logger), func() {}, nil
	}

	parts := strings.SplitN(sshSpec, "@", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) == 0 {
		return nil, nil, fmt.Errorf("--ssh wants user@host, got %s", sshSpec)
	}

	keyFile := sshKeyFile
	if len(keyFile) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("--ssh-key is required: %w", err)
		}
		keyFile = filepath.Join(home, ".ssh", "id_rsa")
	}

	sshHost := host.NewSSHHost(parts[0], parts[1], keyFile, logger)

	return sshHost, func() { sshHost.Close() }, nil
}
