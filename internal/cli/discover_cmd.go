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

	"github.com/spf13/cobra"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/nvme"
)

var (
	discoverAddress  string
	discoverPort     string
	discoverTemplate string
)

func init() {
	discoverCmd.Flags().StringVar(&discoverAddress, "address", "", "Target address")
	discoverCmd.Flags().StringVar(&discoverPort, "port", nvme.DefaultNexusPort, "Target port")
	discoverCmd.Flags().StringVar(&discoverTemplate, "command", "", "Discovery command template ($ADDR and $PORT are replaced)")
	discoverCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Print the raw discovery response of a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, closeHost, err := checkHost()
		if err != nil {
			return err
		}
		defer closeHost()

		out, err := nvme.DiscoverWith(h, discoverTemplate, discoverAddress, discoverPort)
		if err != nil {
			return err
		}

		fmt.Print(out)
		return nil
	},
}
