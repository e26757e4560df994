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

func init() {
	rootCmd.AddCommand(rescanCmd)
}

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Ask every NVMe controller to rescan its namespaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := nvme.RescanDevices(logger); err != nil {
			return err
		}

		fmt.Println("rescan complete")
		return nil
	},
}
