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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/nvme"
)

func init() {
	rootCmd.AddCommand(devicesCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the NVMe namespaces attached to this node",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := nvme.ListDevices(logger)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(writer, "DEVICE\tNSID\tSUBSYSTEM NQN\tMOUNTED")
		for _, device := range devices {
			fmt.Fprintf(writer, "%s\t%d\t%s\t%t\n", device.DevicePath, device.NSID, device.SubsystemNQN, device.Mounted)
		}

		return writer.Flush()
	},
}
