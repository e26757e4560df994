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

var hostnqnGenerate bool

func init() {
	hostnqnCmd.Flags().BoolVar(&hostnqnGenerate, "generate", false, "Generate a fresh host NQN instead of reading the node's")
	rootCmd.AddCommand(hostnqnCmd)
}

var hostnqnCmd = &cobra.Command{
	Use:   "hostnqn",
	Short: "Print the host NQN of this node",
	RunE: func(cmd *cobra.Command, args []string) error {
		if hostnqnGenerate {
			fmt.Println(nvme.GenerateHostNQN())
			return nil
		}

		hostNQN, err := nvme.ReadHostNQN()
		if err != nil {
			return err
		}

		fmt.Println(hostNQN)
		return nil
	},
}
