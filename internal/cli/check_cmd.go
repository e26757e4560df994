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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NearNodeFlash/nnf-nvmeof/internal/checker"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/inventory"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/nvme"
)

var (
	checkAddress   string
	checkPort      string
	checkSubNQN    string
	checkInventory string
	checkParallel  int
	checkTemplate  string
)

func init() {
	checkCmd.Flags().StringVar(&checkAddress, "address", "", "Target address")
	checkCmd.Flags().StringVar(&checkPort, "port", nvme.DefaultNexusPort, "Target port")
	checkCmd.Flags().StringVar(&checkSubNQN, "subnqn", "", "Subsystem NQN to look for")
	checkCmd.Flags().StringVar(&checkInventory, "inventory", "", "Check every target of an inventory file instead")
	checkCmd.Flags().IntVar(&checkParallel, "parallel", 4, "Maximum concurrent checks for --inventory")
	checkCmd.Flags().StringVar(&checkTemplate, "command", "", "Discovery command template ($ADDR and $PORT are replaced)")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that subsystems are discoverable",
	Long: `Check runs the discovery command against a target and looks for the
subsystem NQN in the raw response. The exit status is nonzero when any
subsystem is not discoverable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(checkInventory) != 0 {
			return checkFromInventory(cmd.Context())
		}

		return checkSingle()
	},
}

func checkSingle() error {
	if len(checkAddress) == 0 || len(checkSubNQN) == 0 {
		return fmt.Errorf("either --inventory or both --address and --subnqn are required")
	}

	h, closeHost, err := checkHost()
	if err != nil {
		return err
	}
	defer closeHost()

	found, err := nvme.SubsystemIsDiscoverableWith(h, checkTemplate, checkAddress, checkPort, checkSubNQN)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("subsystem %s is not discoverable at %s:%s", checkSubNQN, checkAddress, checkPort)
	}

	fmt.Printf("subsystem %s is discoverable at %s:%s\n", checkSubNQN, checkAddress, checkPort)
	return nil
}

func checkFromInventory(ctx context.Context) error {
	inv, err := inventory.Load(checkInventory)
	if err != nil {
		return err
	}

	h, closeHost, err := checkHost()
	if err != nil {
		return err
	}
	defer closeHost()

	template := checkTemplate
	if len(template) == 0 {
		template = inv.Defaults.DiscoverCommand
	}

	chk := &checker.Checker{
		Log:             logger,
		Host:            h,
		Inventory:       inv,
		DiscoverCommand: template,
		Parallel:        checkParallel,
	}

	summary, err := chk.Sweep(ctx)
	if err != nil {
		return err
	}

	for _, result := range summary.Results {
		switch {
		case len(result.Error) != 0:
			fmt.Printf("ERROR   %s (%s:%s): %s\n", result.Target, result.Address, result.Port, result.Error)
		case result.Discoverable:
			fmt.Printf("OK      %s (%s:%s)\n", result.Target, result.Address, result.Port)
		default:
			fmt.Printf("ABSENT  %s (%s:%s) subnqn %s\n", result.Target, result.Address, result.Port, result.SubNQN)
		}
	}

	if summary.Undiscoverable != 0 || summary.Errors != 0 {
		return fmt.Errorf("%d of %d targets not discoverable", summary.Undiscoverable+summary.Errors, len(summary.Results))
	}

	fmt.Printf("all %d targets discoverable\n", len(summary.Results))
	return nil
}
