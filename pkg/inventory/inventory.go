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

package inventory

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/nvme"
)

const (
	// KindNexus marks a target as a volume nexus frontend
	KindNexus = "nexus"

	// KindReplica marks a target as a replica back end
	KindReplica = "replica"
)

// Target is one NVMe-oF endpoint to verify
type Target struct {
	// Name of the target, unique within the inventory
	Name string `json:"name"`

	// Address the target listens on
	Address string `json:"address"`

	// Port the target listens on. Defaults from Kind when empty.
	Port string `json:"port,omitempty"`

	// Kind of target, nexus or replica. Defaults to nexus.
	Kind string `json:"kind,omitempty"`

	// SubNQN is the subsystem NQN expected in the discovery response
	SubNQN string `json:"subnqn"`

	// Vars are extra template variables for the discovery command.
	// $ADDR and $PORT are reserved; they come from the fields above.
	Vars map[string]string `json:"vars,omitempty"`
}

// Defaults apply to every target in the inventory
type Defaults struct {
	// DiscoverCommand overrides the discovery command template
	DiscoverCommand string `json:"discoverCommand,omitempty"`
}

type Inventory struct {
	Defaults Defaults `json:"defaults,omitempty"`
	Targets  []Target `json:"targets"`
}

// Load reads an inventory file, validates it, and applies defaults
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read inventory %s: %w", path, err)
	}

	inventory, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}

	return inventory, nil
}

// Parse unmarshals inventory YAML, validates it, and applies defaults
func Parse(data []byte) (*Inventory, error) {
	inventory := &Inventory{}
	if err := yaml.Unmarshal(data, inventory); err != nil {
		return nil, fmt.Errorf("could not parse inventory: %w", err)
	}

	if err := inventory.normalize(); err != nil {
		return nil, err
	}

	return inventory, nil
}

// Target returns the named target, if present
func (inv *Inventory) Target(name string) (Target, bool) {
	for _, target := range inv.Targets {
		if target.Name == name {
			return target, true
		}
	}

	return Target{}, false
}

func (inv *Inventory) normalize() error {
	if len(inv.Targets) == 0 {
		return fmt.Errorf("inventory has no targets")
	}

	names := make(map[string]bool)
	for i := range inv.Targets {
		target := &inv.Targets[i]

		if len(target.Name) == 0 {
			return fmt.Errorf("target %d has no name", i)
		}
		if names[target.Name] {
			return fmt.Errorf("duplicate target name %s", target.Name)
		}
		names[target.Name] = true

		if len(target.Address) == 0 {
			return fmt.Errorf("target %s has no address", target.Name)
		}
		if len(target.SubNQN) == 0 {
			return fmt.Errorf("target %s has no subnqn", target.Name)
		}

		switch target.Kind {
		case "":
			target.Kind = KindNexus
		case KindNexus, KindReplica:
		default:
			return fmt.Errorf("target %s has unknown kind %s", target.Name, target.Kind)
		}

		if len(target.Port) == 0 {
			target.Port = defaultPort(target.Kind)
		}

		if port, err := strconv.Atoi(target.Port); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("target %s has invalid port %s", target.Name, target.Port)
		}

		for name := range target.Vars {
			if !strings.HasPrefix(name, "$") {
				return fmt.Errorf("target %s var %s must start with $", target.Name, name)
			}
			if name == "$ADDR" || name == "$PORT" {
				return fmt.Errorf("target %s var %s is reserved", target.Name, name)
			}
		}
	}

	return nil
}

func defaultPort(kind string) string {
	if kind == KindReplica {
		return nvme.DefaultReplicaPort
	}

	return nvme.DefaultNexusPort
}
