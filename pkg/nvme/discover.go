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

package nvme

import (
	"strings"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/host"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/var_handler"
)

const (
	// DefaultNexusPort is the port a volume nexus frontend listens on
	DefaultNexusPort = "8420"

	// DefaultReplicaPort is the port replica targets listen on
	DefaultReplicaPort = "8430"
)

// DefaultDiscoverCommand is the discovery command template. $ADDR and
// $PORT are filled in per target.
const DefaultDiscoverCommand = "nvme discover -t tcp -a $ADDR -s $PORT"

// BuildDiscoverCommand fills the variables of a discovery command
// template. An empty template selects DefaultDiscoverCommand.
func BuildDiscoverCommand(template string, addr string, port string) string {
	if len(template) == 0 {
		template = DefaultDiscoverCommand
	}

	varHandler := var_handler.NewVarHandler(map[string]string{
		"$ADDR": addr,
		"$PORT": port,
	})

	return varHandler.ReplaceAll(template)
}

// Discover asks the target listening at addr:port for its discovery
// log page and returns the raw command output. A failure of the
// discovery command propagates to the caller unmodified.
func Discover(h host.Host, addr string, port string) (string, error) {
	return DiscoverWith(h, DefaultDiscoverCommand, addr, port)
}

// DiscoverWith runs discovery with a custom command template.
func DiscoverWith(h host.Host, template string, addr string, port string) (string, error) {
	return h.Run(BuildDiscoverCommand(template, addr, port))
}

// SubsystemIsDiscoverable reports whether the subsystem named by
// subnqn appears in the discovery response of the target at addr:port.
// The response is treated as raw text and searched for subnqn as a
// substring. Discovery runs exactly once per call; a command failure
// is returned to the caller rather than reported as not discoverable.
func SubsystemIsDiscoverable(h host.Host, addr string, port string, subnqn string) (bool, error) {
	return SubsystemIsDiscoverableWith(h, DefaultDiscoverCommand, addr, port, subnqn)
}

// SubsystemIsDiscoverableWith is SubsystemIsDiscoverable with a custom
// discovery command template.
func SubsystemIsDiscoverableWith(h host.Host, template string, addr string, port string, subnqn string) (bool, error) {
	response, err := DiscoverWith(h, template, addr, port)
	if err != nil {
		return false, err
	}

	return strings.Contains(response, subnqn), nil
}
