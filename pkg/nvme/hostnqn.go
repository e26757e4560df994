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
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

const hostNQNPath = "/etc/nvme/hostnqn"

// ReadHostNQN returns the host NQN nvme-cli uses for this node
func ReadHostNQN() (string, error) {
	data, err := os.ReadFile(hostNQNPath)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", hostNQNPath, err)
	}

	hostNQN := strings.TrimSpace(string(data))
	if len(hostNQN) == 0 {
		return "", fmt.Errorf("%s is empty", hostNQNPath)
	}

	return hostNQN, nil
}

// GenerateHostNQN produces a UUID-based host NQN
func GenerateHostNQN() string {
	return "nqn.2014-08.org.nvmexpress:uuid:" + uuid.NewString()
}
