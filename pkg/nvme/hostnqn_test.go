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
	"testing"

	"github.com/google/uuid"
)

func TestGenerateHostNQN(t *testing.T) {
	hostNQN := GenerateHostNQN()

	const prefix = "nqn.2014-08.org.nvmexpress:uuid:"
	if !strings.HasPrefix(hostNQN, prefix) {
		t.Fatalf("GenerateHostNQN(): got %q, want prefix %q", hostNQN, prefix)
	}

	if _, err := uuid.Parse(strings.TrimPrefix(hostNQN, prefix)); err != nil {
		t.Errorf("GenerateHostNQN(): %q does not end in a UUID: %v", hostNQN, err)
	}

	if GenerateHostNQN() == hostNQN {
		t.Errorf("GenerateHostNQN() should produce a fresh NQN each call")
	}
}
