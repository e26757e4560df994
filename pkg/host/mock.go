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

package host

import (
	"fmt"
	"sync"
)

// MockHost replays canned responses. Commands are matched verbatim
// against the Responses map. Safe for concurrent Run calls.
type MockHost struct {
	// Hostname reported by Name
	Hostname string

	// Responses maps a command to the stdout it produces
	Responses map[string]string

	// Fail forces an error for the named commands
	Fail map[string]error

	// Commands records every command run, in order
	Commands []string

	mutex sync.Mutex
}

// Check that MockHost implements the Host interface
var _ Host = &MockHost{}

func NewMockHost(hostname string) *MockHost {
	return &MockHost{
		Hostname:  hostname,
		Responses: make(map[string]string),
		Fail:      make(map[string]error),
	}
}

func (m *MockHost) Name() string {
	return m.Hostname
}

func (m *MockHost) Run(cmd string) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.Commands = append(m.Commands, cmd)

	if err, ok := m.Fail[cmd]; ok {
		return "", err
	}

	out, ok := m.Responses[cmd]
	if !ok {
		return "", fmt.Errorf("no response scripted for command: %s", cmd)
	}

	return out, nil
}
