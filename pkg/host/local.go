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
	"github.com/go-logr/logr"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/command"
)

// LocalHost runs commands on the local system
type LocalHost struct {
	Log logr.Logger
}

// Check that LocalHost implements the Host interface
var _ Host = &LocalHost{}

func NewLocalHost(log logr.Logger) *LocalHost {
	return &LocalHost{Log: log}
}

func (h *LocalHost) Name() string {
	return "localhost"
}

func (h *LocalHost) Run(cmd string) (string, error) {
	return command.Run(cmd, h.Log)
}
