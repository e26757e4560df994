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
	"bytes"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"
)

// SSHHost runs commands on a remote node over SSH. The connection is
// established on first use and held open until Close.
type SSHHost struct {
	User    string
	Address string
	KeyFile string
	Log     logr.Logger

	mutex  sync.Mutex
	client *ssh.Client
}

// Check that SSHHost implements the Host interface
var _ Host = &SSHHost{}

func NewSSHHost(user, address, keyFile string, log logr.Logger) *SSHHost {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, "22")
	}

	return &SSHHost{User: user, Address: address, KeyFile: keyFile, Log: log}
}

func (h *SSHHost) Name() string {
	return h.Address
}

func (h *SSHHost) Run(cmd string) (string, error) {
	client, err := h.connect()
	if err != nil {
		return "", err
	}

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("unable to open session on %s: %w", h.Address, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	h.Log.V(1).Info("Command Run", "host", h.Address, "command", cmd)

	if err := session.Run(cmd); err != nil {
		return stdout.String(), fmt.Errorf("command: %s - stderr: %s - stdout: %s - error: %w", cmd, stderr.String(), stdout.String(), err)
	}

	return stdout.String(), nil
}

func (h *SSHHost) connect() (*ssh.Client, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.client != nil {
		return h.client, nil
	}

	keyPEM, err := os.ReadFile(h.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read key file %s: %w", h.KeyFile, err)
	}

	signer, err := ssh.ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("unable to parse key file %s: %w", h.KeyFile, err)
	}

	config := &ssh.ClientConfig{
		User:            h.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	client, err := ssh.Dial("tcp", h.Address, config)
	if err != nil {
		return nil, fmt.Errorf("unable to dial %s: %w", h.Address, err)
	}

	h.client = client

	return client, nil
}

// Close the connection, if one was established
func (h *SSHHost) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.client == nil {
		return nil
	}

	err := h.client.Close()
	h.client = nil

	return err
}
