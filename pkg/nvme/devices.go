/*
 * Copyright 2023 Hewlett Packard Enterprise Development LP
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
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/go-logr/logr"
	"k8s.io/mount-utils"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/command"
)

type Device struct {
	DevicePath   string
	NSID         uint32
	SubsystemNQN string
	Mounted      bool
}

type nvmeListVerboseNamespaces struct {
	Device string `json:"NameSpace"`
	NSID   uint32 `json:"NSID"`
}

type nvmeListVerboseControllers struct {
	Namespaces []nvmeListVerboseNamespaces `json:"Namespaces"`
}

type nvmeListVerboseDevice struct {
	SubsystemNQN string                       `json:"SubsystemNQN"`
	Controllers  []nvmeListVerboseControllers `json:"Controllers"`
}

type nvmeListVerboseDevices struct {
	Devices []nvmeListVerboseDevice `json:"Devices"`
}

// ListDevices returns the NVMe namespaces attached to this node with
// their subsystem NQN and mounted state.
func ListDevices(log logr.Logger) ([]Device, error) {
	data, err := command.Run("nvme list -v --output-format=json", log)
	if err != nil {
		return nil, err
	}

	devices, err := parseListVerbose([]byte(data))
	if err != nil {
		return nil, err
	}

	mounts, err := mount.New("").List()
	if err != nil {
		return nil, fmt.Errorf("could not read the mount table: %w", err)
	}

	markMounted(devices, mounts)

	return devices, nil
}

func parseListVerbose(data []byte) ([]Device, error) {
	devices := []Device{}

	foundDevices := nvmeListVerboseDevices{}
	if err := json.Unmarshal(data, &foundDevices); err != nil {
		return nil, err
	}

	for _, device := range foundDevices.Devices {
		for _, controller := range device.Controllers {
			for _, namespace := range controller.Namespaces {
				devices = append(devices, Device{DevicePath: "/dev/" + namespace.Device, NSID: namespace.NSID, SubsystemNQN: device.SubsystemNQN})
			}
		}
	}

	return devices, nil
}

func markMounted(devices []Device, mounts []mount.MountPoint) {
	for i := range devices {
		for _, mountPoint := range mounts {
			if mountPoint.Device == devices[i].DevicePath {
				devices[i].Mounted = true
				break
			}
		}
	}
}

// GetDevices returns the NVMe controller devices found in /dev
func GetDevices() ([]string, error) {
	entries, err := os.ReadDir("/dev/")
	if err != nil {
		return []string{}, fmt.Errorf("could not read /dev: %w", err)
	}

	nvmeDevices := []string{}
	nvmeRegex := regexp.MustCompile("nvme[0-9]+$")
	for _, entry := range entries {
		if nvmeRegex.MatchString(entry.Name()) {
			nvmeDevices = append(nvmeDevices, "/dev/"+entry.Name())
		}
	}

	return nvmeDevices, nil
}

// GetNamespaceDevices returns the NVMe namespace block devices found
// in /dev
func GetNamespaceDevices() ([]string, error) {
	entries, err := os.ReadDir("/dev/")
	if err != nil {
		return []string{}, fmt.Errorf("could not read /dev: %w", err)
	}

	nvmeNamespaceDevices := []string{}
	nvmeRegex := regexp.MustCompile("nvme[0-9]+n[0-9]+$")
	for _, entry := range entries {
		if nvmeRegex.MatchString(entry.Name()) {
			nvmeNamespaceDevices = append(nvmeNamespaceDevices, "/dev/"+entry.Name())
		}
	}

	return nvmeNamespaceDevices, nil
}

// RescanDevices asks every NVMe controller to rescan its namespaces,
// then logs the namespaces that appeared or disappeared.
func RescanDevices(log logr.Logger) error {
	nvmeDevices, err := GetDevices()
	if err != nil {
		return err
	}

	startingNamespaces, err := GetNamespaceDevices()
	if err != nil {
		return err
	}

	for _, nvmeDevice := range nvmeDevices {
		if _, err := command.Run("nvme ns-rescan "+nvmeDevice, log); err != nil {
			return fmt.Errorf("could not rescan NVMe device: %w", err)
		}
	}

	endingNamespaces, err := GetNamespaceDevices()
	if err != nil {
		return err
	}

	removedNamespaces := []string{}

	for _, startingNamespace := range startingNamespaces {
		found := false
		for i, endingNamespace := range endingNamespaces {
			if startingNamespace == endingNamespace {
				found = true
				endingNamespaces = append(endingNamespaces[:i], endingNamespaces[i+1:]...)
				break
			}
		}
		if !found {
			removedNamespaces = append(removedNamespaces, startingNamespace)
		}
	}

	if len(removedNamespaces) != 0 {
		log.Info("nvme ns-rescan removed NVMe devices", "device paths", removedNamespaces)
	}

	if len(endingNamespaces) != 0 {
		log.Info("nvme ns-rescan added NVMe devices", "device paths", endingNamespaces)
	}

	return nil
}
