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

package checker

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/host"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/inventory"
)

const testInventory = `
targets:
  - name: nexus-0
    address: 192.168.1.10
    subnqn: nqn.2019-05.io.openebs:nexus-0
  - name: replica-0
    address: 192.168.1.20
    kind: replica
    subnqn: nqn.2019-05.io.openebs:replica-0
  - name: broken-0
    address: 192.168.1.30
    subnqn: nqn.2019-05.io.openebs:broken-0
`

const nexusDiscoveryResponse = `
Discovery Log Number of Records 1, Generation counter 3
=====Discovery Log Entry 0======
trtype:  tcp
adrfam:  ipv4
subtype: nvme subsystem
treq:    not required
portid:  0
trsvcid: 8420
subnqn:  nqn.2019-05.io.openebs:nexus-0
traddr:  192.168.1.10
sectype: none
`

// newTestChecker wires a checker to a mock host where nexus-0 is
// discoverable, replica-0 is not, and broken-0 fails outright.
func newTestChecker() (*host.MockHost, *Checker) {
	mockHost := host.NewMockHost("test-node")
	mockHost.Responses["nvme discover -t tcp -a 192.168.1.10 -s 8420"] = nexusDiscoveryResponse
	mockHost.Responses["nvme discover -t tcp -a 192.168.1.20 -s 8430"] = "Discovery Log Number of Records 0, Generation counter 3\n"
	mockHost.Fail["nvme discover -t tcp -a 192.168.1.30 -s 8420"] = errors.New("Failed to write to /dev/nvme-fabrics: Connection refused")

	inv, err := inventory.Parse([]byte(testInventory))
	Expect(err).NotTo(HaveOccurred())

	return mockHost, &Checker{Log: logger, Host: mockHost, Inventory: inv}
}

var _ = Describe("Checker", func() {
	var (
		mockHost *host.MockHost
		chk      *Checker
	)

	BeforeEach(func() {
		mockHost, chk = newTestChecker()
	})

	Describe("CheckTarget", func() {
		It("finds a subsystem named in the discovery response", func() {
			target, found := chk.Inventory.Target("nexus-0")
			Expect(found).To(BeTrue())

			result := chk.CheckTarget(target)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Discoverable).To(BeTrue())
			Expect(result.Target).To(Equal("nexus-0"))
			Expect(result.Port).To(Equal("8420"))

			By("making exactly one discovery invocation")
			Expect(mockHost.Commands).To(HaveLen(1))
		})

		It("reports a missing subsystem as not discoverable", func() {
			target, _ := chk.Inventory.Target("replica-0")

			result := chk.CheckTarget(target)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Discoverable).To(BeFalse())
		})

		It("carries a discovery failure in the result", func() {
			target, _ := chk.Inventory.Target("broken-0")

			result := chk.CheckTarget(target)
			Expect(result.Error).To(ContainSubstring("Connection refused"))
			Expect(result.Discoverable).To(BeFalse())
		})

		It("honors a custom discovery command template", func() {
			mockHost.Responses["nvme discover -t tcp -a 192.168.1.10 -s 8420 --hostnqn nqn.test"] = nexusDiscoveryResponse
			chk.DiscoverCommand = "nvme discover -t tcp -a $ADDR -s $PORT --hostnqn nqn.test"

			target, _ := chk.Inventory.Target("nexus-0")
			result := chk.CheckTarget(target)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Discoverable).To(BeTrue())
		})

		It("applies the target's template variables", func() {
			mockHost.Responses["nvme discover -t tcp -a 192.168.1.10 -s 8420 -q nqn.2014-08.org.nvmexpress:uuid:host-0"] = nexusDiscoveryResponse
			chk.DiscoverCommand = "nvme discover -t tcp -a $ADDR -s $PORT -q $HOSTNQN"

			target, _ := chk.Inventory.Target("nexus-0")
			target.Vars = map[string]string{"$HOSTNQN": "nqn.2014-08.org.nvmexpress:uuid:host-0"}

			result := chk.CheckTarget(target)
			Expect(result.Error).To(BeEmpty())
			Expect(result.Discoverable).To(BeTrue())
		})
	})

	Describe("Sweep", func() {
		It("checks every target and tallies outcomes", func() {
			summary, err := chk.Sweep(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(summary.Sweep).To(Equal(int64(1)))
			Expect(summary.Discoverable).To(Equal(1))
			Expect(summary.Undiscoverable).To(Equal(1))
			Expect(summary.Errors).To(Equal(1))
			Expect(summary.Results).To(HaveLen(3))

			By("making one discovery invocation per target")
			Expect(mockHost.Commands).To(HaveLen(3))

			By("remembering the summary")
			last, found := chk.LastSummary()
			Expect(found).To(BeTrue())
			Expect(last.Sweep).To(Equal(summary.Sweep))
		})

		It("numbers sweeps sequentially", func() {
			summary, err := chk.Sweep(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Sweep).To(Equal(int64(1)))

			summary, err = chk.Sweep(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Sweep).To(Equal(int64(2)))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := chk.Sweep(ctx)
			Expect(err).To(HaveOccurred())
		})

		It("records history when a store is attached", func() {
			store, err := OpenStore(filepath.Join(GinkgoT().TempDir(), "history.db"))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				Expect(store.Close()).To(Succeed())
			})

			chk.Store = store

			_, err = chk.Sweep(context.Background())
			Expect(err).NotTo(HaveOccurred())
			_, err = chk.Sweep(context.Background())
			Expect(err).NotTo(HaveOccurred())

			By("returning only the latest sweep from LastResults")
			results, err := store.LastResults()
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))

			By("returning per-target history from Recent")
			recent, err := store.Recent("nexus-0", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].Discoverable).To(BeTrue())
			Expect(recent[0].SubNQN).To(Equal("nqn.2019-05.io.openebs:nexus-0"))

			recent, err = store.Recent("broken-0", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].Error).To(ContainSubstring("Connection refused"))

			By("limiting Recent to the requested count")
			recent, err = store.Recent("nexus-0", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(1))
		})
	})
})
