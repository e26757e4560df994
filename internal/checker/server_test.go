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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/host"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/inventory"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/token"
)

var _ = Describe("Server", func() {
	var (
		mockHost *host.MockHost
		chk      *Checker
		server   *Server
		keyBytes []byte
		handler  http.Handler
	)

	BeforeEach(func() {
		mockHost, chk = newTestChecker()

		var err error
		keyBytes, _, err = token.CreateKeyForTokens()
		Expect(err).NotTo(HaveOccurred())

		server = &Server{Log: logger, Checker: chk, TokenKey: keyBytes}
		handler = server.Router()
	})

	get := func(path string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, path, nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	It("reports status", func() {
		recorder := get("/v1/status")
		Expect(recorder.Code).To(Equal(http.StatusOK))

		status := statusResponse{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &status)).To(Succeed())
		Expect(status.Host).To(Equal("test-node"))
		Expect(status.Targets).To(Equal(3))
		Expect(status.LastSweep).To(BeNil())
	})

	It("lists the inventory targets", func() {
		recorder := get("/v1/targets")
		Expect(recorder.Code).To(Equal(http.StatusOK))

		targets := []inventory.Target{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &targets)).To(Succeed())
		Expect(targets).To(HaveLen(3))
		Expect(targets[0].Name).To(Equal("nexus-0"))
		Expect(targets[0].Port).To(Equal("8420"))
	})

	It("rejects a sweep request without a token", func() {
		request := httptest.NewRequest(http.MethodPost, "/v1/sweeps", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		Expect(mockHost.Commands).To(BeEmpty())
	})

	It("rejects a sweep request with a bad token", func() {
		otherKey, _, err := token.CreateKeyForTokens()
		Expect(err).NotTo(HaveOccurred())
		tokenString, err := token.CreateTokenFromKey(otherKey, "intruder", time.Hour)
		Expect(err).NotTo(HaveOccurred())

		request := httptest.NewRequest(http.MethodPost, "/v1/sweeps", nil)
		request.Header.Set("Authorization", "Bearer "+tokenString)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		Expect(mockHost.Commands).To(BeEmpty())
	})

	It("runs a sweep for an authenticated request", func() {
		tokenString, err := token.CreateTokenFromKey(keyBytes, "operator", time.Hour)
		Expect(err).NotTo(HaveOccurred())

		request := httptest.NewRequest(http.MethodPost, "/v1/sweeps", nil)
		request.Header.Set("Authorization", "Bearer "+tokenString)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		Expect(recorder.Code).To(Equal(http.StatusOK))

		summary := Summary{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &summary)).To(Succeed())
		Expect(summary.Results).To(HaveLen(3))
		Expect(summary.Discoverable).To(Equal(1))

		By("reflecting the sweep in status")
		recorder = get("/v1/status")
		status := statusResponse{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &status)).To(Succeed())
		Expect(status.LastSweep).NotTo(BeNil())
		Expect(status.LastSweep.Sweep).To(Equal(summary.Sweep))
	})

	It("serves per-target results from the store", func() {
		store, err := OpenStore(filepath.Join(GinkgoT().TempDir(), "history.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(store.Close()).To(Succeed())
		})
		chk.Store = store

		_, err = chk.Sweep(context.Background())
		Expect(err).NotTo(HaveOccurred())

		recorder := get("/v1/results/nexus-0")
		Expect(recorder.Code).To(Equal(http.StatusOK))

		results := []Result{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &results)).To(Succeed())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Discoverable).To(BeTrue())

		By("rejecting a bad limit")
		recorder = get("/v1/results/nexus-0?limit=zero")
		Expect(recorder.Code).To(Equal(http.StatusBadRequest))
	})

	It("404s for a target that is not in the inventory", func() {
		recorder := get("/v1/results/no-such-target")
		Expect(recorder.Code).To(Equal(http.StatusNotFound))
	})

	It("503s for results when no store is attached", func() {
		recorder := get("/v1/results/nexus-0")
		Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("exposes prometheus metrics", func() {
		recorder := get("/metrics")
		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(recorder.Body.String()).To(ContainSubstring("nvmeof_sweeps_total"))
	})
})
