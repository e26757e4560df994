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

package token

import (
	"fmt"
	"os"
)

// LoadOrCreateKey returns the signing key stored in the named PEM
// file, creating the file with a fresh key when it does not exist.
// The returned key is in DER form, ready for the token functions.
func LoadOrCreateKey(path string) ([]byte, error) {
	pemKey, err := os.ReadFile(path)
	if err == nil {
		keyBytes, err := GetKeyFromPEM(pemKey)
		if err != nil {
			return nil, fmt.Errorf("key file %s: %w", path, err)
		}
		return keyBytes, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read key file %s: %w", path, err)
	}

	keyBytes, pemKey, err := CreateKeyForTokens()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, pemKey, 0600); err != nil {
		return nil, fmt.Errorf("could not write key file %s: %w", path, err)
	}

	return keyBytes, nil
}
