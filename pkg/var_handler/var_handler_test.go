/*
 * Copyright 2022, 2025 Hewlett Packard Enterprise Development LP
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

package var_handler

import (
	"testing"
)

func TestVarHandler(t *testing.T) {
	varMap := map[string]string{
		"$ADDR": "127.0.0.1",
		"$PORT": "8420",
	}

	v := NewVarHandler(varMap)
	// Add a late-arriving variable.
	v.VarMap["$SUBNQN"] = "nqn.2019-05.io.openebs:nexus0"

	in1 := "nvme discover -t tcp -a $ADDR -s $PORT"
	want1 := "nvme discover -t tcp -a 127.0.0.1 -s 8420"
	out1 := v.ReplaceAll(in1)
	if out1 != want1 {
		t.Errorf("Did not get the desired result.  Got (%s)", out1)
	}

	// Change a variable.
	v.VarMap["$PORT"] = "8430"
	in2 := "discovery of $SUBNQN at $ADDR:$PORT"
	want2 := "discovery of nqn.2019-05.io.openebs:nexus0 at 127.0.0.1:8430"
	out2 := v.ReplaceAll(in2)
	if out2 != want2 {
		t.Errorf("Did not get desired result.  Got (%s)", out2)
	}

	// Delete a variable.
	delete(v.VarMap, "$SUBNQN")
	in3 := "looking for $SUBNQN"
	want3 := "looking for $SUBNQN"
	out3 := v.ReplaceAll(in3)
	if out3 != want3 {
		t.Errorf("Did not get desired result.  Got (%s)", out3)
	}

	// Add a list to turn into variables.
	v.VarMap["$DEVICE_LIST"] = "/dev/nvme0n1 /dev/nvme1n1 /dev/nvme0n2 /dev/nvme1n2"
	if err := v.ListToVars("$DEVICE_LIST", "$DEVICE"); err != nil {
		t.Errorf("Did not split list: %v", err)
	} else {
		in4 := "smartctl -a $DEVICE1 $DEVICE2 $DEVICE3 $DEVICE4"
		want4 := "smartctl -a /dev/nvme0n1 /dev/nvme1n1 /dev/nvme0n2 /dev/nvme1n2"
		out4 := v.ReplaceAll(in4)
		if out4 != want4 {
			t.Errorf("Did not get desired result. Got (%s)", out4)
		}
	}
}
