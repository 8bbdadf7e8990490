// Copyright 2024 The godfu Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package godfu_test

import (
	"testing"

	"github.com/pyaillet/godfu"
)

func TestLookupChipKnownFamily(t *testing.T) {
	ids, ok := godfu.LookupChip("stm32")
	if !ok {
		t.Fatalf("LookupChip(stm32) not found")
	}
	want := godfu.DeviceID{Vendor: 0x0483, Product: 0xdf11}
	if len(ids) != 1 || ids[0] != want {
		t.Errorf("LookupChip(stm32) = %v, want [%v]", ids, want)
	}
}

func TestLookupChipUnknownFamily(t *testing.T) {
	if _, ok := godfu.LookupChip("z80"); ok {
		t.Errorf("LookupChip(z80) expected to miss")
	}
}

func TestLookupChipIsCaseSensitive(t *testing.T) {
	if _, ok := godfu.LookupChip("STM32"); ok {
		t.Errorf("LookupChip(STM32) expected to miss, names are case sensitive")
	}
}

func TestKnownDeviceID(t *testing.T) {
	if !godfu.KnownDeviceID(godfu.DeviceID{Vendor: 0x28e9, Product: 0x0189}) {
		t.Errorf("KnownDeviceID missed the gd32vf103 bootloader")
	}
	if godfu.KnownDeviceID(godfu.DeviceID{Vendor: 0x1209, Product: 0x0001}) {
		t.Errorf("KnownDeviceID matched an id outside the table")
	}
}

func TestChipsPreservesTableOrder(t *testing.T) {
	want := []string{"stm32", "gd32vf103"}
	families := godfu.Chips()
	if len(families) != len(want) {
		t.Fatalf("Chips returned %d families, want %d", len(families), len(want))
	}
	for i, f := range families {
		if f.Name != want[i] {
			t.Errorf("Chips()[%d] = %q, want %q", i, f.Name, want[i])
		}
	}
}
