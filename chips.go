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

// Bootloader ids of known chip families.
package godfu

// ChipFamily maps a user-facing chip name to the USB ids its DFU
// bootloader may enumerate with.
type ChipFamily struct {
	Name string
	IDs  []DeviceID
}

// Supporting a new family is a data change here, nothing else.
var chipFamilies = []ChipFamily{
	{Name: "stm32", IDs: []DeviceID{{Vendor: 0x0483, Product: 0xdf11}}},
	{Name: "gd32vf103", IDs: []DeviceID{{Vendor: 0x28e9, Product: 0x0189}}},
}

// LookupChip returns the candidate bootloader ids for a chip family,
// in probe order. Names match exactly; there is no case folding.
func LookupChip(name string) ([]DeviceID, bool) {
	for _, f := range chipFamilies {
		if f.Name == name {
			ids := make([]DeviceID, len(f.IDs))
			copy(ids, f.IDs)
			return ids, true
		}
	}
	return nil, false
}

// Chips lists every known chip family, in table order.
func Chips() []ChipFamily {
	out := make([]ChipFamily, len(chipFamilies))
	copy(out, chipFamilies)
	return out
}

// KnownDeviceID reports whether id belongs to any known chip family.
func KnownDeviceID(id DeviceID) bool {
	for _, f := range chipFamilies {
		for _, known := range f.IDs {
			if known == id {
				return true
			}
		}
	}
	return false
}
