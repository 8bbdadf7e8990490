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

// DfuSe bootloaders describe their flash geometry in the interface
// string descriptor, e.g.
//
//	@Internal Flash  /0x08000000/04*016Kg,01*064Kg,07*128Kg
//
// This file parses that string and answers which pages a download
// touches (AN3156 section 10).
package dfu

import (
	"fmt"
	"strconv"
	"strings"
)

// Sector type flags, decoded from the low bits of the trailing letter.
const (
	secReadable = 1 << 0
	secErasable = 1 << 1
	secWritable = 1 << 2
)

// sectorRun is a run of equally-sized pages.
type sectorRun struct {
	start uint32
	size  uint32
	count int
	flags byte
}

type memoryLayout struct {
	name string
	// Runs in ascending address order, as listed by the device.
	runs []sectorRun
}

// parseMemoryLayout decodes a DfuSe memory layout descriptor string.
func parseMemoryLayout(desc string) (*memoryLayout, error) {
	if !strings.HasPrefix(desc, "@") {
		return nil, fmt.Errorf("memory layout %q does not start with '@'", desc)
	}
	parts := strings.Split(desc[1:], "/")
	if len(parts) < 3 {
		return nil, fmt.Errorf("memory layout %q has no address/sector sections", desc)
	}
	layout := &memoryLayout{name: strings.TrimSpace(parts[0])}
	// Address and sector-list sections come in pairs and may repeat.
	for i := 1; i+1 < len(parts); i += 2 {
		addrField := strings.TrimSpace(parts[i])
		addr64, err := strconv.ParseUint(addrField, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("memory layout address %q: %v", addrField, err)
		}
		addr := uint32(addr64)
		for _, field := range strings.Split(parts[i+1], ",") {
			run, err := parseSectorRun(strings.TrimSpace(field))
			if err != nil {
				return nil, err
			}
			run.start = addr
			layout.runs = append(layout.runs, run)
			addr += uint32(run.count) * run.size
		}
	}
	if len(layout.runs) == 0 {
		return nil, fmt.Errorf("memory layout %q describes no sectors", desc)
	}
	return layout, nil
}

// parseSectorRun decodes one "count*size[K|M]type" field, e.g. "04*016Kg".
func parseSectorRun(field string) (sectorRun, error) {
	star := strings.IndexByte(field, '*')
	if star < 1 || star == len(field)-1 {
		return sectorRun{}, fmt.Errorf("sector field %q has no count*size separator", field)
	}
	count, err := strconv.Atoi(field[:star])
	if err != nil || count <= 0 {
		return sectorRun{}, fmt.Errorf("sector field %q has a bad page count", field)
	}
	rest := field[star+1:]
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	size, err := strconv.ParseUint(rest[:digits], 10, 32)
	if err != nil || size == 0 {
		return sectorRun{}, fmt.Errorf("sector field %q has a bad page size", field)
	}
	mult := uint64(1)
	suffix := rest[digits:]
	if len(suffix) > 0 {
		switch suffix[0] {
		case 'K':
			mult = 1024
			suffix = suffix[1:]
		case 'M':
			mult = 1024 * 1024
			suffix = suffix[1:]
		case 'B':
			suffix = suffix[1:]
		}
	}
	size *= mult
	if size > 1<<32-1 {
		return sectorRun{}, fmt.Errorf("sector field %q has an oversized page", field)
	}
	// The trailing type letter's low bits carry the
	// readable/erasable/writable flags.
	if len(suffix) != 1 {
		return sectorRun{}, fmt.Errorf("sector field %q has no type letter", field)
	}
	return sectorRun{
		size:  uint32(size),
		count: count,
		flags: suffix[0] & 0x07,
	}, nil
}

// pages returns the start address of every page that intersects
// [addr, addr+length), in ascending order. All touched pages must be
// erasable and writable, and the whole range must fall inside the
// described memory.
func (m *memoryLayout) pages(addr uint32, length int) ([]uint32, error) {
	if length == 0 {
		return nil, nil
	}
	begin := uint64(addr)
	end := begin + uint64(length)
	var pages []uint32
	covered := begin
	for _, r := range m.runs {
		pageSize := uint64(r.size)
		for i := 0; i < r.count; i++ {
			pstart := uint64(r.start) + uint64(i)*pageSize
			pend := pstart + pageSize
			if pend <= begin || pstart >= end {
				continue
			}
			if r.flags&secErasable == 0 || r.flags&secWritable == 0 {
				return nil, fmt.Errorf("page at %#x in %q is not writable", pstart, m.name)
			}
			if pstart > covered {
				// Hole between runs inside the requested range.
				return nil, fmt.Errorf("range [%#x,%#x) not covered by %q", addr, end, m.name)
			}
			pages = append(pages, uint32(pstart))
			if pend > covered {
				covered = pend
			}
		}
	}
	if covered < end {
		return nil, fmt.Errorf("range [%#x,%#x) does not fit in %q", addr, end, m.name)
	}
	return pages, nil
}
