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

package util

import (
	"debug/elf"
	"fmt"
	"math"

	"github.com/golang/glog"
)

// Image is a flat firmware image: the bytes to program and the
// physical address they belong at.
type Image struct {
	StartAddress uint32
	Data         []byte
}

// ELF header sizes by class. debug/elf does not expose e_ehsize.
const (
	elfHeaderSize32 = 52
	elfHeaderSize64 = 64
)

func headerSize(f *elf.File) uint64 {
	if f.Class == elf.ELFCLASS64 {
		return elfHeaderSize64
	}
	return elfHeaderSize32
}

// loadable reports whether a program header contributes bytes to the
// flashed image: a readable PT_LOAD carrying file contents that sit
// beyond the ELF header.
func loadable(f *elf.File, p *elf.Prog) bool {
	return p.Type == elf.PT_LOAD &&
		p.Filesz > 0 &&
		p.Off >= headerSize(f) &&
		p.Flags&elf.PF_R != 0
}

// FlattenElf reduces the loadable segments of an ELF executable to one
// contiguous image, zero-filling the address gaps between consecutive
// segments. Program header order is preserved; the first loadable
// segment's physical address becomes the image start. An executable
// with no loadable segments yields an empty image at address zero.
func FlattenElf(f *elf.File) (*Image, error) {
	img := &Image{}
	var start, end uint64
	first := true
	for _, p := range f.Progs {
		if !loadable(f, p) {
			continue
		}
		if first {
			start = p.Paddr
			first = false
		} else {
			if p.Paddr < end {
				return nil, fmt.Errorf("Segment at %#x overlaps previous segment ending at %#x", p.Paddr, end)
			}
			img.Data = append(img.Data, make([]byte, p.Paddr-end)...)
		}
		buf := make([]byte, p.Filesz)
		if _, err := p.ReadAt(buf, 0); err != nil {
			return nil, fmt.Errorf("Reading segment at %#x failed: %v", p.Paddr, err)
		}
		img.Data = append(img.Data, buf...)
		end = p.Paddr + p.Filesz
	}
	if first {
		glog.V(1).Info("No loadable segments found")
		return img, nil
	}
	if start > math.MaxUint32 {
		return nil, fmt.Errorf("Start address %#x does not fit in 32 bits", start)
	}
	img.StartAddress = uint32(start)
	glog.V(1).Infof("Flattened image: %d bytes at %#x", len(img.Data), img.StartAddress)
	return img, nil
}

// LoadElfFile reads an ELF executable and flattens it into a firmware
// image.
func LoadElfFile(filename string) (*Image, error) {
	f, err := elf.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return FlattenElf(f)
}
