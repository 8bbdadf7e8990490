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
	"io"
	"os"

	"github.com/marcinbor85/gohex"
)

const hexLineLength = 16

// ExportHex writes fw to w as Intel HEX records.
func ExportHex(fw *Image, w io.Writer) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(fw.StartAddress, fw.Data); err != nil {
		return err
	}
	return mem.DumpIntelHex(w, hexLineLength)
}

// ExportHexFile writes fw to filename as Intel HEX records, for
// inspection or for flashing with external tools. A close error counts
// as a failed export; the records may never have reached the disk.
func ExportHexFile(fw *Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err = ExportHex(fw, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
