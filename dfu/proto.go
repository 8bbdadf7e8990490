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

// Wire-level constants and reply parsing for the USB DFU 1.1 class
// protocol, plus the DfuSe additions from ST application note AN3156.
package dfu

import (
	"encoding/binary"
	"fmt"
	"time"
)

//go:generate stringer -type=Request,State,Status -output=proto_string.go

// Request is a DFU class control request (DFU 1.1 table 3.2).
type Request uint8

const (
	ReqDetach    Request = 0
	ReqDnload    Request = 1
	ReqUpload    Request = 2
	ReqGetStatus Request = 3
	ReqClrStatus Request = 4
	ReqGetState  Request = 5
	ReqAbort     Request = 6
)

// State is a DFU device state (DFU 1.1 section 6.1.2).
type State uint8

const (
	StateAppIdle State = iota
	StateAppDetach
	StateDfuIdle
	StateDnloadSync
	StateDnbusy
	StateDnloadIdle
	StateManifestSync
	StateManifest
	StateManifestWaitReset
	StateUploadIdle
	StateError
)

// Status is a DFU status code reported by DFU_GETSTATUS.
type Status uint8

const (
	StatusOK Status = iota
	StatusErrTarget
	StatusErrFile
	StatusErrWrite
	StatusErrErase
	StatusErrCheckErased
	StatusErrProg
	StatusErrVerify
	StatusErrAddress
	StatusErrNotdone
	StatusErrFirmware
	StatusErrVendor
	StatusErrUsbr
	StatusErrPor
	StatusErrUnknown
	StatusErrStalledpkt
)

const (
	// USB descriptor types.
	descTypeConfiguration = 0x02
	descTypeDfuFunctional = 0x21

	// DFU_GETSTATUS reply length.
	statusLength = 6

	// bmAttributes bits of the DFU functional descriptor.
	attrCanDnload        = 1 << 0
	attrCanUpload        = 1 << 1
	attrManifestTolerant = 1 << 2
	attrWillDetach       = 1 << 3

	// bcdDFUVersion advertised by STMicroelectronics DfuSe bootloaders.
	dfuseVersion = 0x011a

	// DfuSe command opcodes, sent as block-0 downloads (AN3156).
	dfuseSetAddress = 0x21
	dfuseErasePage  = 0x41
)

// deviceStatus is a parsed DFU_GETSTATUS reply.
type deviceStatus struct {
	Status Status
	// Minimum time to wait before the next DFU_GETSTATUS.
	PollTimeout time.Duration
	State       State
}

func parseStatus(buf []byte) (deviceStatus, error) {
	if len(buf) != statusLength {
		return deviceStatus{}, fmt.Errorf("short DFU_GETSTATUS reply (%d bytes)", len(buf))
	}
	// bwPollTimeout is a 24-bit little-endian millisecond count.
	ms := uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16
	return deviceStatus{
		Status:      Status(buf[0]),
		PollTimeout: time.Duration(ms) * time.Millisecond,
		State:       State(buf[4]),
	}, nil
}

// functionalDescriptor is the DFU functional descriptor (DFU 1.1
// section 4.1.3), found in the configuration descriptor chain.
type functionalDescriptor struct {
	Attributes    uint8
	DetachTimeout uint16
	TransferSize  uint16
	Version       uint16
}

// parseFunctionalDescriptor walks a raw configuration descriptor and
// extracts the first DFU functional descriptor.
func parseFunctionalDescriptor(raw []byte) (functionalDescriptor, bool) {
	for off := 0; off+1 < len(raw); {
		length := int(raw[off])
		if length < 2 || off+length > len(raw) {
			// Corrupt descriptor chain.
			return functionalDescriptor{}, false
		}
		if raw[off+1] == descTypeDfuFunctional && length >= 9 {
			return functionalDescriptor{
				Attributes:    raw[off+2],
				DetachTimeout: binary.LittleEndian.Uint16(raw[off+3:]),
				TransferSize:  binary.LittleEndian.Uint16(raw[off+5:]),
				Version:       binary.LittleEndian.Uint16(raw[off+7:]),
			}, true
		}
		off += length
	}
	return functionalDescriptor{}, false
}

// StatusError reports a transfer the device rejected, with the status
// and state it was left in.
type StatusError struct {
	Op     string
	Status Status
	State  State
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: device reported %v in state %v", e.Op, e.Status, e.State)
}

// UnexpectedStateError reports a device that wandered outside the
// expected state machine transitions.
type UnexpectedStateError struct {
	Op    string
	State State
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf("%s: unexpected device state %v", e.Op, e.State)
}
