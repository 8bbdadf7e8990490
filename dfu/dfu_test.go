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

package dfu_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/pyaillet/godfu/dfu"
	"github.com/pyaillet/godfu/dfu/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/gousb"
)

const (
	rOut   = uint8(gousb.ControlOut | gousb.ControlClass | gousb.ControlInterface)
	rIn    = uint8(gousb.ControlIn | gousb.ControlClass | gousb.ControlInterface)
	rStdIn = uint8(gousb.ControlIn | gousb.ControlDevice)

	canDnload = 0x01
	plainDfu  = uint16(0x0110)
	dfuse     = uint16(0x011a)
)

// configDescriptor builds a configuration descriptor chain holding one
// interface descriptor and one DFU functional descriptor.
func configDescriptor(attrs byte, transferSize, version uint16) []byte {
	cfg := []byte{9, 0x02, 0, 0, 1, 1, 0, 0x80, 50}
	cfg = append(cfg, []byte{9, 0x04, 0, 0, 0, 0xfe, 0x01, 0x02, 0}...)
	cfg = append(cfg,
		9, 0x21, attrs,
		0, 0, // wDetachTimeOut
		byte(transferSize), byte(transferSize>>8),
		byte(version), byte(version>>8),
	)
	binary.LittleEndian.PutUint16(cfg[2:], uint16(len(cfg)))
	return cfg
}

func expectDescriptor(dev *mocks.MockUsbDeviceInterface, raw []byte) *gomock.Call {
	return dev.EXPECT().
		Control(rStdIn, uint8(0x06), uint16(0x0200), uint16(0), gomock.Any()).
		SetArg(4, raw).
		Return(len(raw), nil)
}

func expectStatus(dev *mocks.MockUsbDeviceInterface, status dfu.Status, state dfu.State) *gomock.Call {
	reply := []byte{byte(status), 0, 0, 0, byte(state), 0}
	return dev.EXPECT().
		Control(rIn, uint8(dfu.ReqGetStatus), uint16(0), uint16(0), gomock.Any()).
		SetArg(4, reply).
		Return(len(reply), nil)
}

func expectDnload(dev *mocks.MockUsbDeviceInterface, block uint16, data interface{}) *gomock.Call {
	return dev.EXPECT().
		Control(rOut, uint8(dfu.ReqDnload), block, uint16(0), data).
		Return(0, nil)
}

func TestDownloadChunksAndManifests(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	fw := make([]byte, 20)
	for i := range fw {
		fw[i] = byte(i)
	}
	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	gomock.InOrder(
		expectDescriptor(dev, configDescriptor(canDnload, 8, plainDfu)),
		// Device starts out idle.
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
		// 20 bytes in blocks of 8.
		expectDnload(dev, 0, fw[0:8]),
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		expectDnload(dev, 1, fw[8:16]),
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		expectDnload(dev, 2, fw[16:20]),
		// Last block takes one extra poll cycle to digest.
		expectStatus(dev, dfu.StatusOK, dfu.StateDnbusy),
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		// Zero-length download enters manifestation.
		expectDnload(dev, 3, gomock.Nil()),
		expectStatus(dev, dfu.StatusOK, dfu.StateManifest),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
	)

	s, err := dfu.NewSessionDeps(dev, 0, 0)
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	if s.TransferSize() != 8 {
		t.Errorf("TransferSize = %d, want 8", s.TransferSize())
	}
	if err := s.Download(fw); err != nil {
		t.Errorf("Download failed: %v", err)
	}
}

func TestDownloadDeviceRejectsBlock(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	fw := []byte{1, 2, 3, 4}
	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	gomock.InOrder(
		expectDescriptor(dev, configDescriptor(canDnload, 8, plainDfu)),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
		expectDnload(dev, 0, fw),
		expectStatus(dev, dfu.StatusErrVerify, dfu.StateError),
		// The session clears the error before reporting it.
		dev.EXPECT().Control(rOut, uint8(dfu.ReqClrStatus), uint16(0), uint16(0), gomock.Nil()).
			Return(0, nil),
	)

	s, err := dfu.NewSessionDeps(dev, 0, 0)
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	err = s.Download(fw)
	if err == nil {
		t.Fatalf("Download expected to fail")
	}
	var statusErr *dfu.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Download error %v, want a StatusError", err)
	}
	if statusErr.Status != dfu.StatusErrVerify {
		t.Errorf("StatusError.Status = %v, want %v", statusErr.Status, dfu.StatusErrVerify)
	}
}

func TestDownloadReportsDeviceGoneDuringManifest(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	fw := []byte{1, 2, 3, 4}
	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	gomock.InOrder(
		expectDescriptor(dev, configDescriptor(canDnload, 8, plainDfu)),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
		expectDnload(dev, 0, fw),
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		expectDnload(dev, 1, gomock.Nil()),
		// The device reset into the new firmware before answering.
		dev.EXPECT().Control(rIn, uint8(dfu.ReqGetStatus), uint16(0), uint16(0), gomock.Any()).
			Return(0, gousb.ErrorNoDevice),
	)

	s, err := dfu.NewSessionDeps(dev, 0, 0)
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	err = s.Download(fw)
	if err == nil {
		t.Fatalf("Download expected to fail")
	}
	if !errors.Is(err, gousb.ErrorNoDevice) {
		t.Errorf("Download error %v does not unwrap to gousb.ErrorNoDevice", err)
	}
}

func TestDownloadAbortsHalfFinishedTransfer(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	gomock.InOrder(
		expectDescriptor(dev, configDescriptor(canDnload, 8, plainDfu)),
		// A previous download was interrupted mid-transfer.
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		dev.EXPECT().Control(rOut, uint8(dfu.ReqAbort), uint16(0), uint16(0), gomock.Nil()).
			Return(0, nil),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
		// Empty image goes straight to manifestation.
		expectDnload(dev, 0, gomock.Nil()),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
	)

	s, err := dfu.NewSessionDeps(dev, 0, 0)
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	if err := s.Download(nil); err != nil {
		t.Errorf("Download failed: %v", err)
	}
}

func TestDownloadClearsStaleErrorState(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	gomock.InOrder(
		expectDescriptor(dev, configDescriptor(canDnload, 8, plainDfu)),
		expectStatus(dev, dfu.StatusErrStalledpkt, dfu.StateError),
		dev.EXPECT().Control(rOut, uint8(dfu.ReqClrStatus), uint16(0), uint16(0), gomock.Nil()).
			Return(0, nil),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
		expectDnload(dev, 0, gomock.Nil()),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
	)

	s, err := dfu.NewSessionDeps(dev, 0, 0)
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	if err := s.Download(nil); err != nil {
		t.Errorf("Download failed: %v", err)
	}
}

func TestDfuseDownloadErasesAndSetsAddress(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	const base = uint32(0x08000000)
	fw := []byte{1, 2, 3, 4, 5, 6}
	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	gomock.InOrder(
		expectDescriptor(dev, configDescriptor(canDnload, 8, dfuse)),
		dev.EXPECT().InterfaceDescription(1, 0, 0).
			Return("@Internal Flash/0x08000000/02*004Kg", nil),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
		// Erase the one page the image touches.
		expectDnload(dev, 0, []byte{0x41, 0x00, 0x00, 0x00, 0x08}),
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		// Point the write pointer at the image base.
		expectDnload(dev, 0, []byte{0x21, 0x00, 0x00, 0x00, 0x08}),
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		// DfuSe data blocks start at 2.
		expectDnload(dev, 2, fw),
		expectStatus(dev, dfu.StatusOK, dfu.StateDnloadIdle),
		expectDnload(dev, 3, gomock.Nil()),
		expectStatus(dev, dfu.StatusOK, dfu.StateManifestWaitReset),
	)

	s, err := dfu.NewSessionDeps(dev, 0, 0, dfu.WithAddress(base))
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	if err := s.Download(fw); err != nil {
		t.Errorf("Download failed: %v", err)
	}
}

func TestDfuseRejectsImageOutsideFlash(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	gomock.InOrder(
		expectDescriptor(dev, configDescriptor(canDnload, 8, dfuse)),
		dev.EXPECT().InterfaceDescription(1, 0, 0).
			Return("@Internal Flash/0x08000000/01*004Kg", nil),
		expectStatus(dev, dfu.StatusOK, dfu.StateDfuIdle),
		// No erase or download goes out for a bogus address.
	)

	s, err := dfu.NewSessionDeps(dev, 0, 0, dfu.WithAddress(0x20000000))
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	if err := s.Download([]byte{1, 2, 3, 4}); err == nil {
		t.Errorf("Download expected to fail outside flash")
	}
}

func TestNewSessionRejectsUploadOnlyDevice(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	expectDescriptor(dev, configDescriptor(0x02, 8, plainDfu))

	if _, err := dfu.NewSessionDeps(dev, 0, 0); err == nil {
		t.Errorf("NewSessionDeps expected to reject a device without download support")
	}
}

func TestNewSessionDefaultsWithoutDescriptor(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	// Device stalls the configuration descriptor request.
	dev.EXPECT().Control(rStdIn, uint8(0x06), uint16(0x0200), uint16(0), gomock.Any()).
		Return(0, errors.New("pipe stalled"))

	s, err := dfu.NewSessionDeps(dev, 0, 0)
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	if s.TransferSize() != 1024 {
		t.Errorf("TransferSize = %d, want the 1024 default", s.TransferSize())
	}
}

func TestNewSessionTransferSizeOverride(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	dev := mocks.NewMockUsbDeviceInterface(mockCtrl)
	expectDescriptor(dev, configDescriptor(canDnload, 2048, plainDfu))

	s, err := dfu.NewSessionDeps(dev, 0, 0, dfu.WithTransferSize(64))
	if err != nil {
		t.Fatalf("NewSessionDeps failed: %v", err)
	}
	if s.TransferSize() != 64 {
		t.Errorf("TransferSize = %d, want the 64 override", s.TransferSize())
	}
}
