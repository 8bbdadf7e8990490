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

// Drives the USB DFU 1.1 download protocol over gousb control
// transfers. Handles both plain DFU bootloaders and the DfuSe variant
// found in STM32 BootROMs, which needs explicit erase and address
// commands before the data phase. The device must already be running
// its bootloader; DFU_DETACH is not implemented.
package dfu

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

const (
	rTypeOut   uint8 = gousb.ControlOut | gousb.ControlClass | gousb.ControlInterface
	rTypeIn    uint8 = gousb.ControlIn | gousb.ControlClass | gousb.ControlInterface
	rTypeStdIn uint8 = gousb.ControlIn | gousb.ControlDevice

	reqGetDescriptor = 0x06

	// Used when the device does not advertise a transfer size.
	defaultTransferSize = 1024

	// Generous upper bound for one configuration descriptor chain.
	maxConfigDescriptor = 4096
)

//go:generate mockgen -destination=mocks/usb_device.go -package=mocks github.com/pyaillet/godfu/dfu UsbDeviceInterface

// UsbDeviceInterface is the slice of *gousb.Device a session needs.
type UsbDeviceInterface interface {
	io.Closer
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
	InterfaceDescription(cfgNum, intfNum, altNum int) (string, error)
}

//go:generate mockgen -destination=mocks/session.go -package=mocks github.com/pyaillet/godfu/dfu SessionInterface

// SessionInterface is what callers flashing firmware need: push one
// image through the download state machine.
type SessionInterface interface {
	io.Closer
	Download(data []byte) error
}

// Option adjusts session behavior.
type Option func(*Session)

// WithAddress sets the flash base address DfuSe targets erase and
// program at. Plain DFU targets ignore it.
func WithAddress(addr uint32) Option {
	return func(s *Session) { s.address = addr }
}

// WithTransferSize overrides the device-advertised download block size.
func WithTransferSize(n int) Option {
	return func(s *Session) { s.overrideSize = n }
}

// Session is an open DFU download session on one interface alternate
// setting. Implements SessionInterface.
type Session struct {
	dev  UsbDeviceInterface
	intf int
	alt  int

	address      uint32
	overrideSize int

	transferSize int
	dfuse        bool
	layout       *memoryLayout

	done func() error
}

// Open claims interface intf, alternate setting alt, of the device with
// the given ids and prepares a download session. The session owns its
// USB context and handle; Close releases both. A device that is not
// connected reports gousb.ErrorNoDevice.
func Open(vendor, product gousb.ID, intf, alt int, opts ...Option) (*Session, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vendor, product)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("opening %v:%v: %w", vendor, product, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("device %v:%v: %w", vendor, product, gousb.ErrorNoDevice)
	}
	// The bootloader interface may be bound to a kernel driver.
	if err = dev.SetAutoDetach(true); err != nil {
		glog.Warningf("SetAutoDetach failed with %v", err)
	}
	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claiming configuration 1: %w", err)
	}
	iface, err := cfg.Interface(intf, alt)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claiming interface (%d,%d): %w", intf, alt, err)
	}
	s, err := NewSessionDeps(dev, intf, alt, opts...)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, err
	}
	s.done = func() error {
		iface.Close()
		cfg.Close()
		err := dev.Close()
		ctx.Close()
		return err
	}
	return s, nil
}

// NewSessionDeps builds a session over an already-claimed device.
// Close does not release the device.
func NewSessionDeps(dev UsbDeviceInterface, intf, alt int, opts ...Option) (*Session, error) {
	s := &Session{dev: dev, intf: intf, alt: alt, transferSize: defaultTransferSize}
	for _, o := range opts {
		o(s)
	}
	fd, ok := s.readFunctionalDescriptor()
	if ok {
		if fd.Attributes&attrCanDnload == 0 {
			return nil, fmt.Errorf("device does not support firmware download")
		}
		if fd.TransferSize > 0 {
			s.transferSize = int(fd.TransferSize)
		}
		s.dfuse = fd.Version == dfuseVersion
		glog.V(1).Infof("DFU descriptor: version=%#04x transfer=%d attrs=%#02x",
			fd.Version, fd.TransferSize, fd.Attributes)
	}
	if s.overrideSize > 0 {
		s.transferSize = s.overrideSize
	}
	if s.dfuse {
		desc, err := dev.InterfaceDescription(1, intf, alt)
		if err != nil {
			return nil, fmt.Errorf("reading DfuSe memory layout: %w", err)
		}
		if s.layout, err = parseMemoryLayout(desc); err != nil {
			return nil, err
		}
		glog.V(1).Infof("DfuSe layout: %d sector runs in %q", len(s.layout.runs), s.layout.name)
	}
	return s, nil
}

// readFunctionalDescriptor fetches the configuration descriptor chain
// and digs out the DFU functional descriptor. Devices that omit it get
// protocol defaults.
func (s *Session) readFunctionalDescriptor() (functionalDescriptor, bool) {
	buf := make([]byte, maxConfigDescriptor)
	n, err := s.dev.Control(rTypeStdIn, reqGetDescriptor, descTypeConfiguration<<8, 0, buf)
	if err != nil {
		glog.Warningf("Reading configuration descriptor failed with %v", err)
		return functionalDescriptor{}, false
	}
	fd, ok := parseFunctionalDescriptor(buf[:n])
	if !ok {
		glog.Warningf("No DFU functional descriptor found, using defaults")
	}
	return fd, ok
}

// TransferSize is the download block size the session will use.
func (s *Session) TransferSize() int {
	return s.transferSize
}

// Download streams fw through the DFU download state machine and
// drives manifestation. Devices that are not manifestation tolerant
// reset the bus before the final handshake completes; callers can spot
// that with errors.Is(err, gousb.ErrorNoDevice).
func (s *Session) Download(fw []byte) error {
	if err := s.ensureIdle(); err != nil {
		return err
	}
	block := uint16(0)
	if s.dfuse {
		if err := s.prepareDfuse(len(fw)); err != nil {
			return err
		}
		// DfuSe data blocks start at 2; block 0 carries commands.
		block = 2
	}
	glog.V(1).Infof("Downloading %d bytes in blocks of %d", len(fw), s.transferSize)
	for off := 0; off < len(fw); off += s.transferSize {
		end := off + s.transferSize
		if end > len(fw) {
			end = len(fw)
		}
		if err := s.downloadBlock(block, fw[off:end]); err != nil {
			return fmt.Errorf("block %d (offset %#x): %w", block, off, err)
		}
		block++
	}
	return s.manifest(block)
}

func (s *Session) downloadBlock(block uint16, chunk []byte) error {
	n := min(len(chunk), 32)
	glog.V(2).Infof("[dfu-dnload]: block = %d, len = %d. data[:%d]:\n%s",
		block, len(chunk), n, hex.Dump(chunk[:n]))
	if _, err := s.dev.Control(rTypeOut, uint8(ReqDnload), block, uint16(s.intf), chunk); err != nil {
		return fmt.Errorf("%v failed: %w", ReqDnload, err)
	}
	return s.waitIdle("download")
}

// manifest sends the zero-length download that ends the transfer and
// polls the device through manifestation.
func (s *Session) manifest(block uint16) error {
	glog.V(2).Infof("[dfu-manifest]: block = %d", block)
	if _, err := s.dev.Control(rTypeOut, uint8(ReqDnload), block, uint16(s.intf), nil); err != nil {
		return fmt.Errorf("final %v failed: %w", ReqDnload, err)
	}
	for {
		status, err := s.getStatus()
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		if status.Status != StatusOK {
			s.clearStatus()
			return &StatusError{Op: "manifest", Status: status.Status, State: status.State}
		}
		switch status.State {
		case StateManifestSync, StateManifest:
			pollWait(status.PollTimeout)
		case StateDfuIdle, StateManifestWaitReset:
			glog.V(1).Info("Manifestation complete")
			return nil
		default:
			return &UnexpectedStateError{Op: "manifest", State: status.State}
		}
	}
}

// waitIdle polls DFU_GETSTATUS until the device digests the last
// download block, honoring the poll interval it asks for.
func (s *Session) waitIdle(op string) error {
	for {
		status, err := s.getStatus()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if status.Status != StatusOK {
			s.clearStatus()
			return &StatusError{Op: op, Status: status.Status, State: status.State}
		}
		switch status.State {
		case StateDnloadSync, StateDnbusy:
			pollWait(status.PollTimeout)
		case StateDnloadIdle, StateDfuIdle:
			return nil
		default:
			return &UnexpectedStateError{Op: op, State: status.State}
		}
	}
}

// ensureIdle drives the device into dfuIDLE before a download, clearing
// a stale error or aborting a half-finished transfer.
func (s *Session) ensureIdle() error {
	status, err := s.getStatus()
	if err != nil {
		return fmt.Errorf("initial status: %w", err)
	}
	switch status.State {
	case StateDfuIdle:
		return nil
	case StateError:
		glog.V(1).Infof("Device in %v (%v), clearing", status.State, status.Status)
		s.clearStatus()
	default:
		glog.V(1).Infof("Device in %v, aborting to idle", status.State)
		if _, err = s.dev.Control(rTypeOut, uint8(ReqAbort), 0, uint16(s.intf), nil); err != nil {
			return fmt.Errorf("%v failed: %w", ReqAbort, err)
		}
	}
	if status, err = s.getStatus(); err != nil {
		return fmt.Errorf("post-reset status: %w", err)
	}
	if status.State != StateDfuIdle {
		return &UnexpectedStateError{Op: "reset to idle", State: status.State}
	}
	return nil
}

// prepareDfuse erases every page the image touches and points the
// device at the base address (AN3156 sections 5 and 6).
func (s *Session) prepareDfuse(length int) error {
	pages, err := s.layout.pages(s.address, length)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Erasing %d pages in %q", len(pages), s.layout.name)
	for _, page := range pages {
		if err := s.dfuseCommand("erase page", dfuseErasePage, page); err != nil {
			return err
		}
	}
	return s.dfuseCommand("set address", dfuseSetAddress, s.address)
}

func (s *Session) dfuseCommand(op string, cmd byte, addr uint32) error {
	buf := make([]byte, 5)
	buf[0] = cmd
	binary.LittleEndian.PutUint32(buf[1:], addr)
	glog.V(2).Infof("[dfuse-cmd]: %s, addr = %#x", op, addr)
	if _, err := s.dev.Control(rTypeOut, uint8(ReqDnload), 0, uint16(s.intf), buf); err != nil {
		return fmt.Errorf("DfuSe %s failed: %w", op, err)
	}
	return s.waitIdle("DfuSe " + op)
}

func (s *Session) getStatus() (deviceStatus, error) {
	buf := make([]byte, statusLength)
	n, err := s.dev.Control(rTypeIn, uint8(ReqGetStatus), 0, uint16(s.intf), buf)
	if err != nil {
		return deviceStatus{}, fmt.Errorf("%v failed: %w", ReqGetStatus, err)
	}
	status, err := parseStatus(buf[:n])
	if err != nil {
		return deviceStatus{}, err
	}
	glog.V(2).Infof("[dfu-status]: status = %v, state = %v, poll = %v",
		status.Status, status.State, status.PollTimeout)
	return status, nil
}

// clearStatus is best effort; the device already reported an error.
func (s *Session) clearStatus() {
	if _, err := s.dev.Control(rTypeOut, uint8(ReqClrStatus), 0, uint16(s.intf), nil); err != nil {
		glog.V(1).Infof("%v failed with %v", ReqClrStatus, err)
	}
}

func pollWait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (s *Session) Close() error {
	glog.V(1).Info("Closing DFU session")
	if s.done == nil {
		return nil
	}
	err := s.done()
	s.done = nil
	return err
}
