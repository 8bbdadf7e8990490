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
	"errors"
	"fmt"
	"time"

	"github.com/pyaillet/godfu"
	"github.com/pyaillet/godfu/dfu"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

// DFU bootloaders expose the download target on interface 0,
// alternate setting 0.
const (
	dfuInterface  = 0
	dfuAltSetting = 0
)

//go:generate stringer -type=FlashStatus -output=flashstatus_string.go

// FlashStatus classifies how a flash attempt ended.
type FlashStatus int

const (
	// FlashOK means the device acknowledged the whole image.
	FlashOK FlashStatus = iota
	// FlashDeviceGone means the device dropped off the bus during the
	// final handshake. Bootloaders that reset straight into the new
	// firmware end every successful flash this way.
	FlashDeviceGone
	// FlashFailed means the transfer failed; Cause has the reason.
	FlashFailed
)

// Outcome is the result of one flash attempt.
type Outcome struct {
	Status FlashStatus
	Cause  error
}

// DownloadImage pushes fw through an open session and classifies the
// result.
func DownloadImage(sess dfu.SessionInterface, fw *Image) Outcome {
	err := sess.Download(fw.Data)
	switch {
	case err == nil:
		glog.Info("Device flashed successfully")
		return Outcome{Status: FlashOK}
	case errors.Is(err, gousb.ErrorNoDevice):
		glog.V(1).Infof("Device left the bus during download: %v", err)
		return Outcome{Status: FlashDeviceGone}
	default:
		return Outcome{Status: FlashFailed, Cause: err}
	}
}

// FlashImage opens a DFU session against an already-located device and
// downloads fw. The device resets on success, so the handle is stale
// afterwards either way.
func FlashImage(fw *Image, dev godfu.DeviceInterface) Outcome {
	id := dev.ID()
	sess, err := dfu.Open(id.Vendor, id.Product, dfuInterface, dfuAltSetting,
		dfu.WithAddress(fw.StartAddress))
	if err != nil {
		return Outcome{
			Status: FlashFailed,
			Cause:  fmt.Errorf("Opening DFU session with %v failed: %v", id, err),
		}
	}
	defer sess.Close()
	return DownloadImage(sess, fw)
}

// ErrNoDevice reports that no matching device appeared within the
// retry budget.
var ErrNoDevice = errors.New("no matching DFU device found")

// FlashElfFile runs the whole pipeline: flatten the ELF, wait for a
// matching device, flash it. A device that resets before the final
// handshake still counts as success.
func FlashElfFile(filename string, usb godfu.TransportInterface, c godfu.Criteria,
	delay time.Duration, attempts int) error {
	fw, err := LoadElfFile(filename)
	if err != nil {
		return err
	}
	dev, err := godfu.NewLocator(usb).Find(c, delay, attempts)
	if err != nil {
		return err
	}
	if dev == nil {
		return ErrNoDevice
	}
	defer dev.Close()
	glog.Infof("Flashing %d bytes to %v", len(fw.Data), dev.ID())
	if out := FlashImage(fw, dev); out.Status == FlashFailed {
		return out.Cause
	}
	return nil
}
