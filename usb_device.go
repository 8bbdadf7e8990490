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

// Provides the host USB transport used to discover and open devices
// running a DFU bootloader. Built on gousb.
package godfu

import (
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

// DeviceID identifies a USB device by its vendor and product ids.
type DeviceID struct {
	Vendor  gousb.ID
	Product gousb.ID
}

func (id DeviceID) String() string {
	return fmt.Sprintf("%v:%v", id.Vendor, id.Product)
}

//go:generate mockgen -destination=mocks/usb_device.go -package=mocks github.com/pyaillet/godfu TransportInterface,DeviceInterface

// DeviceInterface is an opened USB device.
type DeviceInterface interface {
	io.Closer
	ID() DeviceID
	// Descriptor strings, used for operator-facing reporting only.
	Manufacturer() (string, error)
	Product() (string, error)
}

// TransportInterface is the slice of the host USB stack the locator
// needs: open a device by id, enumerate connected ids.
type TransportInterface interface {
	io.Closer
	// OpenDevice opens the first connected device matching id.
	// Returns (nil, nil) when no such device is connected.
	OpenDevice(id DeviceID) (DeviceInterface, error)
	// ListDevices returns the ids of all connected devices, in bus
	// enumeration order. Ids may repeat.
	ListDevices() ([]DeviceID, error)
}

// Usb is the gousb-backed transport.
type Usb struct {
	ctx *gousb.Context
}

func NewUsb() *Usb {
	return &Usb{ctx: gousb.NewContext()}
}

func (u *Usb) OpenDevice(id DeviceID) (DeviceInterface, error) {
	dev, err := u.ctx.OpenDeviceWithVIDPID(id.Vendor, id.Product)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, nil
	}
	glog.V(2).Infof("Opened device %v", id)
	return &usbDevice{dev}, nil
}

func (u *Usb) ListDevices() ([]DeviceID, error) {
	var ids []DeviceID
	// The opener only records ids; returning false opens nothing.
	_, err := u.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		ids = append(ids, DeviceID{desc.Vendor, desc.Product})
		return false
	})
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("Enumerated %d devices", len(ids))
	return ids, nil
}

func (u *Usb) Close() error {
	glog.V(1).Info("Closing USB context")
	if u.ctx == nil {
		return nil
	}
	err := u.ctx.Close()
	u.ctx = nil
	return err
}

// usbDevice adapts *gousb.Device to DeviceInterface.
type usbDevice struct {
	dev *gousb.Device
}

func (d *usbDevice) ID() DeviceID {
	return DeviceID{d.dev.Desc.Vendor, d.dev.Desc.Product}
}

func (d *usbDevice) Manufacturer() (string, error) {
	return d.dev.Manufacturer()
}

func (d *usbDevice) Product() (string, error) {
	return d.dev.Product()
}

func (d *usbDevice) Close() error {
	return d.dev.Close()
}
