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

// Bounded-retry discovery of a DFU device on the USB bus. Flashing
// usually starts before the operator has put the board in bootloader
// mode, so absence is an expected condition, not an error.
package godfu

import (
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Criteria selects which device to search for. Construct with ByID,
// ByChip, or ByAnyKnownChip.
type Criteria struct {
	kind criteriaKind
	id   DeviceID
	chip string
}

type criteriaKind int

const (
	matchID criteriaKind = iota
	matchChip
	matchAnyKnown
)

// ByID matches one exact vendor/product pair.
func ByID(id DeviceID) Criteria {
	return Criteria{kind: matchID, id: id}
}

// ByChip matches any bootloader id of the named chip family.
func ByChip(name string) Criteria {
	return Criteria{kind: matchChip, chip: name}
}

// ByAnyKnownChip matches the first connected device whose id appears
// in the chip table.
func ByAnyKnownChip() Criteria {
	return Criteria{kind: matchAnyKnown}
}

func (c Criteria) String() string {
	switch c.kind {
	case matchID:
		return fmt.Sprintf("device %v", c.id)
	case matchChip:
		return fmt.Sprintf("chip %q", c.chip)
	default:
		return "any known chip"
	}
}

// Locator polls the bus until a matching device shows up or the retry
// budget runs out.
type Locator struct {
	usb   TransportInterface
	sleep func(time.Duration)
}

// NewLocatorDeps injects the sleep function so retry pacing can be
// verified without waiting.
func NewLocatorDeps(usb TransportInterface, sleep func(time.Duration)) *Locator {
	return &Locator{usb, sleep}
}

func NewLocator(usb TransportInterface) *Locator {
	return NewLocatorDeps(usb, time.Sleep)
}

// Find probes for a device matching c, at most attempts times, sleeping
// delay between consecutive attempts (never before the first, never
// after the last). Returns (nil, nil) when nothing matched within the
// budget; the caller decides whether absence is fatal. A failing bus
// enumeration aborts the search immediately.
func (l *Locator) Find(c Criteria, delay time.Duration, attempts int) (DeviceInterface, error) {
	glog.V(1).Infof("Searching for %v (%d attempts, %v apart)", c, attempts, delay)
	for i := 0; i < attempts; i++ {
		if i > 0 {
			l.sleep(delay)
		}
		dev, err := l.probe(c)
		if err != nil {
			return nil, err
		}
		if dev != nil {
			glog.V(1).Infof("Found %v on attempt %d", dev.ID(), i+1)
			return dev, nil
		}
	}
	glog.V(1).Infof("No device matching %v after %d attempts", c, attempts)
	return nil, nil
}

// probe makes a single pass over the criteria. (nil, nil) means nothing
// matched this time around; an error means the search cannot continue.
func (l *Locator) probe(c Criteria) (DeviceInterface, error) {
	switch c.kind {
	case matchID:
		return l.tryOpen(c.id), nil
	case matchChip:
		ids, ok := LookupChip(c.chip)
		if !ok {
			glog.V(2).Infof("Chip %q not in table, nothing to probe", c.chip)
			return nil, nil
		}
		for _, id := range ids {
			if dev := l.tryOpen(id); dev != nil {
				return dev, nil
			}
		}
		return nil, nil
	default:
		ids, err := l.usb.ListDevices()
		if err != nil {
			return nil, fmt.Errorf("Enumerating USB devices failed: %v", err)
		}
		for _, id := range ids {
			if !KnownDeviceID(id) {
				continue
			}
			if dev := l.tryOpen(id); dev != nil {
				return dev, nil
			}
		}
		return nil, nil
	}
}

// tryOpen opens id, swallowing open errors. A device that is present
// but not yet openable (mid-enumeration, transient permission issue)
// counts as absent for this attempt.
func (l *Locator) tryOpen(id DeviceID) DeviceInterface {
	dev, err := l.usb.OpenDevice(id)
	if err != nil {
		glog.V(1).Infof("Opening %v failed: %v", id, err)
		return nil
	}
	return dev
}
