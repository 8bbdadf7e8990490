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

// Flashes firmware onto a microcontroller running a DFU bootloader.
// The firmware comes from an ELF file (-elf) or a tinygo build
// (-target); the device comes from -vid/-pid, a -chip family, or a
// scan for any known bootloader id.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pyaillet/godfu"
	"github.com/pyaillet/godfu/util"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/google/gousb"
)

var (
	elfFile   = flag.String("elf", "", "ELF firmware file to flash")
	target    = flag.String("target", "", "tinygo target to build for before flashing; the package to build is the positional argument (default \".\")")
	vid       = flag.String("vid", "", "USB vendor id of the bootloader, e.g. 0x0483")
	pid       = flag.String("pid", "", "USB product id of the bootloader, e.g. 0xdf11")
	chip      = flag.String("chip", "", "chip family to look for (see -list-chips)")
	listChips = flag.Bool("list-chips", false, "list known chip families and exit")
	hexFile   = flag.String("hex", "", "write the flattened image as Intel HEX to this file instead of flashing")
	delayMs   = flag.Int("delay", 500, "milliseconds between device probes")
	retries   = flag.Int("retries", 60, "device probes before giving up")
)

// Exit code when no device showed up, so scripts can tell "plug it in"
// apart from real failures.
const exitNoDevice = 101

var (
	green = color.New(color.FgGreen, color.Bold)
	red   = color.New(color.FgRed, color.Bold)
)

func parseID(s string) (gousb.ID, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(v), nil
}

// criteria derives the device search from the flags. An explicit
// vid/pid pair wins, then a chip name, then any known bootloader.
func criteria() godfu.Criteria {
	switch {
	case *vid != "" && *pid != "":
		v, err := parseID(*vid)
		if err != nil {
			glog.Fatalf("Bad -vid %q: %v", *vid, err)
		}
		p, err := parseID(*pid)
		if err != nil {
			glog.Fatalf("Bad -pid %q: %v", *pid, err)
		}
		return godfu.ByID(godfu.DeviceID{Vendor: v, Product: p})
	case *vid != "" || *pid != "":
		glog.Fatal("-vid and -pid must be given together")
		return godfu.Criteria{}
	case *chip != "":
		return godfu.ByChip(*chip)
	default:
		return godfu.ByAnyKnownChip()
	}
}

// descriptorString reads one string descriptor, tolerating devices
// that do not provide it.
func descriptorString(get func() (string, error)) string {
	s, err := get()
	if err != nil {
		glog.V(1).Infof("Reading string descriptor failed: %v", err)
		return "(unknown)"
	}
	return s
}

// loadFirmware flattens the ELF at path, then removes the build
// scratch directory that held it, if any. glog.Fatalf and os.Exit skip
// deferred calls, so the removal cannot wait until main returns.
func loadFirmware(path string, cleanup func()) (*util.Image, error) {
	fw, err := util.LoadElfFile(path)
	if cleanup != nil {
		cleanup()
	}
	return fw, err
}

func main() {
	flag.Parse()
	var err error
	defer glog.Flush()

	if *listChips {
		for _, f := range godfu.Chips() {
			fmt.Println(f.Name)
		}
		return
	}

	path := *elfFile
	var cleanup func()
	if *target != "" {
		if path, cleanup, err = buildFirmware(*target, flag.Arg(0)); err != nil {
			exitBuild(err)
		}
	}
	if path == "" {
		glog.Fatal("Missing -elf argument (or -target to build first)")
	}

	var fw *util.Image
	if fw, err = loadFirmware(path, cleanup); err != nil {
		glog.Fatalf("Failed loading firmware: %v", err)
	}
	glog.V(1).Infof("Loaded %d bytes at %#x from %s", len(fw.Data), fw.StartAddress, path)

	if *hexFile != "" {
		if err = util.ExportHexFile(fw, *hexFile); err != nil {
			glog.Fatalf("Failed writing hex file: %v", err)
		}
		fmt.Printf("    %s %d bytes at %#x to %s\n",
			green.Sprint("Wrote"), len(fw.Data), fw.StartAddress, *hexFile)
		return
	}

	c := criteria()
	usb := godfu.NewUsb()
	defer usb.Close()

	fmt.Printf("    %s for %ds, place your device in bootloader mode (%dms between tries).\n",
		green.Sprint("Looping"), (*retries)*(*delayMs)/1000, *delayMs)

	dev, err := godfu.NewLocator(usb).Find(c, time.Duration(*delayMs)*time.Millisecond, *retries)
	if err != nil {
		glog.Fatalf("Device search failed: %v", err)
	}
	if dev == nil {
		fmt.Printf("    %s finding connected device, have you placed it in bootloader mode?\n",
			red.Sprint("Error"))
		glog.Flush()
		os.Exit(exitNoDevice)
	}
	defer dev.Close()

	fmt.Printf("    %s %s %s\n", green.Sprint("Found"),
		descriptorString(dev.Manufacturer), descriptorString(dev.Product))
	fmt.Printf("    %s %s\n", green.Sprint("Flashing"), path)

	start := time.Now()
	switch out := util.FlashImage(fw, dev); out.Status {
	case util.FlashFailed:
		// Reported, not fatal: the operator retries the invocation.
		fmt.Printf("    %s flashing binary: %v\n", red.Sprint("Error"), out.Cause)
	case util.FlashDeviceGone:
		glog.V(1).Info("Device reset before the final status handshake")
	}
	fmt.Printf("    %s in %.2fs\n", green.Sprint("Finished"), time.Since(start).Seconds())
}
