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

package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/golang/glog"
)

// buildFirmware compiles pkg (default ".") for the given tinygo target
// and returns the path of the produced ELF plus a cleanup function for
// the scratch directory.
func buildFirmware(target, pkg string) (string, func(), error) {
	if pkg == "" {
		pkg = "."
	}
	dir, err := os.MkdirTemp("", "godfu")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }
	out := filepath.Join(dir, "firmware.elf")

	cmd := exec.Command("tinygo", "build", "-target", target, "-o", out, pkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	glog.V(1).Infof("Running %v", cmd.Args)
	if err = cmd.Run(); err != nil {
		cleanup()
		return "", nil, err
	}
	return out, cleanup, nil
}

// exitBuild terminates with the toolchain's own exit code, so callers
// see the same status tinygo gave us.
func exitBuild(err error) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		glog.Flush()
		os.Exit(exitErr.ExitCode())
	}
	glog.Fatalf("tinygo build failed: %v", err)
}
