// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracee

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gwatch/gwatch/internal/gwerr"
)

// LoadBase returns the base address of the first mapping in pid's address
// space whose backing path's basename matches binaryPath's basename. It
// must be called after the tracee's execve has completed, i.e. on the
// initial exec-stop.
//
// Matching on the actual basename of the traced binary, rather than a
// fixed substring, avoids picking up an unrelated mapping that happens to
// share a name fragment.
func LoadBase(pid int, binaryPath string) (uint64, error) {
	name := filepath.Base(binaryPath)

	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return 0, gwerr.Wrap(gwerr.LoadAddressNotFound, "opening maps", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		path := fields[len(fields)-1]
		if filepath.Base(path) != name {
			continue
		}
		rangeField := fields[0]
		dash := strings.IndexByte(rangeField, '-')
		if dash < 0 {
			continue
		}
		start, err := strconv.ParseUint(rangeField[:dash], 16, 64)
		if err != nil {
			continue
		}
		return start, nil
	}
	if err := sc.Err(); err != nil {
		return 0, gwerr.Wrap(gwerr.LoadAddressNotFound, "reading maps", err)
	}
	return 0, gwerr.New(gwerr.LoadAddressNotFound, fmt.Sprintf("binary %q not found in pid %d maps", name, pid))
}
