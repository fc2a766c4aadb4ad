//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package internal

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"
)

// platformVersion describes the host kernel. It is declared in each
// platform-specific file so that a compilation error occurs on any platform
// on which it is not implemented.
func platformVersion() string {
	var uname unix.Utsname
	if unix.Uname(&uname) != nil {
		// If uname failed, we don't have anything else to try.
		return ""
	}
	s, r := uname.Sysname[:], uname.Release[:]
	return fmt.Sprintf("%s %s", bytes.Trim(s, "\x00"), bytes.Trim(r, "\x00"))
}
