//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package internal

import "runtime"

func platformVersion() string {
	return runtime.GOOS
}
