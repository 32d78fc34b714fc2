//go:build unix

package sampler

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PeakRSS returns the maximum resident set size of the calling process in kB
// as reported by getrusage. Darwin reports bytes and is scaled down.
func PeakRSS() int64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	maxrss := int64(ru.Maxrss)
	if runtime.GOOS == "darwin" || runtime.GOOS == "ios" {
		maxrss /= 1024
	}
	return maxrss
}
