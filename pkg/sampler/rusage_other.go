//go:build !unix

package sampler

// PeakRSS is not available without getrusage and always returns 0.
func PeakRSS() int64 {
	return 0
}
