// Package sampler reads memory figures of a single process and of the host.
package sampler

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"

	"emperror.dev/errors"
)

var (
	ErrProcessNotFound = errors.New("no process line matches filter")
	ErrPatternMismatch = errors.New("process line does not match expected layout")
	ErrTimeout         = errors.New("process listing timed out")
)

// ProcessMemory holds the virtual and resident size of a process in kB.
type ProcessMemory struct {
	VSZ int64
	RSS int64
}

// ProcessMetricsProvider samples the memory of the process identified by pid
// whose name contains nameFilter.
type ProcessMetricsProvider interface {
	Sample(ctx context.Context, pid int, nameFilter string) (ProcessMemory, error)
}

// psColumns matches USER PID %CPU %MEM VSZ RSS of a `ps u` line.
var psColumns = regexp.MustCompile(`\S+\s+\d+\s+[\d.]+\s+[\d.]+\s+(\d+)\s+(\d+)`)

// ParseProcessListing finds the first line of a `ps u` listing containing
// nameFilter whose columns parse, and extracts its VSZ and RSS. Lines that
// contain the filter but not the column layout, such as the header, are
// skipped.
func ParseProcessListing(listing []byte, nameFilter string) (ProcessMemory, error) {
	var mismatched string
	s := bufio.NewScanner(bytes.NewReader(listing))
	for s.Scan() {
		line := s.Text()
		if !strings.Contains(line, nameFilter) {
			continue
		}
		m := psColumns.FindStringSubmatch(line)
		if m == nil {
			if mismatched == "" {
				mismatched = line
			}
			continue
		}
		vsz, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return ProcessMemory{}, errors.Wrap(err, "parse vsz")
		}
		rss, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return ProcessMemory{}, errors.Wrap(err, "parse rss")
		}
		return ProcessMemory{VSZ: vsz, RSS: rss}, nil
	}
	if err := s.Err(); err != nil {
		return ProcessMemory{}, errors.Wrap(err, "scan process listing")
	}
	if mismatched != "" {
		return ProcessMemory{}, errors.WithDetails(ErrPatternMismatch, "line", mismatched)
	}
	return ProcessMemory{}, errors.WithDetails(ErrProcessNotFound, "filter", nameFilter)
}
