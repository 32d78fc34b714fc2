package sampler

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"emperror.dev/errors"
)

const DefaultMeminfoPath = "/proc/meminfo"

var ErrMissingKey = errors.New("meminfo key missing")

// HostMemory holds host memory and swap accounting in kB.
type HostMemory struct {
	MemTotal  int64
	MemFree   int64
	MemUsed   int64
	SwapTotal int64
	SwapFree  int64
	SwapUsed  int64
}

// HostMemorySource reads host memory accounting.
type HostMemorySource interface {
	Read() (HostMemory, error)
}

// HostMemoryReader reads a /proc/meminfo formatted file.
type HostMemoryReader struct {
	path string
}

var _ HostMemorySource = (*HostMemoryReader)(nil)

func NewHostMemoryReader(path string) *HostMemoryReader {
	if path == "" {
		path = DefaultMeminfoPath
	}
	return &HostMemoryReader{path: path}
}

func (h *HostMemoryReader) Read() (HostMemory, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return HostMemory{}, errors.Wrapf(err, "open %s", h.path)
	}
	defer f.Close()
	return ParseMeminfo(f)
}

// ParseMeminfo parses "Key: <number> kB" lines. All four of MemTotal,
// MemFree, SwapTotal and SwapFree must be present.
func ParseMeminfo(r io.Reader) (HostMemory, error) {
	vals := map[string]string{}
	s := bufio.NewScanner(r)
	for s.Scan() {
		key, value, found := strings.Cut(s.Text(), ":")
		if !found {
			continue
		}
		vals[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := s.Err(); err != nil {
		return HostMemory{}, errors.Wrap(err, "scan meminfo")
	}

	var out HostMemory
	for _, f := range []struct {
		key  string
		dest *int64
	}{
		{"MemTotal", &out.MemTotal},
		{"MemFree", &out.MemFree},
		{"SwapTotal", &out.SwapTotal},
		{"SwapFree", &out.SwapFree},
	} {
		v, err := leadingKB(vals, f.key)
		if err != nil {
			return HostMemory{}, err
		}
		*f.dest = v
	}
	out.MemUsed = out.MemTotal - out.MemFree
	out.SwapUsed = out.SwapTotal - out.SwapFree
	return out, nil
}

func leadingKB(vals map[string]string, key string) (int64, error) {
	raw, ok := vals[key]
	if !ok {
		return 0, errors.WithDetails(ErrMissingKey, "key", key)
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, errors.Errorf("empty value for %s", key)
	}
	v, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return v, nil
}
