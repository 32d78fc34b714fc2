package pmon

import (
	"context"
	"sort"
	"time"

	"emperror.dev/errors"

	"github.com/voluzi/pmon/pkg/record"
	"github.com/voluzi/pmon/pkg/sampler"
)

type fakeStore struct {
	cols       []string
	records    map[int64]record.Record
	calls      []string
	addErr     error
	deleteErr  error
	compactErr error
	closed     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cols:    record.DefaultSchema.Names(),
		records: make(map[int64]record.Record),
	}
}

func (s *fakeStore) Columns(context.Context) ([]string, error) {
	s.calls = append(s.calls, "columns")
	return s.cols, nil
}

func (s *fakeStore) AddRecord(_ context.Context, rec record.Record) error {
	s.calls = append(s.calls, "add")
	if s.addErr != nil {
		return s.addErr
	}
	if _, ok := s.records[rec.DateTime]; ok {
		return errors.Errorf("duplicate dateTime %d", rec.DateTime)
	}
	s.records[rec.DateTime] = rec
	return nil
}

func (s *fakeStore) DeleteBefore(_ context.Context, cutoff int64) (int64, error) {
	s.calls = append(s.calls, "delete")
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	var n int64
	for ts := range s.records {
		if ts < cutoff {
			delete(s.records, ts)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Compact(context.Context) error {
	s.calls = append(s.calls, "compact")
	return s.compactErr
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

func (s *fakeStore) timestamps() []int64 {
	out := make([]int64, 0, len(s.records))
	for ts := range s.records {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type fakeProvider struct {
	mem   sampler.ProcessMemory
	err   error
	pid   int
	name  string
	calls int
}

func (p *fakeProvider) Sample(_ context.Context, pid int, name string) (sampler.ProcessMemory, error) {
	p.calls++
	p.pid, p.name = pid, name
	return p.mem, p.err
}

type fakeHost struct {
	mem sampler.HostMemory
	err error
}

func (h *fakeHost) Read() (sampler.HostMemory, error) {
	return h.mem, h.err
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Set(unix int64) {
	c.now = time.Unix(unix, 0)
}
