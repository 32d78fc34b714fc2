package sampler

import (
	"context"
	"os"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const psListing = `USER         PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
weewx       4242  0.5  1.2   1000   200 ?        Sl   10:00   0:05 python3 /usr/share/weewx/weewxd
`

func TestParseProcessListing(t *testing.T) {
	tests := []struct {
		name     string
		listing  string
		filter   string
		expected ProcessMemory
		err      error
	}{
		{
			name:     "matching line",
			listing:  psListing,
			filter:   "weewxd",
			expected: ProcessMemory{VSZ: 1000, RSS: 200},
		},
		{
			name:    "no matching line",
			listing: psListing,
			filter:  "nginx",
			err:     ErrProcessNotFound,
		},
		{
			name:    "empty listing",
			listing: "",
			filter:  "weewxd",
			err:     ErrProcessNotFound,
		},
		{
			name:    "layout mismatch",
			listing: "weewxd is running\n",
			filter:  "weewxd",
			err:     ErrPatternMismatch,
		},
		{
			name:     "header line containing the filter is skipped",
			listing:  psListing,
			filter:   "S",
			expected: ProcessMemory{VSZ: 1000, RSS: 200},
		},
		{
			name:    "filter only in header",
			listing: psListing,
			filter:  "COMMAND",
			err:     ErrPatternMismatch,
		},
		{
			name: "first matching line wins",
			listing: "weewx 1 0.0 0.0 10 20 ? S 10:00 0:00 weewxd\n" +
				"weewx 2 0.0 0.0 30 40 ? S 10:00 0:00 weewxd\n",
			filter:   "weewxd",
			expected: ProcessMemory{VSZ: 10, RSS: 20},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseProcessListing([]byte(test.listing), test.filter)
			if test.err != nil {
				assert.True(t, errors.Is(err, test.err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestPsProvider_Sample(t *testing.T) {
	p := NewPsProvider(time.Second)
	p.run = func(_ context.Context, pid int) ([]byte, error) {
		assert.Equal(t, 4242, pid)
		return []byte(psListing), nil
	}

	got, err := p.Sample(context.Background(), 4242, "weewxd")
	require.NoError(t, err)
	assert.Equal(t, ProcessMemory{VSZ: 1000, RSS: 200}, got)
}

func TestPsProvider_Timeout(t *testing.T) {
	p := NewPsProvider(20 * time.Millisecond)
	p.run = func(ctx context.Context, _ int) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := p.Sample(context.Background(), 1, "weewxd")
	assert.True(t, errors.Is(err, ErrTimeout), "unexpected error: %v", err)
}

func TestPsProvider_CommandError(t *testing.T) {
	p := NewPsProvider(time.Second)
	p.run = func(context.Context, int) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}

	_, err := p.Sample(context.Background(), 1, "weewxd")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestNewPsProvider_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultPsTimeout, NewPsProvider(0).timeout)
}

func TestGopsutilProvider_Self(t *testing.T) {
	g := NewGopsutilProvider(time.Minute)
	pid := os.Getpid()

	got, err := g.Sample(context.Background(), pid, "")
	require.NoError(t, err)
	assert.Greater(t, got.RSS, int64(0))
	assert.GreaterOrEqual(t, got.VSZ, got.RSS)

	_, err = g.Sample(context.Background(), pid, "no-such-process-name-filter")
	assert.True(t, errors.Is(err, ErrProcessNotFound), "unexpected error: %v", err)
}

type stubProvider struct {
	pids []int
	err  error
}

func (s *stubProvider) Sample(_ context.Context, pid int, _ string) (ProcessMemory, error) {
	s.pids = append(s.pids, pid)
	if s.err != nil {
		return ProcessMemory{}, s.err
	}
	return ProcessMemory{VSZ: int64(pid), RSS: 1}, nil
}

func TestNameLookupProvider(t *testing.T) {
	inner := &stubProvider{}
	p := NewNameLookupProvider(inner, time.Minute)
	lookups := 0
	p.find = func(_ context.Context, nameFilter string) (int, error) {
		lookups++
		assert.Equal(t, "weewxd", nameFilter)
		return 4242, nil
	}

	got, err := p.Sample(context.Background(), 0, "weewxd")
	require.NoError(t, err)
	assert.Equal(t, ProcessMemory{VSZ: 4242, RSS: 1}, got)

	_, err = p.Sample(context.Background(), 0, "weewxd")
	require.NoError(t, err)
	assert.Equal(t, 1, lookups)

	// explicit pids bypass the lookup
	_, err = p.Sample(context.Background(), 7, "weewxd")
	require.NoError(t, err)
	assert.Equal(t, []int{4242, 4242, 7}, inner.pids)
	assert.Equal(t, 1, lookups)
}

func TestNameLookupProvider_FailedSampleForgetsPid(t *testing.T) {
	inner := &stubProvider{err: ErrProcessNotFound}
	p := NewNameLookupProvider(inner, time.Minute)
	lookups := 0
	p.find = func(context.Context, string) (int, error) {
		lookups++
		return 4242, nil
	}

	for i := 0; i < 2; i++ {
		_, err := p.Sample(context.Background(), 0, "weewxd")
		assert.True(t, errors.Is(err, ErrProcessNotFound))
	}
	assert.Equal(t, 2, lookups)
}

func TestNameLookupProvider_NotFound(t *testing.T) {
	inner := &stubProvider{}
	p := NewNameLookupProvider(inner, time.Minute)
	p.find = func(context.Context, string) (int, error) {
		return 0, ErrProcessNotFound
	}

	_, err := p.Sample(context.Background(), 0, "weewxd")
	assert.True(t, errors.Is(err, ErrProcessNotFound))
	assert.Empty(t, inner.pids)
}

func TestFindProcessByName_NotFound(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)

	pid, err := FindProcessByName(context.Background(), self+"-no-such-process")
	assert.True(t, errors.Is(err, ErrProcessNotFound), "found pid %d: %v", pid, err)
}
