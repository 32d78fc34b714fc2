package trigger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluzi/pmon/pkg/record"
)

func newTestSource(t *testing.T) (*EventSource, *os.File, chan struct{}) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.events")

	f, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	src, err := NewEventSource(path, false)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		src.Start()
	}()
	return src, f, done
}

func writeLine(t *testing.T, f *os.File, line string) {
	t.Helper()
	_, err := f.WriteString(line + "\n")
	require.NoError(t, err)
	_ = f.Sync()
}

func nextEvent(t *testing.T, src *EventSource) *Event {
	t.Helper()
	select {
	case ev := <-src.Events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return nil
}

func TestEventSource_ParseValidEvent(t *testing.T) {
	src, f, done := newTestSource(t)

	writeLine(t, f, `{"dateTime":1700000000,"interval":5,"outTemp":12.5}`)

	ev := nextEvent(t, src)
	require.NoError(t, ev.Err)
	assert.Equal(t, record.ArchiveEvent{DateTime: 1700000000, Interval: 5}, ev.ArchiveEvent)

	_ = src.Stop()
	<-done
}

func TestEventSource_InvalidLines(t *testing.T) {
	src, f, done := newTestSource(t)

	writeLine(t, f, "not valid json")
	ev := nextEvent(t, src)
	assert.Error(t, ev.Err)

	writeLine(t, f, `{"dateTime":1700000000}`)
	ev = nextEvent(t, src)
	assert.Error(t, ev.Err)

	_ = src.Stop()
	<-done
}

func TestEventSource_SkipEmptyLines(t *testing.T) {
	src, f, done := newTestSource(t)

	writeLine(t, f, "\n   ")
	writeLine(t, f, `{"dateTime":1700000300,"interval":5}`)

	ev := nextEvent(t, src)
	require.NoError(t, ev.Err)
	assert.Equal(t, int64(1700000300), ev.DateTime)

	_ = src.Stop()
	<-done
}

func TestEventSource_ChannelClosedOnStop(t *testing.T) {
	src, _, done := newTestSource(t)

	time.Sleep(100 * time.Millisecond)
	_ = src.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for source to stop")
	}

	_, ok := <-src.Events
	assert.False(t, ok)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		expected record.ArchiveEvent
		wantErr  bool
	}{
		{line: `{"dateTime":10,"interval":1}`, expected: record.ArchiveEvent{DateTime: 10, Interval: 1}},
		{line: `{"interval":1}`, wantErr: true},
		{line: `[1,2]`, wantErr: true},
	}

	for _, test := range tests {
		ev := parseLine(test.line)
		if test.wantErr {
			assert.Error(t, ev.Err)
			continue
		}
		assert.NoError(t, ev.Err)
		assert.Equal(t, test.expected, ev.ArchiveEvent)
	}
}
