// Package trigger delivers archive events written as JSON lines to a file or
// fifo by the host's archival pipeline.
package trigger

import (
	"context"
	"strings"
	"syscall"

	"emperror.dev/errors"
	"github.com/containerd/fifo"
	"github.com/goccy/go-json"
	"github.com/nxadm/tail"

	"github.com/voluzi/pmon/pkg/record"
)

// Event is an archive event or the error met while reading one.
type Event struct {
	record.ArchiveEvent
	Err error
}

type EventSource struct {
	tail   *tail.Tail
	Events chan *Event
}

// NewEventSource follows path from its beginning. With createFifo the path is
// created as a named pipe first. Lines already present in a regular file are
// replayed; the monitor discards them as stale.
func NewEventSource(path string, createFifo bool) (*EventSource, error) {
	if createFifo {
		f, err := fifo.OpenFifo(context.Background(), path, syscall.O_CREAT|syscall.O_RDONLY|syscall.O_NONBLOCK, 0640)
		if err != nil {
			return nil, errors.Wrapf(err, "create fifo %s", path)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}

	t, err := tail.TailFile(path, tail.Config{
		ReOpen: true,
		Pipe:   true,
		Follow: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "follow %s", path)
	}

	return &EventSource{
		tail:   t,
		Events: make(chan *Event),
	}, nil
}

func (s *EventSource) Stop() error {
	return s.tail.Stop()
}

// Start blocks forwarding events until the source is stopped, then closes
// Events.
func (s *EventSource) Start() {
	defer close(s.Events)
	for line := range s.tail.Lines {
		if line.Err != nil {
			s.Events <- &Event{Err: line.Err}
			continue
		}
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		s.Events <- parseLine(line.Text)
	}
}

func parseLine(text string) *Event {
	var raw struct {
		DateTime *int64 `json:"dateTime"`
		Interval *int64 `json:"interval"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return &Event{Err: errors.Wrap(err, "decode archive event")}
	}
	if raw.DateTime == nil || raw.Interval == nil {
		return &Event{Err: errors.Errorf("archive event without dateTime or interval: %s", text)}
	}
	return &Event{ArchiveEvent: record.ArchiveEvent{
		DateTime: *raw.DateTime,
		Interval: *raw.Interval,
	}}
}
