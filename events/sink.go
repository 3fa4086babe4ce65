package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sink persists a prepared event.
type Sink interface {
	Persist(ctx context.Context, evt Event) error
}

// Serializer turns an event into bytes for a sink.
type Serializer interface {
	Serialize(evt Event) ([]byte, error)
}

// JSONSerializer encodes events as JSON, masking personally identifying fields.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(evt Event) ([]byte, error) {
	evt.Username = obfuscate(evt.Username)
	evt.DisplayName = obfuscate(evt.DisplayName)
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, errors.Wrap(err, "[JSONSerializer.Serialize] marshal event")
	}
	return b, nil
}

// LogSink writes each event as a single structured log entry.
type LogSink struct {
	logger     zerolog.Logger
	serializer Serializer
}

var _ Sink = (*LogSink)(nil)

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger, serializer: JSONSerializer{}}
}

func (s *LogSink) Persist(_ context.Context, evt Event) error {
	b, err := s.serializer.Serialize(evt)
	if err != nil {
		return err
	}
	s.logger.Info().RawJSON("event", b).Msg(evt.Name)
	return nil
}

// MultiSink persists every event to all of its sinks concurrently.
type MultiSink struct {
	sinks []Sink
}

var _ Sink = (*MultiSink)(nil)

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Persist returns the first error, after every sink has been attempted.
func (m *MultiSink) Persist(ctx context.Context, evt Event) error {
	var g errgroup.Group
	for _, sink := range m.sinks {
		g.Go(func() error {
			return sink.Persist(ctx, evt)
		})
	}
	return g.Wait()
}

// MemorySink keeps events in memory.
type MemorySink struct {
	lock   sync.Mutex
	events []Event
}

var _ Sink = (*MemorySink)(nil)

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Persist(_ context.Context, evt Event) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.events = append(m.events, evt)
	return nil
}

// Events returns a copy of everything persisted so far.
func (m *MemorySink) Events() []Event {
	m.lock.Lock()
	defer m.lock.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfKind returns the persisted events of kind.
func (m *MemorySink) OfKind(kind Kind) []Event {
	var out []Event
	for _, evt := range m.Events() {
		if evt.Kind == kind {
			out = append(out, evt)
		}
	}
	return out
}
