package events

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const unknownAddress = "unknown"

// Service raises audit events. Raise never fails the caller.
type Service interface {
	Raise(ctx context.Context, evt Event)
}

// RequestInfo is the per-request metadata stamped onto events.
type RequestInfo struct {
	ActivityID      string
	LocalIPAddress  string
	RemoteIPAddress string
}

type requestInfoKey struct{}

// WithRequestInfo attaches info to ctx for events raised while handling the request.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request metadata attached to ctx.
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

// DefaultService stamps events with request metadata and hands them to a Sink.
type DefaultService struct {
	sink      Sink
	logger    zerolog.Logger
	nowTime   func() time.Time
	processID int
}

var _ Service = (*DefaultService)(nil)

type ServiceOption func(*DefaultService)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *DefaultService) {
		s.logger = logger
	}
}

func WithNowTime(nowTime func() time.Time) ServiceOption {
	return func(s *DefaultService) {
		s.nowTime = nowTime
	}
}

func NewService(sink Sink, options ...ServiceOption) *DefaultService {
	s := &DefaultService{
		sink:      sink,
		logger:    zerolog.Nop(),
		nowTime:   time.Now,
		processID: os.Getpid(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *DefaultService) Raise(ctx context.Context, evt Event) {
	s.prepare(ctx, &evt)
	if s.sink == nil {
		return
	}
	if err := s.sink.Persist(ctx, evt); err != nil {
		s.logger.Error().Err(err).
			Str("event", evt.Name).
			Int("eventId", evt.ID).
			Msg("failed to persist auth event")
	}
}

func (s *DefaultService) prepare(ctx context.Context, evt *Event) {
	evt.TimeStamp = s.nowTime().UTC()
	evt.ProcessID = s.processID
	evt.Username = obfuscate(evt.Username)
	evt.DisplayName = obfuscate(evt.DisplayName)

	info, _ := RequestInfoFrom(ctx)
	evt.ActivityID = info.ActivityID
	if evt.ActivityID == "" {
		evt.ActivityID = uuid.New().String()
	}
	evt.LocalIPAddress = orUnknown(info.LocalIPAddress)
	evt.RemoteIPAddress = orUnknown(info.RemoteIPAddress)
}

func orUnknown(addr string) string {
	if addr == "" {
		return unknownAddress
	}
	return addr
}
