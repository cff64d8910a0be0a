package job

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xraph/resque/event"
	"github.com/xraph/resque/status"
)

// Queue is the push/pop surface the service needs. *broker.Broker
// implements it.
type Queue interface {
	Push(ctx context.Context, queue string, item any) error
	Pop(ctx context.Context, queue string, dst any) (bool, error)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithMiddleware appends middleware wrapped around every performer call.
func WithMiddleware(mws ...Middleware) ServiceOption {
	return func(s *Service) { s.mws = append(s.mws, mws...) }
}

// WithTokenGenerator replaces the status token generator.
func WithTokenGenerator(fn func() string) ServiceOption {
	return func(s *Service) { s.newToken = fn }
}

// Service creates, reserves and performs jobs.
type Service struct {
	queue    Queue
	tracker  *status.Tracker
	events   *event.Dispatcher
	registry *Registry
	logger   *slog.Logger
	newToken func() string

	mu  sync.RWMutex
	mws []Middleware
}

// NewService wires a Service. A nil dispatcher or registry is replaced
// by an empty one.
func NewService(q Queue, tracker *status.Tracker, events *event.Dispatcher, registry *Registry, opts ...ServiceOption) *Service {
	if events == nil {
		events = event.NewDispatcher()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Service{
		queue:    q,
		tracker:  tracker,
		events:   events,
		registry: registry,
		logger:   slog.Default(),
		newToken: NewToken,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewToken returns a random 32 character hex token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Events returns the dispatcher jobs fire lifecycle events on.
func (s *Service) Events() *event.Dispatcher { return s.events }

// Registry returns the class registry.
func (s *Service) Registry() *Registry { return s.registry }

// Tracker returns the status tracker.
func (s *Service) Tracker() *status.Tracker { return s.tracker }

// Use appends middleware to the perform chain.
func (s *Service) Use(mws ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mws = append(s.mws, mws...)
}

func (s *Service) chain() Middleware {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Chain(s.mws...)
}

// Create validates args, pushes a new job onto queue and, when track is
// set, starts tracking it as Waiting. It returns the token, empty when
// untracked. Invalid arguments are rejected before any store write.
func (s *Service) Create(ctx context.Context, queue, class string, args any, track bool) (string, error) {
	if class == "" {
		return "", ErrEmptyClass
	}
	raw, err := EncodeArgs(args)
	if err != nil {
		return "", err
	}

	p := Payload{Class: class, Args: raw}
	if track {
		p.ID = s.newToken()
	}
	if err := s.queue.Push(ctx, queue, p); err != nil {
		return "", err
	}
	if track {
		if err := s.tracker.Create(ctx, p.ID); err != nil {
			return "", err
		}
	}

	s.logger.Debug("job created",
		slog.String("queue", queue),
		slog.String("class", class),
		slog.String("token", p.ID),
	)
	return p.ID, nil
}

// Reserve pops the head of queue. It returns nil, nil when the queue is
// empty and a *store.Error when the payload cannot be decoded.
func (s *Service) Reserve(ctx context.Context, queue string) (*Job, error) {
	var p Payload
	ok, err := s.queue.Pop(ctx, queue, &p)
	if err != nil || !ok {
		return nil, err
	}
	return s.NewJob(queue, p), nil
}

// NewJob binds a payload to the service without touching the store.
func (s *Service) NewJob(queue string, p Payload) *Job {
	return &Job{Queue: queue, Payload: p, svc: s}
}
