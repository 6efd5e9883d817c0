package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
)

// Driver names accepted by Open
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

var (
	// ErrClosed is returned by operations on a closed store
	ErrClosed = errors.New("storage: store closed")
	// ErrEmptyKey is returned when a key is blank
	ErrEmptyKey = errors.New("storage: empty key")
	// ErrUnknownDriver is returned by Open for an unrecognized driver
	ErrUnknownDriver = errors.New("storage: unknown driver")
)

// Store is an asynchronous-safe key-value store with change notification.
// Values are encoded as JSON; subscribers receive the JSON of every new value.
type Store interface {
	// Get decodes the value for key into dst. It reports false when the key
	// has never been set.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	// Set encodes value and stores it under key, replacing any prior value
	Set(ctx context.Context, key string, value interface{}) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every stored key in ascending order
	Keys(ctx context.Context) ([]string, error)
	// Subscribe calls fn with the JSON of each value set under key and
	// returns a func that stops delivery
	Subscribe(key string, fn func(raw []byte)) (unsubscribe func())
	// Close releases the store's resources
	Close() error
}

// Config selects and configures a backend
type Config struct {
	Driver string
	Path   string
}

// Option configures a store
type Option func(*options)

type options struct {
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// WithMetrics records operation counts and latency
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// WithLogger sets the store's logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open creates the store named by cfg.Driver
func Open(cfg Config, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts...)
	case DriverSQLite:
		return OpenSQLite(cfg.Path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// subscribers tracks change listeners per key
type subscribers struct {
	mu     sync.RWMutex
	nextID uint64
	byKey  map[string]map[uint64]func([]byte)
}

func newSubscribers() *subscribers {
	return &subscribers{byKey: make(map[string]map[uint64]func([]byte))}
}

func (s *subscribers) add(key string, fn func([]byte)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.byKey[key] == nil {
		s.byKey[key] = make(map[uint64]func([]byte))
	}
	s.byKey[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.byKey[key], id)
			if len(s.byKey[key]) == 0 {
				delete(s.byKey, key)
			}
		})
	}
}

// notify delivers payload to the key's listeners outside the lock
func (s *subscribers) notify(key string, payload []byte) {
	s.mu.RLock()
	fns := make([]func([]byte), 0, len(s.byKey[key]))
	for _, fn := range s.byKey[key] {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(payload)
	}
}

func (s *subscribers) clear() {
	s.mu.Lock()
	s.byKey = make(map[string]map[uint64]func([]byte))
	s.mu.Unlock()
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
