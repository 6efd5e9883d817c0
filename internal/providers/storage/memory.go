package storage

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
)

const backendMemory = "memory"

// MemoryStore keeps values in process memory. Nothing survives a restart.
type MemoryStore struct {
	values sync.Map // key -> stored []byte
	codec  *Codec
	subs   *subscribers
	closed atomic.Bool
	opts   options
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore(opts ...Option) (*MemoryStore, error) {
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		codec: codec,
		subs:  newSubscribers(),
		opts:  buildOptions(opts),
	}, nil
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key string, dst interface{}) (found bool, err error) {
	timer := monitoring.NewTimer(s.opts.metrics, backendMemory, "get")
	defer func() { timer.Stop(status(err)) }()

	if s.closed.Load() {
		return false, ErrClosed
	}
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	raw, ok := s.values.Load(key)
	if !ok {
		return false, nil
	}
	if err := s.codec.Decode(raw.([]byte), dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Store. Subscribers are notified before Set returns.
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}) (err error) {
	timer := monitoring.NewTimer(s.opts.metrics, backendMemory, "set")
	defer func() { timer.Stop(status(err)) }()

	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored, payload, err := s.codec.Encode(value)
	if err != nil {
		return err
	}
	s.values.Store(key, stored)

	s.opts.logger.Debug("Stored value", zap.String("key", key), zap.Int("bytes", len(stored)))
	s.subs.notify(key, payload)
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.values.Delete(key)
	return nil
}

// Keys implements Store
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	s.values.Range(func(key, _ interface{}) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// Subscribe implements Store
func (s *MemoryStore) Subscribe(key string, fn func(raw []byte)) func() {
	return s.subs.add(key, fn)
}

// Close implements Store
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.subs.clear()
	s.codec.Close()
	return nil
}
