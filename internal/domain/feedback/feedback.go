package feedback

import (
	"sync"

	"go.uber.org/zap"
)

// Sound is an audible cue tied to a window lifecycle event
type Sound string

const (
	SoundOpen     Sound = "open"
	SoundClose    Sound = "close"
	SoundMinimize Sound = "minimize"
)

// Kind distinguishes the two feedback signals
type Kind string

const (
	KindSound    Kind = "sound"
	KindLauncher Kind = "launcher"
)

// Signal is one feedback emission delivered to listeners
type Signal struct {
	Kind  Kind  `json:"kind"`
	Sound Sound `json:"sound,omitempty"`
}

// Service receives user-facing side effects of window operations
type Service interface {
	Play(sound Sound)
	CloseLauncher()
}

// Nop discards all feedback
type Nop struct{}

// Play implements Service
func (Nop) Play(Sound) {}

// CloseLauncher implements Service
func (Nop) CloseLauncher() {}

// Broadcaster fans feedback out to every subscribed listener
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[uint64]func(Signal)
	nextID    uint64
	logger    *zap.Logger
}

// NewBroadcaster creates a broadcaster with no listeners
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		listeners: make(map[uint64]func(Signal)),
		logger:    logger,
	}
}

// Subscribe registers fn and returns a func that removes it
func (b *Broadcaster) Subscribe(fn func(Signal)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[id] = fn

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Play implements Service
func (b *Broadcaster) Play(sound Sound) {
	b.emit(Signal{Kind: KindSound, Sound: sound})
}

// CloseLauncher implements Service
func (b *Broadcaster) CloseLauncher() {
	b.emit(Signal{Kind: KindLauncher})
}

func (b *Broadcaster) emit(sig Signal) {
	b.mu.RLock()
	fns := make([]func(Signal), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	b.logger.Debug("Feedback", zap.String("kind", string(sig.Kind)), zap.String("sound", string(sig.Sound)))

	for _, fn := range fns {
		fn(sig)
	}
}
