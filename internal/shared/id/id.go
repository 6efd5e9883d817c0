// Package id provides centralized ID generation for the desktop backend.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: later windows sort after earlier ones
//   - Prefixed types: win_* for window instances, snap_* for snapshots
//   - Monotonic entropy: IDs minted in the same millisecond still increase
//   - Type safety: Separate types prevent ID misuse
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// WindowID identifies a window instance. It is never reused within a process.
type WindowID string

// SnapshotID identifies a persisted session snapshot write
type SnapshotID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	WindowPrefix   = "win"
	SnapshotPrefix = "snap"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by monotonic
// cryptographically secure entropy
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewWindowID mints a window ID from the generator
func (g *Generator) NewWindowID() WindowID {
	return WindowID(g.GenerateWithPrefix(WindowPrefix))
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewWindowID generates a new window ID
func NewWindowID() WindowID {
	return Default().NewWindowID()
}

// NewSnapshotID generates a new snapshot ID
func NewSnapshotID() SnapshotID {
	return SnapshotID(Default().GenerateWithPrefix(SnapshotPrefix))
}

// ============================================================================
// Type Conversion and Validation
// ============================================================================

func (id WindowID) String() string   { return string(id) }
func (id SnapshotID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
