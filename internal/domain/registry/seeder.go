package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// ManifestPatterns are the globs, relative to the apps directory, that
// identify app manifests
var ManifestPatterns = []string{
	"**/*.app.yaml",
	"**/*.app.yml",
	"**/*.app.toml",
	"**/*.app.json",
}

// SeedResult counts the outcome of a seeding pass
type SeedResult struct {
	Loaded int `json:"loaded"`
	Failed int `json:"failed"`
}

// Seeder loads app entries into a Manager
type Seeder struct {
	manager *Manager
	appsDir string
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewSeeder creates a new app seeder
func NewSeeder(manager *Manager, appsDir string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		manager: manager,
		appsDir: appsDir,
		logger:  logger,
	}
}

// WithMetrics counts manifest failures
func (s *Seeder) WithMetrics(metrics *monitoring.Metrics) *Seeder {
	s.metrics = metrics
	return s
}

// Seed registers the built-in apps, then every manifest under the apps
// directory, and marks the catalog loaded. Manifests override built-ins with
// the same id.
func (s *Seeder) Seed() (SeedResult, error) {
	s.SeedDefaultApps()

	result, err := s.SeedApps()
	if err != nil {
		return result, err
	}

	s.manager.MarkLoaded()
	s.logger.Info("App catalog loaded",
		zap.Int("apps", s.manager.Stats().TotalApps),
		zap.Int("manifests_loaded", result.Loaded),
		zap.Int("manifests_failed", result.Failed),
	)
	return result, nil
}

// SeedApps loads all manifests from the apps directory. A missing directory
// is not an error; individual bad manifests are logged and counted.
func (s *Seeder) SeedApps() (SeedResult, error) {
	var result SeedResult

	if s.appsDir == "" {
		return result, nil
	}

	if _, err := os.Stat(s.appsDir); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Apps directory not found", zap.String("dir", s.appsDir))
		return result, nil
	}

	fsys := os.DirFS(s.appsDir)
	seen := make(map[string]bool)

	for _, pattern := range ManifestPatterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return result, fmt.Errorf("glob %s: %w", pattern, err)
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			if err := s.loadManifest(fsys, match); err != nil {
				s.logger.Warn("Failed to load app manifest", zap.String("file", match), zap.Error(err))
				result.Failed++
				if s.metrics != nil {
					s.metrics.IncSeedFailures()
				}
				continue
			}

			s.logger.Debug("Loaded app manifest", zap.String("file", match))
			result.Loaded++
		}
	}

	return result, nil
}

// loadManifest decodes one manifest by extension and registers it
func (s *Seeder) loadManifest(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}

	entry, err := DecodeManifest(name, data)
	if err != nil {
		return err
	}
	return s.manager.Register(entry)
}

// DecodeManifest parses a manifest whose format is chosen by the file
// extension of name. Unknown fields are rejected.
func DecodeManifest(name string, data []byte) (types.AppEntry, error) {
	var entry types.AppEntry

	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, &entry, yaml.Strict()); err != nil {
			return entry, fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&entry); err != nil {
			return entry, fmt.Errorf("parse toml: %w", err)
		}
	case ".json":
		if err := sonic.Unmarshal(data, &entry); err != nil {
			return entry, fmt.Errorf("parse json: %w", err)
		}
	default:
		return entry, fmt.Errorf("unsupported manifest format %q", ext)
	}

	if entry.ID == "" || entry.Title == "" {
		return entry, fmt.Errorf("manifest missing required fields (id, title)")
	}
	return entry, nil
}

// DefaultApps are the built-in catalog entries
func DefaultApps() []types.AppEntry {
	return []types.AppEntry{
		{
			ID:            "notepad",
			Title:         "Notepad",
			Icon:          "📝",
			Category:      "productivity",
			DefaultWidth:  800,
			DefaultHeight: 600,
		},
		{
			ID:            "terminal",
			Title:         "Terminal",
			Icon:          "💻",
			Category:      "system",
			DefaultWidth:  720,
			DefaultHeight: 480,
			MinWidth:      360,
			MinHeight:     200,
		},
		{
			ID:            "file-explorer",
			Title:         "Files",
			Icon:          "📁",
			Category:      "system",
			DefaultWidth:  900,
			DefaultHeight: 600,
			MinWidth:      400,
			MinHeight:     300,
		},
		{
			ID:            "settings",
			Title:         "Settings",
			Icon:          "⚙️",
			Category:      "system",
			DefaultWidth:  700,
			DefaultHeight: 500,
			MinWidth:      480,
			MinHeight:     360,
		},
		{
			ID:            "calculator",
			Title:         "Calculator",
			Icon:          "🧮",
			Category:      "productivity",
			DefaultWidth:  320,
			DefaultHeight: 480,
			MinWidth:      260,
			MinHeight:     380,
		},
	}
}

// SeedDefaultApps registers the built-in apps that are not already present
func (s *Seeder) SeedDefaultApps() int {
	var seeded int
	for _, entry := range DefaultApps() {
		if s.manager.Exists(entry.ID) {
			continue
		}
		if err := s.manager.Register(entry); err != nil {
			s.logger.Warn("Failed to seed default app", zap.String("app_id", entry.ID), zap.Error(err))
			continue
		}
		seeded++
	}

	s.logger.Debug("Seeded default apps", zap.Int("count", seeded))
	return seeded
}
