package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
	"github.com/GriffinCanCode/webdesk/internal/shared/utils"
)

// Manager is the in-memory app catalog
type Manager struct {
	apps    sync.Map // id -> types.AppEntry
	count   int64    // Atomic counter of registered apps
	loaded  atomic.Bool
	metrics *monitoring.Metrics
}

// NewManager creates an empty catalog
func NewManager() *Manager {
	return &Manager{}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Register adds or replaces an app entry
func (m *Manager) Register(entry types.AppEntry) error {
	if err := utils.ValidateID(entry.ID, "app id", true); err != nil {
		return err
	}
	if err := utils.ValidateString(entry.Title, "title", 1, utils.MaxTitleLength, true); err != nil {
		return err
	}
	if entry.DefaultWidth < 0 || entry.DefaultHeight < 0 || entry.MinWidth < 0 || entry.MinHeight < 0 {
		return fmt.Errorf("app %s has negative dimensions", entry.ID)
	}

	minSize := entry.MinSize()
	if entry.DefaultWidth == 0 {
		entry.DefaultWidth = minSize.Width
	}
	if entry.DefaultHeight == 0 {
		entry.DefaultHeight = minSize.Height
	}

	if _, existed := m.apps.Swap(entry.ID, entry); !existed {
		total := atomic.AddInt64(&m.count, 1)
		if m.metrics != nil {
			m.metrics.SetRegistryApps(int(total))
		}
	}
	return nil
}

// GetApp retrieves an app entry by id
func (m *Manager) GetApp(appID string) (types.AppEntry, bool) {
	value, ok := m.apps.Load(appID)
	if !ok {
		return types.AppEntry{}, false
	}
	return value.(types.AppEntry), true
}

// Exists checks if an app is registered
func (m *Manager) Exists(appID string) bool {
	_, ok := m.apps.Load(appID)
	return ok
}

// Unregister removes an app. Open windows of the app are unaffected.
func (m *Manager) Unregister(appID string) bool {
	if _, existed := m.apps.LoadAndDelete(appID); !existed {
		return false
	}
	total := atomic.AddInt64(&m.count, -1)
	if m.metrics != nil {
		m.metrics.SetRegistryApps(int(total))
	}
	return true
}

// ListApps lists all apps sorted by id, optionally filtered by category
func (m *Manager) ListApps(category *string) []types.AppEntry {
	var apps []types.AppEntry

	m.apps.Range(func(_, value interface{}) bool {
		entry := value.(types.AppEntry)
		if category == nil || entry.Category == *category {
			apps = append(apps, entry)
		}
		return true
	})

	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	return apps
}

// MarkLoaded records that the catalog has been seeded
func (m *Manager) MarkLoaded() {
	m.loaded.Store(true)
}

// Loaded reports whether the catalog has been seeded. Session restore waits
// for this so saved apps are not dropped as unknown.
func (m *Manager) Loaded() bool {
	return m.loaded.Load()
}

// Stats returns registry statistics
func (m *Manager) Stats() types.RegistryStats {
	var total int
	categories := make(map[string]int)

	m.apps.Range(func(_, value interface{}) bool {
		entry := value.(types.AppEntry)
		total++
		categories[entry.Category]++
		return true
	})

	return types.RegistryStats{
		TotalApps:  total,
		Categories: categories,
		Loaded:     m.Loaded(),
	}
}
