package plugins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"plugin"
	"sync"
	"time"

	"github.com/google/uuid"

	"qsmath/internal/cache"
	"qsmath/internal/config"
	"qsmath/internal/metrics"
	qsPlugin "qsmath/pkg/plugin"
)

var ErrPluginNotFound = errors.New("plugin not found")

// BuiltinFactory constructs a plugin compiled into the host.
type BuiltinFactory func(id qsPlugin.PluginID) qsPlugin.Searchable

// ResultCache is the subset of the Redis cache the manager needs.
type ResultCache interface {
	Get(ctx context.Context, source, query string) *cache.Entry
	Set(ctx context.Context, source, query string, entry *cache.Entry) error
}

type LoadedPlugin struct {
	plugin qsPlugin.Searchable
	path   string
	name   string
	// key identifies the configuration entry the plugin was loaded from:
	// "builtin:<name>" or "<path>/<symbol>". It is stable across reloads and
	// unique even when plugins report the same name.
	key    string
}

func (lp *LoadedPlugin) ID() qsPlugin.PluginID {
	return lp.plugin.PluginID()
}

func (lp *LoadedPlugin) Name() string {
	return lp.plugin.Name()
}

func (lp *LoadedPlugin) ColoredName() []qsPlugin.ColoredChar {
	return lp.plugin.ColoredName()
}

// Source is the .so path for dynamically loaded plugins and "builtin:<name>"
// for builtins.
func (lp *LoadedPlugin) Source() string {
	if lp.path == "" {
		return "builtin:" + lp.name
	}
	return lp.path
}

// Group is one plugin's contribution to a search.
type Group struct {
	PluginID    qsPlugin.PluginID
	Name        string
	ColoredName []qsPlugin.ColoredChar
	Results     []qsPlugin.SearchResult
}

type openFunc func(path, symbol string) (qsPlugin.GetSearchableFunc, error)

type Manager struct {
	mu       sync.RWMutex
	builtins map[string]BuiltinFactory
	loaded   map[string]*LoadedPlugin
	order    []*LoadedPlugin
	cache    ResultCache
	open     openFunc
}

func New() (*Manager, error) {
	return &Manager{
		builtins: make(map[string]BuiltinFactory),
		loaded:   make(map[string]*LoadedPlugin),
		open:     openGoPlugin,
	}, nil
}

// RegisterBuiltin makes a compiled-in plugin available to the builtins
// section of the configuration.
func (m *Manager) RegisterBuiltin(name string, factory BuiltinFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builtins[name] = factory
}

// SetCache enables result caching. A nil cache disables it.
func (m *Manager) SetCache(c ResultCache) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = c
}

// LoadPlugins instantiates every configured plugin. Plugins that were
// already loaded keep their instance and identity across reloads; Go
// plugins cannot be unloaded, so reopening would fail anyway.
func (m *Manager) LoadPlugins(cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newLoaded := make(map[string]*LoadedPlugin)
	var newOrder []*LoadedPlugin

	add := func(key string, lp *LoadedPlugin) {
		if _, dup := newLoaded[key]; dup {
			return
		}
		newLoaded[key] = lp
		newOrder = append(newOrder, lp)
	}

	for _, name := range cfg.Builtins {
		key := "builtin:" + name

		if existing, exists := m.loaded[key]; exists {
			add(key, existing)
			continue
		}

		factory, ok := m.builtins[name]
		if !ok {
			return fmt.Errorf("failed to load builtin %s: not registered", name)
		}

		p := factory(newPluginID())
		if err := m.validatePlugin(p); err != nil {
			return fmt.Errorf("builtin %s validation failed: %w", name, err)
		}

		add(key, &LoadedPlugin{plugin: p, name: name, key: key})
		slog.Info("Loaded builtin plugin", "name", name, "id", p.PluginID().String())
	}

	for _, pluginConfig := range cfg.Plugins {
		key := pluginConfig.Path + "/" + pluginConfig.Symbol

		if existing, exists := m.loaded[key]; exists {
			add(key, existing)
			continue
		}

		loadedPlugin, err := m.loadPlugin(pluginConfig.Path, pluginConfig.Symbol)
		if err != nil {
			return fmt.Errorf("failed to load plugin %s: %w", key, err)
		}

		loadedPlugin.key = key
		add(key, loadedPlugin)
		slog.Info("Loaded plugin", "path", pluginConfig.Path, "symbol", pluginConfig.Symbol,
			"name", loadedPlugin.Name(), "id", loadedPlugin.ID().String())
	}

	m.loaded = newLoaded
	m.order = newOrder
	return nil
}

func (m *Manager) loadPlugin(path, symbol string) (*LoadedPlugin, error) {
	factory, err := m.open(path, symbol)
	if err != nil {
		return nil, err
	}

	p := factory(newPluginID())
	if p == nil {
		return nil, fmt.Errorf("symbol '%s' returned a nil plugin", symbol)
	}

	if err := m.validatePlugin(p); err != nil {
		return nil, fmt.Errorf("plugin validation failed: %w", err)
	}

	return &LoadedPlugin{
		plugin: p,
		path:   path,
		name:   symbol,
	}, nil
}

func openGoPlugin(path, symbol string) (qsPlugin.GetSearchableFunc, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin file: %w", err)
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to find symbol '%s' in plugin: %w", symbol, err)
	}

	switch f := sym.(type) {
	case func(qsPlugin.PluginID) qsPlugin.Searchable:
		return f, nil
	case *func(qsPlugin.PluginID) qsPlugin.Searchable:
		return *f, nil
	default:
		return nil, fmt.Errorf("symbol '%s' has type %T, not a GetSearchable function", symbol, sym)
	}
}

// validatePlugin checks the plugin honours the identity contract: it must
// have a name and echo back the id it was constructed with.
func (m *Manager) validatePlugin(p qsPlugin.Searchable) error {
	if p == nil {
		return fmt.Errorf("plugin is nil")
	}
	if p.Name() == "" {
		return fmt.Errorf("plugin has an empty name")
	}
	if p.PluginID().String() == "" {
		return fmt.Errorf("plugin %s returned an empty id", p.Name())
	}
	return nil
}

func newPluginID() qsPlugin.PluginID {
	return qsPlugin.NewPluginID(uuid.NewString())
}

// Plugins returns the loaded plugins in configuration order.
func (m *Manager) Plugins() []*LoadedPlugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*LoadedPlugin, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Manager) GetPlugin(id qsPlugin.PluginID) *LoadedPlugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, lp := range m.order {
		if lp.ID() == id {
			return lp
		}
	}
	return nil
}

// Search asks every plugin for results. Plugins with nothing to contribute
// are left out of the returned groups.
func (m *Manager) Search(ctx context.Context, query string) []Group {
	m.mu.RLock()
	plugins := make([]*LoadedPlugin, len(m.order))
	copy(plugins, m.order)
	resultCache := m.cache
	m.mu.RUnlock()

	var groups []Group
	for _, lp := range plugins {
		results := m.searchPlugin(ctx, resultCache, lp, query)

		outcome := "empty"
		if len(results) > 0 {
			outcome = "results"
		}
		metrics.SearchesTotal.WithLabelValues(lp.Name(), outcome).Inc()
		metrics.SearchResultsTotal.WithLabelValues(lp.Name()).Add(float64(len(results)))

		if len(results) == 0 {
			continue
		}
		groups = append(groups, Group{
			PluginID:    lp.ID(),
			Name:        lp.Name(),
			ColoredName: lp.ColoredName(),
			Results:     results,
		})
	}
	return groups
}

func (m *Manager) searchPlugin(ctx context.Context, resultCache ResultCache, lp *LoadedPlugin, query string) []qsPlugin.SearchResult {
	if resultCache == nil {
		return lp.plugin.Search(query)
	}

	if entry := resultCache.Get(ctx, lp.key, query); entry != nil {
		metrics.CacheTotal.WithLabelValues("hit").Inc()
		slog.Debug("Serving cached results", "plugin", lp.Name())
		return entry.Results
	}
	metrics.CacheTotal.WithLabelValues("miss").Inc()

	results := lp.plugin.Search(query)

	entry := &cache.Entry{Results: results, Timestamp: time.Now()}
	if err := resultCache.Set(ctx, lp.key, query, entry); err != nil {
		slog.Error("Failed to cache results", "plugin", lp.Name(), "error", err)
	}
	return results
}

// Execute hands a selected result back to the plugin that produced it.
func (m *Manager) Execute(id qsPlugin.PluginID, result qsPlugin.SearchResult) error {
	lp := m.GetPlugin(id)
	if lp == nil {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, id.String())
	}

	metrics.ExecutionsTotal.WithLabelValues(lp.Name()).Inc()
	lp.plugin.Execute(result)
	return nil
}
