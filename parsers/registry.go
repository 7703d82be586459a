package parsers

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sevigo/repochunk/schema"
)

// ErrPluginNotFound is returned when a plugin is not found
var ErrPluginNotFound = errors.New("parser plugin not found")

// registry implements the ParserRegistry interface
type registry struct {
	plugins    map[string]schema.ParserPlugin // plugin name to plugin
	extensions map[string]schema.ParserPlugin // lower-case extension to plugin
	logger     *slog.Logger
	mu         sync.RWMutex
}

// NewRegistry creates an empty plugin registry
func NewRegistry(logger *slog.Logger) ParserRegistry {
	return &registry{
		plugins:    make(map[string]schema.ParserPlugin),
		extensions: make(map[string]schema.ParserPlugin),
		logger:     logger.With("component", "parser_registry"),
	}
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}

// RegisterParser adds a plugin under its name and every extension it claims.
func (r *registry) RegisterParser(plugin schema.ParserPlugin) error {
	if plugin == nil {
		return errors.New("cannot register nil plugin")
	}

	name := plugin.Name()
	if name == "" {
		return errors.New("plugin must have a non-empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin with name %q already registered", name)
	}
	r.plugins[name] = plugin

	for _, ext := range plugin.Extensions() {
		if ext == "" {
			continue
		}
		r.extensions[normalizeExtension(ext)] = plugin
	}

	r.logger.Debug("Registered parser plugin", "plugin", name, "extensions", plugin.Extensions())
	return nil
}

func (r *registry) GetParser(name string) (schema.ParserPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return plugin, nil
}

// GetParserForKind returns the plugin implementing a routing kind.
func (r *registry) GetParserForKind(kind Kind) (schema.ParserPlugin, error) {
	plugin, err := r.GetParser(kind.PluginName())
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", kind, err)
	}
	return plugin, nil
}

// GetParserForFile returns the plugin for a file, by extension first and then
// by asking each plugin whether it can handle the path.
func (r *registry) GetParserForFile(path string, info fs.FileInfo) (schema.ParserPlugin, error) {
	if ext := filepath.Ext(path); ext != "" {
		if plugin, err := r.GetParserForExtension(ext); err == nil {
			return plugin, nil
		}
	}

	for _, plugin := range r.GetAllParsers() {
		if plugin.CanHandle(path, info) {
			return plugin, nil
		}
	}

	return nil, fmt.Errorf("%w for file %s", ErrPluginNotFound, path)
}

func (r *registry) GetParserForExtension(ext string) (schema.ParserPlugin, error) {
	if ext == "" {
		return nil, fmt.Errorf("%w: empty extension", ErrPluginNotFound)
	}
	ext = normalizeExtension(ext)

	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.extensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w for extension %s", ErrPluginNotFound, ext)
	}
	return plugin, nil
}

// GetAllParsers returns all registered plugins ordered by name.
func (r *registry) GetAllParsers() []schema.ParserPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]schema.ParserPlugin, 0, len(r.plugins))
	for _, plugin := range r.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Name() < plugins[j].Name()
	})
	return plugins
}
