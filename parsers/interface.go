package parsers

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/sevigo/repochunk/parsers/golang"
	"github.com/sevigo/repochunk/parsers/json"
	"github.com/sevigo/repochunk/parsers/lines"
	"github.com/sevigo/repochunk/parsers/markdown"
	"github.com/sevigo/repochunk/parsers/text"
	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// ParserRegistry tracks registered parser plugins
type ParserRegistry interface {
	RegisterParser(plugin schema.ParserPlugin) error
	GetParser(name string) (schema.ParserPlugin, error)
	GetParserForKind(kind Kind) (schema.ParserPlugin, error)
	GetParserForFile(path string, info fs.FileInfo) (schema.ParserPlugin, error)
	GetParserForExtension(ext string) (schema.ParserPlugin, error)
	GetAllParsers() []schema.ParserPlugin
}

// PluginFactory builds a plugin around a scoped logger and a shared estimator.
type PluginFactory func(*slog.Logger, textsplitter.Estimator) schema.ParserPlugin

// RegisterOption adjusts the plugin set before registration.
type RegisterOption func(map[string]PluginFactory)

// WithLineOptions configures the line window plugin.
func WithLineOptions(opts ...lines.Option) RegisterOption {
	return func(factories map[string]PluginFactory) {
		factories[KindWindow.PluginName()] = func(logger *slog.Logger, estimator textsplitter.Estimator) schema.ParserPlugin {
			return lines.NewLinesPlugin(logger, estimator, opts...)
		}
	}
}

// RegisterLanguagePlugins initializes a registry with one plugin per Kind.
func RegisterLanguagePlugins(logger *slog.Logger, estimator textsplitter.Estimator, opts ...RegisterOption) (ParserRegistry, error) {
	if estimator == nil {
		estimator = textsplitter.DefaultEstimator()
	}
	registry := NewRegistry(logger)

	pluginFactories := map[string]PluginFactory{
		KindStructured.PluginName(): golang.NewGoPlugin,
		KindSection.PluginName():    markdown.NewMarkdownPlugin,
		KindRecord.PluginName():     json.NewJSONPlugin,
		KindParagraph.PluginName():  text.NewTextPlugin,
		KindWindow.PluginName(): func(logger *slog.Logger, estimator textsplitter.Estimator) schema.ParserPlugin {
			return lines.NewLinesPlugin(logger, estimator)
		},
	}
	for _, opt := range opts {
		opt(pluginFactories)
	}

	for _, kind := range Kinds() {
		name := kind.PluginName()
		factory, exists := pluginFactories[name]
		if !exists {
			logger.Warn("Plugin not available", "plugin", name)
			continue
		}

		plugin := factory(logger.With("plugin", name), estimator)
		if err := registry.RegisterParser(plugin); err != nil {
			return registry, fmt.Errorf("failed to register plugin %s: %w", name, err)
		}
	}

	logger.Info("Parser plugins registered", "count", len(registry.GetAllParsers()))
	return registry, nil
}
