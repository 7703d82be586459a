package parsers

import (
	"strings"

	"github.com/sevigo/repochunk/parsers/lines"
)

// Kind is the closed set of splitting strategies a file can be routed to.
type Kind int

const (
	// KindParagraph is the default for text-like files.
	KindParagraph Kind = iota
	KindStructured
	KindSection
	KindRecord
	KindWindow
)

var kindNames = [...]string{
	KindParagraph:  "paragraph",
	KindStructured: "structured",
	KindSection:    "section",
	KindRecord:     "record",
	KindWindow:     "window",
}

// kindPlugins maps each kind to the name of the plugin implementing it.
var kindPlugins = [...]string{
	KindParagraph:  "text",
	KindStructured: "go",
	KindSection:    "markdown",
	KindRecord:     "json",
	KindWindow:     "lines",
}

var extensionKinds = func() map[string]Kind {
	m := map[string]Kind{
		".go":       KindStructured,
		".md":       KindSection,
		".markdown": KindSection,
		".json":     KindRecord,
		".txt":      KindParagraph,
		".text":     KindParagraph,
		".log":      KindParagraph,
		".rst":      KindParagraph,
	}
	for _, ext := range lines.CodeExtensions() {
		m[ext] = KindWindow
	}
	return m
}()

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindParagraph, KindStructured, KindSection, KindRecord, KindWindow}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// PluginName returns the registry name of the plugin implementing k.
func (k Kind) PluginName() string {
	if k < 0 || int(k) >= len(kindPlugins) {
		return kindPlugins[KindParagraph]
	}
	return kindPlugins[k]
}

// KindForExtension routes a file extension (with leading dot, any case).
// Unknown extensions fall back to paragraph splitting.
func KindForExtension(ext string) Kind {
	if kind, ok := extensionKinds[strings.ToLower(ext)]; ok {
		return kind
	}
	return KindParagraph
}
