package fileregistry

import "strings"

var extensionLanguages = map[string]string{
	".py":       "python",
	".java":     "java",
	".js":       "javascript",
	".jsx":      "javascript",
	".mjs":      "javascript",
	".ts":       "typescript",
	".tsx":      "typescript",
	".c":        "c",
	".h":        "c",
	".cc":       "cpp",
	".cpp":      "cpp",
	".hpp":      "cpp",
	".cs":       "csharp",
	".go":       "go",
	".rs":       "rust",
	".rb":       "ruby",
	".php":      "php",
	".kt":       "kotlin",
	".scala":    "scala",
	".swift":    "swift",
	".sh":       "shell",
	".md":       "markdown",
	".markdown": "markdown",
	".rst":      "restructuredtext",
	".txt":      "text",
	".json":     "json",
	".yml":      "yaml",
	".yaml":     "yaml",
	".html":     "html",
	".css":      "css",
	".r":        "R",
	".ipynb":    "jupyter",
}

// Language maps a file extension to a language name. The second result is
// false for unknown extensions.
func Language(ext string) (string, bool) {
	lang, ok := extensionLanguages[strings.ToLower(ext)]
	return lang, ok
}
