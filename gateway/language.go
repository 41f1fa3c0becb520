package gateway

import (
	"path"
	"strings"
)

// PlainText is the tag for anything without a known mapping.
const PlainText = "text"

var languagesByExt = map[string]string{
	"js":         "javascript",
	"jsx":        "javascript",
	"mjs":        "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"py":         "python",
	"java":       "java",
	"kt":         "kotlin",
	"go":         "go",
	"rs":         "rust",
	"cpp":        "cpp",
	"cc":         "cpp",
	"hpp":        "cpp",
	"c":          "c",
	"h":          "c",
	"cs":         "csharp",
	"css":        "css",
	"scss":       "scss",
	"less":       "less",
	"html":       "html",
	"htm":        "html",
	"vue":        "html",
	"xml":        "xml",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"toml":       "toml",
	"md":         "markdown",
	"sql":        "sql",
	"sh":         "shell",
	"bash":       "shell",
	"zsh":        "shell",
	"dockerfile": "dockerfile",
	"php":        "php",
	"rb":         "ruby",
	"swift":      "swift",
	"lua":        "lua",
	"proto":      "protobuf",
}

var languagesByName = map[string]string{
	"dockerfile":  "dockerfile",
	"makefile":    "makefile",
	"gemfile":     "ruby",
	"jenkinsfile": "groovy",
}

// LanguageFor infers a display language from a file path. Every path maps to
// some tag; unknown extensions get PlainText.
func LanguageFor(p string) string {
	base := strings.ToLower(path.Base(p))
	if lang, ok := languagesByName[base]; ok {
		return lang
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	if lang, ok := languagesByExt[ext]; ok {
		return lang
	}
	return PlainText
}
