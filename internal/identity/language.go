package identity

import (
	"path/filepath"
	"strings"
)

// languages maps file extensions (and a few exact basenames) to language
// names used in per-language time attribution.
var languages = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".rb":    "Ruby",
	".rs":    "Rust",
	".java":  "Java",
	".kt":    "Kotlin",
	".c":     "C",
	".h":     "C",
	".cc":    "C++",
	".cpp":   "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".scala": "Scala",
	".sh":    "Shell",
	".bash":  "Shell",
	".zsh":   "Shell",
	".sql":   "SQL",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "SCSS",
	".md":    "Markdown",
	".json":  "JSON",
	".yaml":  "YAML",
	".yml":   "YAML",
	".toml":  "TOML",
	".xml":   "XML",
	".proto": "Protocol Buffers",
	".tf":    "Terraform",
	".vue":   "Vue",
	".ex":    "Elixir",
	".exs":   "Elixir",
	".erl":   "Erlang",
	".hs":    "Haskell",
	".lua":   "Lua",
	".r":     "R",
	".zig":   "Zig",
}

var basenames = map[string]string{
	"Dockerfile": "Docker",
	"Makefile":   "Make",
	"go.mod":     "Go",
	"go.sum":     "Go",
}

// LanguageForFile returns the language name for a file path, or "unknown".
func LanguageForFile(path string) string {
	base := filepath.Base(path)
	if lang, ok := basenames[base]; ok {
		return lang
	}
	if lang, ok := languages[strings.ToLower(filepath.Ext(base))]; ok {
		return lang
	}
	return "unknown"
}
