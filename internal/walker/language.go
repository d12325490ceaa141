package walker

import (
	"path/filepath"
	"strings"
)

// extensionToLanguage maps file extensions to the editor language names
// the preview understands. Languages without a preview strategy still
// import and preview as plain text.
var extensionToLanguage = map[string]string{
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".js":   "javascript",
	".mjs":  "javascript",
	".jsx":  "jsx",
	".ts":   "typescript",
	".tsx":  "tsx",
	".go":   "go",
	".py":   "python",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".md":   "markdown",
	".sh":   "shell",
	".sql":  "sql",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
}

// componentTypes maps editor languages to the snippet component type
// shown on feed cards.
var componentTypes = map[string]string{
	"html":       "html-css",
	"jsx":        "react-tailwind",
	"tsx":        "react-tailwind",
	"typescript": "react-tailwind",
}

// DetectLanguage returns the editor language for a file name, or "" when
// the extension is unknown.
func DetectLanguage(filename string) string {
	return extensionToLanguage[strings.ToLower(filepath.Ext(filename))]
}

// ComponentType returns the snippet component type for an editor
// language, or "".
func ComponentType(language string) string {
	return componentTypes[language]
}
