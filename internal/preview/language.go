package preview

import "strings"

// LanguageTag selects the strategy used to turn source code into a
// standalone document.
type LanguageTag string

const (
	TagMarkup     LanguageTag = "markup"
	TagScripted   LanguageTag = "scripted"
	TagStylesheet LanguageTag = "stylesheet"
	TagPlain      LanguageTag = "plain"
)

// languageToTag maps editor language names to generation strategies.
var languageToTag = map[string]LanguageTag{
	// Markup
	"html": TagMarkup,
	"htm":  TagMarkup,
	// Scripted
	"javascript": TagScripted,
	"typescript": TagScripted,
	"js":         TagScripted,
	"ts":         TagScripted,
	"jsx":        TagScripted,
	"tsx":        TagScripted,
	// Stylesheet
	"css": TagStylesheet,
}

// componentTypeToLanguage maps the component types offered when creating a
// snippet post to the editor language they are written in.
var componentTypeToLanguage = map[string]string{
	"html-css":       "html",
	"html-tailwind":  "html",
	"react-tailwind": "typescript",
}

// TagFor returns the generation strategy for an editor language name.
// Unknown languages fall back to TagPlain.
func TagFor(language string) LanguageTag {
	if tag, ok := languageToTag[strings.ToLower(strings.TrimSpace(language))]; ok {
		return tag
	}
	return TagPlain
}

// LanguageForComponentType returns the editor language for a snippet
// component type, or "" when the type is unknown.
func LanguageForComponentType(componentType string) string {
	return componentTypeToLanguage[componentType]
}

// ComponentTypes returns the known snippet component types.
func ComponentTypes() []string {
	return []string{"html-css", "html-tailwind", "react-tailwind"}
}

// SourceDocument is the editor content handed to the generator. It is a
// value: every edit produces a new one.
type SourceDocument struct {
	Code string      `json:"code"`
	Tag  LanguageTag `json:"tag"`
}

// NewSource builds a SourceDocument from code and an editor language name.
func NewSource(code, language string) SourceDocument {
	return SourceDocument{Code: code, Tag: TagFor(language)}
}
