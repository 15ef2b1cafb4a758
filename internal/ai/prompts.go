package ai

import (
	"embed"
	"text/template"
)

//go:embed prompts/*.md
var promptFS embed.FS

// AutoAnalysisTemplate asks the classifier to fetch the posting itself.
// Parsed once at package init; reused on every call.
var AutoAnalysisTemplate = template.Must(template.ParseFS(promptFS, "prompts/auto_analysis.md"))

// ManualAnalysisTemplate grades a pasted job description.
var ManualAnalysisTemplate = template.Must(template.ParseFS(promptFS, "prompts/manual_analysis.md"))

// promptData is the input to both templates.
type promptData struct {
	URL         string
	Description string
	Program     string
}
