package research

import (
	"path/filepath"
	"strings"

	"research_article_generator/generator"
)

// Transcript is one uploaded file, kept in upload order.
type Transcript struct {
	Name string
	Data []byte
}

// TextOnly keeps the .txt uploads and returns the names of the rest.
func TextOnly(ts []Transcript) (kept []Transcript, skipped []string) {
	for _, t := range ts {
		if strings.EqualFold(filepath.Ext(t.Name), ".txt") {
			kept = append(kept, t)
			continue
		}
		skipped = append(skipped, t.Name)
	}
	return kept, skipped
}

// Bundle concatenates the transcripts in order, each preceded by a newline.
// Invalid UTF-8 is dropped.
func Bundle(ts []Transcript) string {
	var sb strings.Builder
	for _, t := range ts {
		sb.WriteString("\n")
		sb.WriteString(generator.CleanText(string(t.Data)))
	}
	return sb.String()
}

// Names lists the transcript file names.
func Names(ts []Transcript) []string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		names = append(names, t.Name)
	}
	return names
}
