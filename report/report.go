// Package report turns the editor's final text into the styled Word
// document offered for download.
package report

import (
	"strings"

	"research_article_generator/docx"
)

const (
	// Title is always the first paragraph, whatever the article says.
	Title = "Industry Insights Report"
	// Filename is what browsers are told to save the document as.
	Filename = "research_article.docx"

	FontName   = "Times New Roman"
	FontSizePt = 11
	// DefaultMarginPt is applied to all four sides. 72pt is one inch.
	DefaultMarginPt = 72
)

// SubheadingKeywords mark a line as a subheading when contained in it
// (case-sensitive). A body sentence that merely mentions one is styled as a
// subheading too.
var SubheadingKeywords = []string{
	"Industry Trends",
	"Technological Impacts",
	"Regulatory Considerations",
	"Future Outlook",
	"Conclusion",
}

// Navy is the subheading run color.
var Navy = docx.Color{R: 0, G: 0, B: 128}

// Line is one paragraph of the styled document.
type Line struct {
	Text       string
	Subheading bool
}

// Options carries the few knobs that are configurable.
type Options struct {
	MarginPt float64
}

// Lines splits text into paragraphs. Leading and trailing '*' are removed
// from each line first; lines left empty are dropped.
func Lines(text string) []Line {
	var out []Line
	for _, raw := range strings.Split(text, "\n") {
		clean := strings.Trim(strings.TrimSuffix(raw, "\r"), "*")
		if strings.TrimSpace(clean) == "" {
			continue
		}
		out = append(out, Line{Text: clean, Subheading: IsSubheading(clean)})
	}
	return out
}

// IsSubheading reports whether line contains any subheading keyword.
func IsSubheading(line string) bool {
	for _, kw := range SubheadingKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

var paragraphFormat = docx.ParagraphFormat{
	Alignment:     docx.AlignLeft,
	SpaceAfterPt:  0,
	SetSpaceAfter: true,
	LineSpacing:   1,
}

// Build lays out text as a document: the fixed title heading, then one
// paragraph per line.
func Build(text string, opts Options) *docx.Document {
	d := docx.New()
	d.Title = Title
	d.NormalFont = docx.Font{Name: FontName, SizePt: FontSizePt}
	d.Format = paragraphFormat
	d.Margins = docx.Uniform(opts.MarginPt)

	d.AddParagraph(Title, docx.StyleHeading1)
	for _, l := range Lines(text) {
		p := d.AddParagraph(l.Text, docx.StyleNormal)
		if l.Subheading {
			c := Navy
			p.Color = &c
		}
	}
	return d
}

// Render builds and serializes the document.
func Render(text string, opts Options) ([]byte, error) {
	return Build(text, opts).Bytes()
}
