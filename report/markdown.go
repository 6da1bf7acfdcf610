package report

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// RenderHTML converts the article markdown for on-page display. Raw HTML in
// the model output is not passed through.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
