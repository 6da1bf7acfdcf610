package generator

import (
	"errors"
	"strings"
)

// ErrEmptyOutput is returned when a stage produced nothing but whitespace.
var ErrEmptyOutput = errors.New("model returned empty output")

// PostProcess validates a stage's raw output.
func PostProcess(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

// CleanText drops every byte sequence that is not valid UTF-8. It never fails;
// invalid input loses characters silently.
func CleanText(s string) string {
	return strings.ToValidUTF8(s, "")
}
