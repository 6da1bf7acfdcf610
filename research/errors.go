package research

import (
	"errors"
	"fmt"

	"research_article_generator/credential"
	"research_article_generator/generator"
)

// MissingInputError is returned before any network call when the request
// has no transcripts or no credential.
type MissingInputError struct {
	Field string
}

const (
	FieldFiles  = "files"
	FieldAPIKey = "api_key"
)

func (e *MissingInputError) Error() string {
	if e.Field == FieldAPIKey {
		return "Please enter your OpenAI API Key."
	}
	return "Please upload at least one transcript file."
}

// UnclassifiedError wraps anything outside the known taxonomy.
type UnclassifiedError struct {
	Cause error
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.Cause)
}

func (e *UnclassifiedError) Unwrap() error { return e.Cause }

type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindMissingInput      ErrorKind = "missing_input"
	KindAPIConnection     ErrorKind = "api_connection"
	KindPipelineExecution ErrorKind = "pipeline_execution"
	KindUnclassified      ErrorKind = "unclassified"
)

// Classify maps err onto the error taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var missing *MissingInputError
	var conn *credential.APIConnectionError
	var pipe *generator.PipelineExecutionError
	switch {
	case errors.As(err, &missing):
		return KindMissingInput
	case errors.As(err, &conn):
		return KindAPIConnection
	case errors.As(err, &pipe):
		return KindPipelineExecution
	default:
		return KindUnclassified
	}
}

// UserMessage renders err as the lines shown to the user.
func UserMessage(err error) []string {
	if err == nil {
		return nil
	}
	var missing *MissingInputError
	var conn *credential.APIConnectionError
	var pipe *generator.PipelineExecutionError
	switch {
	case errors.As(err, &missing):
		return []string{missing.Error()}
	case errors.As(err, &conn):
		lines := []string{fmt.Sprintf("API Error: %v", conn)}
		if conn.StatusCode != 0 {
			lines = append(lines,
				fmt.Sprintf("Response Status Code: %d", conn.StatusCode),
				fmt.Sprintf("Response Content: %s", conn.Body))
		}
		return lines
	case errors.As(err, &pipe):
		return []string{fmt.Sprintf("An error occurred: %v", pipe)}
	default:
		var u *UnclassifiedError
		if errors.As(err, &u) {
			err = u.Cause
		}
		return []string{fmt.Sprintf("An error occurred: %v", err)}
	}
}
