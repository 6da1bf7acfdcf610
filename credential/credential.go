// Package credential checks that an API key can reach the model provider
// before any expensive work is started.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultBaseURL is the OpenAI REST root; the credential check hits <base>/models.
const DefaultBaseURL = "https://api.openai.com/v1"

// maxBodyBytes bounds how much of an error body is kept for the user.
const maxBodyBytes = 64 << 10

// APIConnectionError reports a failed credential check. StatusCode is zero
// when no HTTP response was received.
type APIConnectionError struct {
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

func (e *APIConnectionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("api connection to %s failed: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("api connection to %s failed: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIConnectionError) Unwrap() error { return e.Cause }

// Checker performs the credential check. The zero value is not usable; use New.
type Checker struct {
	baseURL string
	opts    []option.RequestOption
	verbose bool
	logger  *log.Logger
}

// New returns a Checker for baseURL. client may be nil; a non-zero timeout
// bounds the single request.
func New(baseURL string, client *http.Client, timeout time.Duration, verbose bool, logger *log.Logger) *Checker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	baseURL = strings.TrimRight(baseURL, "/")

	// One attempt only: a rejected key is reported, never retried.
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &Checker{
		baseURL: baseURL,
		opts:    opts,
		verbose: verbose,
		logger:  logger,
	}
}

func (c *Checker) infof(format string, args ...interface{}) {
	if !c.verbose {
		return
	}
	c.logger.Printf("[INFO] "+format, args...)
}

// ModelsURL is the endpoint Verify requests.
func (c *Checker) ModelsURL() string {
	return c.baseURL + "/models"
}

// Verify lists the provider's models once with apiKey. Any transport error
// or non-2xx status yields *APIConnectionError; the listing is discarded.
func (c *Checker) Verify(ctx context.Context, apiKey string) error {
	url := c.ModelsURL()
	if apiKey == "" {
		return &APIConnectionError{URL: url, Cause: errors.New("empty api key")}
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.opts...)...)
	var resp *http.Response
	if _, err := client.Models.List(ctx, option.WithResponseInto(&resp)); err != nil {
		return connectionError(url, resp, err)
	}
	c.infof("credential %s accepted by %s", Redact(apiKey), url)
	return nil
}

// connectionError keeps the status and body of a rejected request. The SDK
// rewinds the body of error responses, including ones that are not JSON.
func connectionError(url string, resp *http.Response, err error) *APIConnectionError {
	ce := &APIConnectionError{URL: url, Cause: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		ce.StatusCode = apiErr.StatusCode
		ce.Body = apiErr.RawJSON()
	}
	if resp != nil && resp.StatusCode >= 300 {
		ce.StatusCode = resp.StatusCode
		if resp.Body != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if len(body) > 0 {
				ce.Body = string(body)
			}
		}
	}
	return ce
}

// Redact keeps the first three and last four characters of key.
func Redact(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "…" + key[len(key)-4:]
}

// Skip is a verifier that accepts every key, used with the mock provider.
type Skip struct{}

func (Skip) Verify(context.Context, string) error { return nil }
