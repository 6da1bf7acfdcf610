package research

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"research_article_generator/config"
	"research_article_generator/credential"
	"research_article_generator/docx"
	"research_article_generator/docx/docxtest"
	"research_article_generator/generator"
	"research_article_generator/report"
	"research_article_generator/store"
)

type fakeVerifier struct {
	mu    sync.Mutex
	err   error
	calls int
	keys  []string
}

func (f *fakeVerifier) Verify(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.keys = append(f.keys, key)
	return f.err
}

// stageLLM answers by agent role so it is safe for concurrent runs.
type stageLLM struct {
	final   string
	failOn  string
	mu      sync.Mutex
	prompts []generator.Prompt
}

func (s *stageLLM) Complete(_ context.Context, p generator.Prompt) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()
	switch {
	case s.failOn != "" && strings.HasPrefix(p.System, "You are "+s.failOn+"."):
		return "", errors.New("model overloaded")
	case strings.HasPrefix(p.System, "You are Editor."):
		return s.final, nil
	default:
		return "intermediate output", nil
	}
}

type harness struct {
	runner   *Runner
	verifier *fakeVerifier
	llm      *stageLLM
	store    *store.Store
	settings []generator.LLMSettings
	mu       sync.Mutex
}

func newHarness(t *testing.T, verifyErr error, final string) *harness {
	t.Helper()
	st, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "runs.db")})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	h := &harness{
		verifier: &fakeVerifier{err: verifyErr},
		llm:      &stageLLM{final: final},
		store:    st,
	}
	h.runner = NewRunner(Options{
		Provider: "openai",
		Model:    "gpt-4o",
		MarginPt: report.DefaultMarginPt,
		Verifier: h.verifier,
		NewLLM: func(s generator.LLMSettings) (generator.LLMClient, error) {
			h.mu.Lock()
			h.settings = append(h.settings, s)
			h.mu.Unlock()
			return h.llm, nil
		},
		Ledger: st,
		Logger: log.New(io.Discard, "", 0),
	})
	return h
}

func transcripts(names ...string) []Transcript {
	var ts []Transcript
	for _, n := range names {
		ts = append(ts, Transcript{Name: n, Data: []byte("contents of " + n)})
	}
	return ts
}

func TestRunMissingFiles(t *testing.T) {
	h := newHarness(t, nil, "x")
	_, err := h.runner.Run(context.Background(), Request{APIKey: "sk-key"}, nil)

	var missing *MissingInputError
	if !errors.As(err, &missing) || missing.Field != FieldFiles {
		t.Fatalf("expected missing files error, got %v", err)
	}
	if h.verifier.calls != 0 {
		t.Error("no credential check may happen without files")
	}
	if len(h.settings) != 0 {
		t.Error("pipeline must not be built without files")
	}
	runs, _ := h.store.ListRuns(0)
	if len(runs) != 0 {
		t.Errorf("invalid input must not be recorded, got %d runs", len(runs))
	}
}

func TestRunMissingKey(t *testing.T) {
	h := newHarness(t, nil, "x")
	_, err := h.runner.Run(context.Background(), Request{Transcripts: transcripts("a.txt")}, nil)

	var missing *MissingInputError
	if !errors.As(err, &missing) || missing.Field != FieldAPIKey {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if Classify(err) != KindMissingInput {
		t.Errorf("unexpected kind %s", Classify(err))
	}
	if h.verifier.calls != 0 {
		t.Error("no credential check may happen without a key")
	}
}

func TestWhitespaceKeyReachesCredentialCheck(t *testing.T) {
	verifyErr := &credential.APIConnectionError{URL: "https://api.openai.com/v1/models", StatusCode: 401, Body: "bad key"}
	h := newHarness(t, verifyErr, "x")

	if err := Validate(Request{Transcripts: transcripts("a.txt"), APIKey: " "}); err != nil {
		t.Fatalf("whitespace key is not missing input: %v", err)
	}
	_, err := h.runner.Run(context.Background(), Request{Transcripts: transcripts("a.txt"), APIKey: " "}, nil)
	if Classify(err) != KindAPIConnection {
		t.Fatalf("expected the credential check to reject the key, got %v", err)
	}
	if h.verifier.calls != 1 || h.verifier.keys[0] != " " {
		t.Errorf("expected one check with the raw key, got %d %q", h.verifier.calls, h.verifier.keys)
	}
}

func TestRunCredentialFailureSkipsPipeline(t *testing.T) {
	verifyErr := &credential.APIConnectionError{URL: "https://api.openai.com/v1/models", StatusCode: 401, Body: "bad key", Cause: errors.New("unexpected status 401")}
	h := newHarness(t, verifyErr, "x")

	var events []Event
	res, err := h.runner.Run(context.Background(), Request{Transcripts: transcripts("a.txt"), APIKey: "sk-bad"}, func(ev Event) {
		events = append(events, ev)
	})
	if res != nil {
		t.Error("no result may be returned on failure")
	}
	if Classify(err) != KindAPIConnection {
		t.Fatalf("expected api connection error, got %v", err)
	}
	if len(h.settings) != 0 || len(h.llm.prompts) != 0 {
		t.Error("pipeline must not be invoked after a failed credential check")
	}
	if h.verifier.calls != 1 {
		t.Errorf("expected exactly one credential check, got %d", h.verifier.calls)
	}

	if len(events) != 2 || events[0].Type != EventRunStarted || events[1].Type != EventRunFailed {
		t.Fatalf("unexpected events %+v", events)
	}
	if !strings.Contains(events[1].Message, "Response Status Code: 401") {
		t.Errorf("failure event should carry the status, got %q", events[1].Message)
	}

	runs, _ := h.store.ListRuns(0)
	if len(runs) != 1 || runs[0].Status != store.RunStatusFailed || runs[0].ErrorKind != string(KindAPIConnection) {
		t.Errorf("unexpected ledger %+v", runs)
	}
	if runs[0].DocumentBytes != 0 {
		t.Error("failed run must not record a document")
	}
}

func TestRunSuccess(t *testing.T) {
	final := "# Roundtable\n**Industry Trends**\nConsolidation continues.\n**Conclusion**\nSteady \xffprogress."
	h := newHarness(t, nil, final)

	var events []Event
	res, err := h.runner.Run(context.Background(), Request{
		Transcripts: transcripts("first.txt", "second.txt"),
		APIKey:      "sk-good",
	}, func(ev Event) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Filename != "research_article.docx" || res.MIMEType != docx.MIMEType {
		t.Errorf("unexpected download metadata %s %s", res.Filename, res.MIMEType)
	}
	if strings.Contains(res.Article, "\xff") {
		t.Error("invalid UTF-8 must be dropped from the article")
	}
	if len(res.Files) != 2 || res.Files[0] != "first.txt" {
		t.Errorf("unexpected files %v", res.Files)
	}
	if len(res.Stages) != 3 {
		t.Errorf("expected 3 stage outputs, got %d", len(res.Stages))
	}

	s, err := docxtest.Inspect(res.Document)
	if err != nil {
		t.Fatalf("document is not valid: %v", err)
	}
	if s.Paragraphs[0].Text != report.Title {
		t.Errorf("first paragraph must be %q, got %q", report.Title, s.Paragraphs[0].Text)
	}
	var navy []string
	for _, p := range s.Paragraphs[1:] {
		if p.Color == "000080" {
			navy = append(navy, p.Text)
		}
	}
	if strings.Join(navy, "|") != "Industry Trends|Conclusion" {
		t.Errorf("unexpected subheadings %v", navy)
	}

	if len(h.settings) != 1 || h.settings[0].APIKey != "sk-good" || h.settings[0].Model != "gpt-4o" {
		t.Errorf("credential and model must be passed explicitly, got %+v", h.settings)
	}
	planner := h.llm.prompts[0].User
	if strings.Index(planner, "contents of first.txt") > strings.Index(planner, "contents of second.txt") {
		t.Error("transcripts must be concatenated in upload order")
	}

	wantTypes := []EventType{
		EventRunStarted, EventCredentialVerified,
		EventStageStarted, EventStageCompleted,
		EventStageStarted, EventStageCompleted,
		EventStageStarted, EventStageCompleted,
		EventDocumentReady,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d", len(wantTypes), len(events))
	}
	for i, typ := range wantTypes {
		if events[i].Type != typ {
			t.Errorf("event %d: expected %s, got %s", i, typ, events[i].Type)
		}
		if events[i].RunID != res.RunID {
			t.Errorf("event %d has run id %s, want %s", i, events[i].RunID, res.RunID)
		}
	}

	got, _ := h.store.GetRun(res.RunID)
	if got == nil || got.Status != store.RunStatusSucceeded || got.DocumentBytes != len(res.Document) {
		t.Errorf("unexpected ledger row %+v", got)
	}
}

func TestRunPipelineFailure(t *testing.T) {
	h := newHarness(t, nil, "x")
	h.llm.failOn = "Content Writer"

	res, err := h.runner.Run(context.Background(), Request{Transcripts: transcripts("a.txt"), APIKey: "sk"}, nil)
	if res != nil {
		t.Error("no partial output may be returned")
	}
	if Classify(err) != KindPipelineExecution {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	msg := UserMessage(err)
	if len(msg) != 1 || !strings.Contains(msg[0], "model overloaded") {
		t.Errorf("expected library message, got %v", msg)
	}
}

func TestRunFactoryFailureIsUnclassified(t *testing.T) {
	h := newHarness(t, nil, "x")
	h.runner.opts.NewLLM = func(generator.LLMSettings) (generator.LLMClient, error) {
		return nil, errors.New("no client")
	}
	_, err := h.runner.Run(context.Background(), Request{Transcripts: transcripts("a.txt"), APIKey: "sk"}, nil)
	if Classify(err) != KindUnclassified {
		t.Fatalf("expected unclassified, got %v", err)
	}
	if msg := UserMessage(err); msg[0] != "An error occurred: no client" {
		t.Errorf("unexpected message %v", msg)
	}
}

func TestConcurrentRunsKeepTheirOwnCredential(t *testing.T) {
	h := newHarness(t, nil, "**Conclusion**")
	var wg sync.WaitGroup
	keys := []string{"sk-alice", "sk-bob", "sk-carol"}
	for _, k := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if _, err := h.runner.Run(context.Background(), Request{Transcripts: transcripts("a.txt"), APIKey: key}, nil); err != nil {
				t.Errorf("run %s: %v", key, err)
			}
		}(k)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, s := range h.settings {
		seen[s.APIKey] = true
	}
	for _, k := range keys {
		if !seen[k] {
			t.Errorf("settings for %s never built", k)
		}
	}
}
