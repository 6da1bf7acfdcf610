// Package research runs the whole flow for one request: validate input,
// check the credential, run the planner/writer/editor crew and lay the
// result out as a Word document.
package research

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"research_article_generator/credential"
	"research_article_generator/docx"
	"research_article_generator/generator"
	"research_article_generator/report"
	"research_article_generator/store"
)

// Verifier checks a credential before the pipeline runs.
type Verifier interface {
	Verify(ctx context.Context, apiKey string) error
}

// Ledger records run outcomes. *store.Store satisfies it.
type Ledger interface {
	CreateRun(r *store.Run) error
	CompleteRun(id string, articleChars, documentBytes int) error
	FailRun(id, kind, message string) error
}

// LLMFactory builds the model client for one run.
type LLMFactory func(generator.LLMSettings) (generator.LLMClient, error)

// Request is one user submission.
type Request struct {
	Transcripts []Transcript
	APIKey      string
}

// Result is everything a successful run produces.
type Result struct {
	RunID    string
	Files    []string
	Article  string
	Document []byte
	Filename string
	MIMEType string
	Stages   []generator.TaskOutput
}

// Options wires a Runner. Verifier, NewLLM and Ledger may be nil.
type Options struct {
	Provider       string
	Model          string
	BaseURL        string
	RequestTimeout time.Duration
	MarginPt       float64

	Verifier Verifier
	NewLLM   LLMFactory
	Ledger   Ledger
	Tasks    []generator.TaskSpec

	Verbose bool
	Logger  *log.Logger
}

// Runner executes requests. It holds no per-run state, so concurrent Run
// calls with different credentials are independent.
type Runner struct {
	opts Options
}

func NewRunner(opts Options) *Runner {
	if opts.NewLLM == nil {
		opts.NewLLM = generator.NewLLM
	}
	if opts.Verifier == nil {
		opts.Verifier = credential.New(opts.BaseURL, nil, 0, opts.Verbose, opts.Logger)
	}
	if opts.Tasks == nil {
		opts.Tasks = generator.ResearchTasks()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Runner{opts: opts}
}

func (r *Runner) infof(format string, args ...interface{}) {
	if !r.opts.Verbose {
		return
	}
	r.opts.Logger.Printf("[INFO] "+format, args...)
}

// Validate enforces the input preconditions in order: files, then key. A
// key that is only whitespace is not missing; the credential check rejects it.
func Validate(req Request) error {
	if len(req.Transcripts) == 0 {
		return &MissingInputError{Field: FieldFiles}
	}
	if req.APIKey == "" {
		return &MissingInputError{Field: FieldAPIKey}
	}
	return nil
}

// Run blocks until the document is built or a stage fails. onEvent may be
// nil. No document is returned unless every stage succeeded.
func (r *Runner) Run(ctx context.Context, req Request, onEvent func(Event)) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	emit := func(ev Event) {
		if onEvent == nil {
			return
		}
		ev.RunID = runID
		ev.At = time.Now()
		onEvent(ev)
	}

	transcript := Bundle(req.Transcripts)
	files := Names(req.Transcripts)
	r.record(func(l Ledger) error {
		return l.CreateRun(&store.Run{
			ID:              runID,
			Files:           files,
			TranscriptBytes: len(transcript),
			Provider:        r.opts.Provider,
			Model:           r.opts.Model,
		})
	})
	r.infof("run %s started: files=%s bytes=%d", runID, strings.Join(files, ", "), len(transcript))
	emit(Event{Type: EventRunStarted, Message: "Uploaded Files: " + strings.Join(files, ", ")})

	res, err := r.execute(ctx, runID, transcript, req.APIKey, emit)
	if err != nil {
		kind := Classify(err)
		if kind == KindUnclassified {
			var u *UnclassifiedError
			if !errors.As(err, &u) {
				err = &UnclassifiedError{Cause: err}
			}
		}
		msg := strings.Join(UserMessage(err), "\n")
		r.record(func(l Ledger) error { return l.FailRun(runID, string(kind), msg) })
		r.opts.Logger.Printf("[WARN] run %s failed (%s): %v", runID, kind, err)
		emit(Event{Type: EventRunFailed, Message: msg})
		return nil, err
	}

	res.Files = files
	r.record(func(l Ledger) error { return l.CompleteRun(runID, len(res.Article), len(res.Document)) })
	r.infof("run %s done: article=%d chars document=%d bytes", runID, len(res.Article), len(res.Document))
	emit(Event{Type: EventDocumentReady, Message: res.Filename})
	return res, nil
}

func (r *Runner) execute(ctx context.Context, runID, transcript, apiKey string, emit func(Event)) (*Result, error) {
	if err := r.opts.Verifier.Verify(ctx, apiKey); err != nil {
		return nil, err
	}
	emit(Event{Type: EventCredentialVerified, Message: "API connection successful!"})

	llm, err := r.opts.NewLLM(generator.LLMSettings{
		Provider:       r.opts.Provider,
		Model:          r.opts.Model,
		APIKey:         apiKey,
		BaseURL:        r.opts.BaseURL,
		RequestTimeout: r.opts.RequestTimeout,
	})
	if err != nil {
		return nil, &UnclassifiedError{Cause: err}
	}
	crew, err := generator.NewCrew(llm, r.opts.Tasks)
	if err != nil {
		return nil, &UnclassifiedError{Cause: err}
	}
	crew.OnStage = func(ev generator.StageEvent) {
		typ := EventStageStarted
		if ev.Done {
			typ = EventStageCompleted
		}
		r.infof("run %s: %s %s (%d/%d)", runID, typ, ev.Task, ev.Index+1, ev.Total)
		emit(Event{Type: typ, Stage: ev.Task, Role: ev.Role, Step: ev.Index + 1, Steps: ev.Total})
	}

	out, err := crew.Kickoff(ctx, transcript)
	if err != nil {
		return nil, err
	}

	article := generator.CleanText(out.Raw)
	doc, err := report.Render(article, report.Options{MarginPt: r.opts.MarginPt})
	if err != nil {
		return nil, &UnclassifiedError{Cause: err}
	}

	return &Result{
		RunID:    runID,
		Article:  article,
		Document: doc,
		Filename: report.Filename,
		MIMEType: docx.MIMEType,
		Stages:   out.Tasks,
	}, nil
}

func (r *Runner) record(fn func(Ledger) error) {
	if r.opts.Ledger == nil {
		return
	}
	if err := fn(r.opts.Ledger); err != nil {
		r.opts.Logger.Printf("[WARN] run ledger: %v", err)
	}
}
