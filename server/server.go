package server

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"research_article_generator/config"
	"research_article_generator/credential"
	"research_article_generator/generator"
	"research_article_generator/report"
	"research_article_generator/research"
	"research_article_generator/store"
)

//go:embed web/dist
var embeddedStatic embed.FS

// RunLister reads the run ledger. *store.Store satisfies it.
type RunLister interface {
	ListRuns(limit int) ([]store.Run, error)
	GetRun(id string) (*store.Run, error)
}

type Server struct {
	runner   *research.Runner
	cfg      config.Config
	runs     RunLister
	docs     *documentStore
	hub      *Hub
	staticFS http.Handler
	logger   *log.Logger
}

// documentStore keeps the most recent successful results so their document
// can be downloaded after the generate response. Oldest entries are evicted.
type documentStore struct {
	mu    sync.Mutex
	limit int
	order []string
	docs  map[string]*research.Result
}

func newDocumentStore(limit int) *documentStore {
	if limit <= 0 {
		limit = 32
	}
	return &documentStore{limit: limit, docs: make(map[string]*research.Result)}
}

func (s *documentStore) set(id string, res *research.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		s.order = append(s.order, id)
	}
	s.docs[id] = res
	for len(s.order) > s.limit {
		delete(s.docs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *documentStore) get(id string) (*research.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.docs[id]
	return res, ok
}

// New builds the server. runs may be nil when no ledger is configured.
func New(runner *research.Runner, cfg config.Config, runs RunLister, logger *log.Logger) (*Server, error) {
	if runner == nil {
		return nil, errors.New("research runner required")
	}
	if logger == nil {
		logger = log.Default()
	}

	sub, err := fs.Sub(embeddedStatic, "web/dist")
	if err != nil {
		return nil, err
	}

	return &Server{
		runner:   runner,
		cfg:      cfg,
		runs:     runs,
		docs:     newDocumentStore(cfg.Web.KeepDocuments),
		hub:      NewHub(logger),
		staticFS: http.FileServer(http.FS(sub)),
		logger:   logger,
	}, nil
}

func (s *Server) infof(format string, args ...interface{}) {
	if !s.cfg.Verbose {
		return
	}
	s.logger.Printf("[INFO] "+format, args...)
}

func (s *Server) Routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/generate", s.handleGenerate)
	api.HandleFunc("GET /api/runs", s.handleRunList)
	api.HandleFunc("GET /api/runs/{id}", s.handleRunGet)
	api.HandleFunc("GET /api/runs/{id}/document", s.handleDocument)
	api.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	api.Handle("/", s.staticHandler())

	mux := http.NewServeMux()
	// The websocket must see the raw connection, so it bypasses gzip.
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	mux.Handle("/", gzhttp.GzipHandler(api))
	return s.logMiddleware(s.authMiddleware(mux))
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{Addr: addr, Handler: s.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Starting web server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path != "/" && !strings.Contains(r.URL.Path, ".") {
			r.URL.Path = "/"
		}
		s.staticFS.ServeHTTP(w, r)
	})
}

// --- Handlers ---

type generateResp struct {
	RunID       string   `json:"run_id"`
	Files       []string `json:"files"`
	Skipped     []string `json:"skipped,omitempty"`
	Markdown    string   `json:"markdown"`
	HTML        string   `json:"html"`
	DocumentURL string   `json:"document_url"`
	Filename    string   `json:"filename"`
	MIMEType    string   `json:"mime_type"`
}

type errorResp struct {
	Error        string   `json:"error"`
	Kind         string   `json:"kind"`
	Messages     []string `json:"messages"`
	Skipped      []string `json:"skipped,omitempty"`
	StatusCode   int      `json:"status_code,omitempty"`
	ResponseBody string   `json:"response_body,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error(), Kind: "bad_request", Messages: []string{err.Error()}})
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploaded, err := readUploads(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error(), Kind: "bad_request", Messages: []string{err.Error()}})
		return
	}
	transcripts, skipped := research.TextOnly(uploaded)
	req := research.Request{Transcripts: transcripts, APIKey: r.FormValue("api_key")}
	token := clientToken(r.FormValue("client_token"))

	// A run is not cancelled when the browser goes away.
	ctx := context.WithoutCancel(r.Context())
	res, err := s.runner.Run(ctx, req, func(ev research.Event) { s.publish(token, ev) })
	if err != nil {
		s.writeRunError(w, err, skipped)
		return
	}

	s.docs.set(res.RunID, res)
	html, err := report.RenderHTML(res.Article)
	if err != nil {
		s.logger.Printf("[WARN] render preview for run %s: %v", res.RunID, err)
	}
	writeJSON(w, http.StatusOK, generateResp{
		RunID:       res.RunID,
		Files:       res.Files,
		Skipped:     skipped,
		Markdown:    res.Article,
		HTML:        html,
		DocumentURL: "/api/runs/" + res.RunID + "/document",
		Filename:    res.Filename,
		MIMEType:    res.MIMEType,
	})
}

func readUploads(r *http.Request) ([]research.Transcript, error) {
	var out []research.Transcript
	for _, fh := range r.MultipartForm.File["transcripts"] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		out = append(out, research.Transcript{Name: fh.Filename, Data: data})
	}
	return out, nil
}

func (s *Server) writeRunError(w http.ResponseWriter, err error, skipped []string) {
	kind := research.Classify(err)
	lines := research.UserMessage(err)
	resp := errorResp{Error: lines[0], Kind: string(kind), Messages: lines, Skipped: skipped}

	status := http.StatusInternalServerError
	var conn *credential.APIConnectionError
	var pipe *generator.PipelineExecutionError
	switch {
	case kind == research.KindMissingInput:
		status = http.StatusBadRequest
	case errors.As(err, &conn):
		status = http.StatusBadGateway
		resp.StatusCode = conn.StatusCode
		resp.ResponseBody = conn.Body
	case errors.As(err, &pipe):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	res, ok := s.docs.get(r.PathValue("id"))
	if !ok {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", res.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Document)))
	_, _ = w.Write(res.Document)
}

func (s *Server) handleRunList(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusOK, []store.Run{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunGet(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	run, err := s.runs.GetRun(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// publish tags ev with the submitting page's token. Every page receives every
// frame, so failure details stay in the HTTP response only.
func (s *Server) publish(token string, ev research.Event) {
	if ev.Type == research.EventRunFailed {
		ev.Message = ""
	}
	s.hub.Broadcast(Event{Type: string(ev.Type), Token: token, Payload: ev})
}

const maxTokenLen = 64

func clientToken(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > maxTokenLen {
		v = v[:maxTokenLen]
	}
	return v
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.infof("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
