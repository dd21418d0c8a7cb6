package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"sheetforge/internal/artifact"
	"sheetforge/internal/cache"
	"sheetforge/internal/config"
	"sheetforge/internal/llmclient"
	"sheetforge/internal/middleware"
	"sheetforge/internal/pipeline"
	"sheetforge/internal/prompt"
	"sheetforge/internal/runstore"
	"sheetforge/internal/types"
	"sheetforge/internal/workdir"
)

// App owns the long-lived pieces behind the HTTP surface. Orchestrators are
// created per working directory and reused, so their session caches survive
// across requests against the same directory.
type App struct {
	cfg     *config.Config
	client  llmclient.LLMClient
	prompts *prompt.Provider
	store   artifact.Store
	runs    *runstore.Store
	logger  *log.Logger

	mu    sync.Mutex
	orchs map[string]*pipeline.Orchestrator
}

func NewApp(cfg *config.Config, client llmclient.LLMClient, prompts *prompt.Provider, store artifact.Store, runs *runstore.Store, logger *log.Logger) *App {
	return &App{
		cfg:     cfg,
		client:  client,
		prompts: prompts,
		store:   store,
		runs:    runs,
		logger:  logger,
		orchs:   make(map[string]*pipeline.Orchestrator),
	}
}

func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transform", a.handleTransform)
	mux.HandleFunc("POST /api/config", a.handleGenerateConfig)
	mux.HandleFunc("GET /api/runs/{id}", a.handleGetRun)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return middleware.CORS(mux)
}

type transformRequest struct {
	Request string          `json:"request"`
	WorkDir string          `json:"work_dir"`
	Files   []types.FileRef `json:"files,omitempty"`
}

type transformResponse struct {
	RunID        string   `json:"run_id"`
	WorkbookPath string   `json:"workbook_path"`
	ArtifactURL  string   `json:"artifact_url,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	FromCache    bool     `json:"from_cache,omitempty"`
}

type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func (a *App) handleTransform(w http.ResponseWriter, r *http.Request) {
	var in transformRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if strings.TrimSpace(in.Request) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "request is required")
		return
	}
	if strings.TrimSpace(in.WorkDir) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "work_dir is required")
		return
	}

	orch, err := a.orchestratorFor(in.WorkDir)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "work_dir unusable: "+err.Error())
		return
	}

	res, err := orch.Run(r.Context(), in.Request, in.Files)
	if err != nil {
		a.recordFailure(in.Request, err)
		kind, status := classify(err)
		writeError(w, status, kind, err.Error())
		return
	}

	url := a.uploadArtifacts(r, res)
	a.runs.Put(runstore.Record{
		RunID:        res.RunID,
		Request:      in.Request,
		Status:       runstore.StatusSucceeded,
		WorkbookPath: res.WorkbookPath,
		ArtifactURL:  url,
		Warnings:     res.Warnings,
		CreatedAt:    res.CompletedAt,
	})
	a.runs.Save()

	writeJSON(w, http.StatusOK, transformResponse{
		RunID:        res.RunID,
		WorkbookPath: res.WorkbookPath,
		ArtifactURL:  url,
		Warnings:     res.Warnings,
		FromCache:    res.FromCache,
	})
}

type configRequest struct {
	Requirements string                  `json:"requirements"`
	Samples      []string                `json:"samples,omitempty"`
	Current      *types.ExtractionConfig `json:"current,omitempty"`
	Feedback     string                  `json:"feedback,omitempty"`
}

// handleGenerateConfig builds an extraction configuration from a
// natural-language description, or refines one when feedback is supplied.
func (a *App) handleGenerateConfig(w http.ResponseWriter, r *http.Request) {
	var in configRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	gen := &pipeline.ConfigGenerator{LLM: a.client, Prompts: a.prompts}
	var (
		cfg types.ExtractionConfig
		err error
	)
	if strings.TrimSpace(in.Feedback) != "" {
		if in.Current == nil {
			writeError(w, http.StatusBadRequest, "bad_request", "current configuration is required with feedback")
			return
		}
		cfg, err = gen.Refine(r.Context(), *in.Current, in.Feedback)
	} else {
		if strings.TrimSpace(in.Requirements) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "requirements is required")
			return
		}
		cfg, err = gen.Run(r.Context(), in.Requirements, in.Samples)
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidConfigResponse) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_config_response", err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "config_generation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	rec, ok := a.runs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown run id")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *App) orchestratorFor(root string) (*pipeline.Orchestrator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if orch, ok := a.orchs[abs]; ok {
		return orch, nil
	}
	wd, err := workdir.Attach(abs)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithStageTimeout(a.cfg.StageTimeout),
		pipeline.WithCache(cache.NewSession(0, a.cfg.CacheTTL)),
	}
	// Outputs land in a server-owned scratch directory so source
	// directories stay read-only from the pipeline's point of view.
	if a.cfg.WorkRoot != "" {
		out, err := workdir.New(a.cfg.WorkRoot)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithOutputDir(out.Root()))
	}
	orch := pipeline.New(a.client, a.prompts, wd.FS(), opts...)
	a.orchs[abs] = orch
	return orch, nil
}

// uploadArtifacts pushes the workbook to the artifact store. Upload problems
// are logged, not surfaced: the local path in the response stays valid.
func (a *App) uploadArtifacts(r *http.Request, res types.RunResult) string {
	if a.store == nil {
		return ""
	}
	content, err := os.ReadFile(res.WorkbookPath)
	if err != nil {
		a.logger.Printf("artifact upload skipped, read failed: %v", err)
		return ""
	}
	name := filepath.Base(res.WorkbookPath)
	if err := a.store.Put(r.Context(), res.RunID, name, content); err != nil {
		a.logger.Printf("artifact upload failed: %v", err)
		return ""
	}
	url, err := a.store.GetURL(r.Context(), res.RunID, name)
	if err != nil {
		a.logger.Printf("artifact url failed: %v", err)
		return ""
	}
	return url
}

func (a *App) recordFailure(request string, err error) {
	kind, _ := classify(err)
	a.runs.Put(runstore.Record{
		RunID:     "failed-" + uuid.NewString(),
		Request:   request,
		Status:    runstore.StatusFailed,
		ErrorKind: kind,
	})
	a.runs.Save()
}

func classify(err error) (kind string, status int) {
	var pe *pipeline.PipelineError
	if !errors.As(err, &pe) {
		return "internal", http.StatusInternalServerError
	}
	switch pe.Kind {
	case pipeline.KindCanceled:
		return string(pe.Kind), http.StatusRequestTimeout
	case pipeline.KindPlanningFailed, pipeline.KindExtractionFailed, pipeline.KindGenerationFailed:
		return string(pe.Kind), http.StatusUnprocessableEntity
	default:
		return string(pe.Kind), http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{ErrorKind: kind, Message: msg})
}
