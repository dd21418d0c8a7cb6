package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"sheetforge/internal/cache"
	"sheetforge/internal/jsonutil"
	"sheetforge/internal/llmclient"
	"sheetforge/internal/prompt"
	"sheetforge/internal/safeio"
	"sheetforge/internal/scan"
	"sheetforge/internal/types"
	"sheetforge/internal/workbook"
)

const defaultStageTimeout = 4 * time.Minute

type generator interface {
	Run(path string, data types.ExtractedData, spec *types.ExcelSpecification) (workbook.Result, error)
}

type validator interface {
	Run(path string, spec *types.ExcelSpecification) types.ValidationResult
}

// Orchestrator drives one working directory's runs through the five stages.
// Identical concurrent requests collapse to a single computation; completed
// work is reused through the session caches.
type Orchestrator struct {
	Strategist *Strategist
	Extractor  *Extractor
	Analyst    *Analyst
	Generator  generator
	Validator  validator

	fs           *safeio.SafeFS
	out          string
	cache        *cache.Session
	logger       *log.Logger
	stageTimeout time.Duration
	group        singleflight.Group
}

type Option func(*Orchestrator)

// WithLogger directs progress lines somewhere other than the default logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithCache substitutes a shared session, e.g. one owned by the server.
func WithCache(c *cache.Session) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithStageTimeout bounds each stage. Zero keeps the default.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.stageTimeout = d
		}
	}
}

// WithOutputDir places finished workbooks somewhere other than the working
// directory root.
func WithOutputDir(dir string) Option {
	return func(o *Orchestrator) { o.out = dir }
}

// New wires the stages around one LLM client and one jailed working
// directory. Workbooks land in the working directory unless WithOutputDir
// says otherwise.
func New(client llmclient.LLMClient, prompts *prompt.Provider, fs *safeio.SafeFS, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		Strategist:   &Strategist{LLM: client, Prompts: prompts},
		Extractor:    &Extractor{LLM: client, Prompts: prompts, FS: fs},
		Analyst:      &Analyst{LLM: client, Prompts: prompts},
		Generator:    Generator{},
		Validator:    Validator{},
		fs:           fs,
		out:          fs.Root(),
		cache:        cache.NewSession(0, 0),
		logger:       log.Default(),
		stageTimeout: defaultStageTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline for one request. Files name sources inside the
// working directory; an empty slice means "everything in it".
func (o *Orchestrator) Run(ctx context.Context, request string, files []types.FileRef) (types.RunResult, error) {
	var err error
	if len(files) == 0 {
		files, err = scan.Manifest(o.fs)
		if err != nil {
			return types.RunResult{}, failure(KindExtractionFailed, "manifest", err)
		}
		// Earlier runs may have left outputs next to the sources; they are
		// not inputs and must not disturb the fingerprint.
		files = dropGenerated(files)
	} else {
		files = scan.Resolve(o.fs, files)
	}
	fp := cache.Fingerprint(request, files)

	v, err, shared := o.group.Do(fp, func() (any, error) {
		return o.run(ctx, fp, request, files)
	})
	if err != nil {
		return types.RunResult{}, err
	}
	res := v.(types.RunResult)
	if shared {
		res.FromCache = true
	}
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, fp, request string, files []types.FileRef) (types.RunResult, error) {
	if path, ok := o.cache.Workbooks.Get(fp); ok {
		if _, err := os.Stat(path); err == nil {
			o.logger.Printf("run %s: workbook cache hit", short(fp))
			return types.RunResult{
				RunID:        runIDFromPath(path),
				WorkbookPath: path,
				FromCache:    true,
				CompletedAt:  time.Now(),
			}, nil
		}
		// The file went away underneath the cache entry; treat as a miss.
		o.cache.Workbooks.Delete(fp)
	}

	runID := uuid.NewString()
	var warnings []string

	extracted, hit := o.cache.Extracted.Get(fp)
	if hit {
		o.logger.Printf("run %s: extracted-data cache hit, skipping plan and extraction", short(fp))
	} else {
		if err := o.checkpoint(ctx, "strategist"); err != nil {
			return types.RunResult{}, err
		}
		plan, err := o.runPlan(ctx, request, files)
		if err != nil {
			return types.RunResult{}, failure(KindPlanningFailed, "strategist", err)
		}
		o.logger.Printf("run %s: plan ready (%d steps)", short(fp), len(plan.Steps))

		if err := o.checkpoint(ctx, "extract"); err != nil {
			return types.RunResult{}, err
		}
		extracted, err = o.runExtract(ctx, request, plan, files)
		if err != nil {
			return types.RunResult{}, failure(KindExtractionFailed, "extract", err)
		}
		o.logger.Printf("run %s: extraction done (quality %.2f, %d issues)",
			short(fp), extracted.QualityScore, len(extracted.Issues))

		if err := o.persistExtracted(runID, extracted); err != nil {
			return types.RunResult{}, failure(KindExtractionFailed, "extract", err)
		}
		o.cache.Extracted.Set(fp, extracted)
	}

	if err := o.checkpoint(ctx, "analyze"); err != nil {
		return types.RunResult{}, err
	}
	spec, err := o.runAnalyze(ctx, extracted)
	if err != nil {
		o.logger.Printf("run %s: analysis failed, using auto layout: %v", short(fp), err)
		warnings = append(warnings, fmt.Sprintf("layout analysis failed, automatic layout used: %v", err))
		spec = nil
	}

	if err := o.checkpoint(ctx, "generate"); err != nil {
		return types.RunResult{}, err
	}
	path := filepath.Join(o.out, "workbook-"+runID+".xlsx")
	res, err := o.Generator.Run(path, extracted, spec)
	if err != nil {
		return types.RunResult{}, err
	}
	o.logger.Printf("run %s: workbook written (%d sheets, %d rows)", short(fp), len(res.Sheets), res.TotalRows)

	validation := o.Validator.Run(path, spec)
	if !validation.ValidationPassed {
		warnings = append(warnings, validation.Issues...)
		o.logger.Printf("run %s: validation flagged %d issue(s)", short(fp), len(validation.Issues))
	}

	o.cache.Workbooks.Set(fp, path)
	return types.RunResult{
		RunID:        runID,
		WorkbookPath: path,
		Warnings:     warnings,
		CompletedAt:  time.Now(),
	}, nil
}

func (o *Orchestrator) runPlan(ctx context.Context, request string, files []types.FileRef) (types.ExecutionPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.Strategist.Run(ctx, request, files)
}

func (o *Orchestrator) runExtract(ctx context.Context, request string, plan types.ExecutionPlan, files []types.FileRef) (types.ExtractedData, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.Extractor.Run(ctx, request, plan, files)
}

func (o *Orchestrator) runAnalyze(ctx context.Context, data types.ExtractedData) (*types.ExcelSpecification, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.Analyst.Run(ctx, data)
}

func (o *Orchestrator) persistExtracted(runID string, data types.ExtractedData) error {
	b, err := jsonutil.MarshalIndentNoEscape(data)
	if err != nil {
		return err
	}
	path := filepath.Join(o.out, "extracted_data-"+runID+".json")
	return safeio.WriteFileAtomic(path, b, 0o644)
}

func (o *Orchestrator) checkpoint(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return failure(KindCanceled, stage, err)
	}
	return nil
}

func dropGenerated(files []types.FileRef) []types.FileRef {
	kept := files[:0]
	for _, f := range files {
		if strings.HasPrefix(f.Name, "workbook-") && strings.HasSuffix(f.Name, ".xlsx") {
			continue
		}
		if strings.HasPrefix(f.Name, "extracted_data-") && strings.HasSuffix(f.Name, ".json") {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func runIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, "workbook-")
	return strings.TrimSuffix(base, ".xlsx")
}

func short(fp string) string {
	if len(fp) > 8 {
		return fp[:8]
	}
	return fp
}
