package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. Planning, extraction and generation
// failures are fatal; analysis degrades to auto layout and validation only
// ever produces warnings, so neither appears here as a run-ending kind.
type Kind string

const (
	KindPlanningFailed   Kind = "planning_failed"
	KindExtractionFailed Kind = "extraction_failed"
	KindGenerationFailed Kind = "generation_failed"
	KindCanceled         Kind = "canceled"
)

// ErrInvalidPlanResponse marks a strategist reply that parsed as JSON but
// carries none of the expected fields.
var ErrInvalidPlanResponse = errors.New("plan response carries no usable fields")

// ErrInvalidConfigResponse marks an engineer reply that parsed as JSON but
// carries neither a schema nor a prompt.
var ErrInvalidConfigResponse = errors.New("config response carries no usable fields")

// PipelineError is the structured failure the orchestrator returns.
type PipelineError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

func failure(kind Kind, stage string, err error) error {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// KindOf extracts the failure kind, or "" for errors from outside the
// pipeline.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
