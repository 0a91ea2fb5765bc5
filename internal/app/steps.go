package app

import (
	"fmt"
	"time"
)

type Step string

const (
	StepFetch     Step = "fetch"
	StepRender    Step = "render"
	StepPartition Step = "partition"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StepResult is the outcome of one pipeline step.
type StepResult struct {
	Step     Step          `json:"step"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Note     string        `json:"note,omitempty"`
}

// Partial is what a failed job had produced before it stopped.
type Partial struct {
	Steps        []StepResult
	ArtifactPath string
	RenderedPath string
	Files        []string
	ManifestPath string
}

// StepError attributes a job failure to the step that raised it.
type StepError struct {
	Step    Step
	Err     error
	Partial Partial
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
