package app

import (
	"time"

	"go.uber.org/zap"

	"bookpipe/internal/metrics"
)

// job is the state of one Run or Convert call.
type job struct {
	app     *App
	url     string
	res     Result
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func (a *App) newJob(source string) *job {
	id := a.newID()
	return &job{
		app:     a,
		res:     Result{JobID: id, Source: source},
		logger:  a.logger.With(zap.String("job_id", id)),
		metrics: metrics.New(),
	}
}

// run times fn as step. A failure is returned as a *StepError carrying what
// the job had produced so far.
func (j *job) run(step Step, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	if err != nil {
		return j.fail(step, err, d)
	}
	j.metrics.ObserveStep(string(step), string(StatusOK), d)
	j.res.Steps = append(j.res.Steps, StepResult{Step: step, Status: StatusOK, Duration: d})
	j.logger.Info("step done", zap.String("step", string(step)), zap.Duration("duration", d))
	return nil
}

func (j *job) skip(step Step, note string) {
	j.metrics.ObserveStep(string(step), string(StatusSkipped), 0)
	j.res.Steps = append(j.res.Steps, StepResult{Step: step, Status: StatusSkipped, Note: note})
	j.logger.Debug("step skipped", zap.String("step", string(step)), zap.String("reason", note))
}

func (j *job) fail(step Step, err error, d time.Duration) error {
	j.metrics.ObserveStep(string(step), string(StatusFailed), d)
	j.logger.Error("step failed", zap.String("step", string(step)), zap.Duration("duration", d), zap.Error(err))
	return &StepError{Step: step, Err: err, Partial: j.partial()}
}

func (j *job) partial() Partial {
	return Partial{
		Steps:        append([]StepResult(nil), j.res.Steps...),
		ArtifactPath: j.res.ArtifactPath,
		RenderedPath: j.res.RenderedPath,
		Files:        append([]string(nil), j.res.Files...),
		ManifestPath: j.res.ManifestPath,
	}
}

// finish writes the run's metrics whatever the outcome.
func (j *job) finish(err error) (Result, error) {
	if werr := j.metrics.WriteFile(j.app.cfg.MetricsFile); werr != nil {
		j.logger.Warn("metrics not written", zap.Error(werr))
	}
	if err != nil {
		return Result{}, err
	}
	j.logger.Info("job finished", zap.Int("chunks", len(j.res.Files)))
	return j.res, nil
}
