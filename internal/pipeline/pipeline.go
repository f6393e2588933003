package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/metrics"
)

// Step is one stage of the processing pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context, job *Job) error
}

// Pipeline runs steps in order, recording per-step timings.
type Pipeline struct {
	steps []Step
	clock clockwork.Clock
}

// New creates a pipeline from the given steps.
func New(clock clockwork.Clock, steps ...Step) *Pipeline {
	return &Pipeline{steps: steps, clock: clock}
}

// Run executes every step against the job. The first step error aborts the
// run, wrapped with the step name.
func (p *Pipeline) Run(ctx context.Context, job *Job) error {
	metrics.PipelineCuesProcessed.Add(float64(len(job.Cues)))

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			metrics.PipelineRunsTotal.WithLabelValues("cancelled").Inc()
			return fmt.Errorf("pipeline cancelled before step %s: %w", step.Name(), err)
		}

		start := p.clock.Now()
		err := step.Run(ctx, job)
		elapsed := p.clock.Since(start)

		job.StepDurations[step.Name()] = elapsed
		metrics.PipelineStepDuration.WithLabelValues(step.Name()).Observe(elapsed.Seconds())

		if err != nil {
			metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}

		slog.Debug("Pipeline step finished", "step", step.Name(), "duration", elapsed, "source", job.Source)
	}

	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	return nil
}
