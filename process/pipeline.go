// Package process implements the segmentation pipeline: an ordered list
// of stateful passes that annotate a ride's samples and classify each
// one as stopped, cruising, or transient.
package process

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Equationzhao/cruising/config"
	"github.com/Equationzhao/cruising/ride"
)

// Processor is one pipeline stage. Stages mutate the ride in place,
// consuming the fields earlier stages produced. Numeric anomalies are
// recovered inside the stage; an error return is reserved for
// structural misuse.
type Processor interface {
	// Name identifies the stage in logs.
	Name() string
	Process(ctx context.Context, logger *slog.Logger, r *ride.Ride, cfg config.Config) error
}

// Pipeline runs processors in order over a single ride.
type Pipeline struct {
	processors []Processor
}

// New builds a pipeline from the given stages.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default returns the standard segmentation pipeline in dependency
// order: unit normalization, power validation, stop detection, motion
// features, cruise classification.
func Default() *Pipeline {
	return New(
		UnitNormalizer{},
		PowerValidator{},
		StopDetector{},
		MotionFeatures{},
		CruiseClassifier{},
	)
}

// Append adds a stage after the existing ones and returns the pipeline
// for chaining.
func (p *Pipeline) Append(proc Processor) *Pipeline {
	p.processors = append(p.processors, proc)
	return p
}

// Run executes every stage in order. The ride is annotated in place.
func (p *Pipeline) Run(ctx context.Context, logger *slog.Logger, r *ride.Ride, cfg config.Config) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := proc.Process(ctx, logger, r, cfg); err != nil {
			return fmt.Errorf("stage %s: %w", proc.Name(), err)
		}
		logger.Debug("pipeline stage complete", "stage", proc.Name(), "samples", r.Len())
	}
	return nil
}
