// Package pipeline drives one generation run through the backend lifecycle
// hooks in the order the host would: request build, pre-sampling mutation,
// per-pass mutation, sampling, per-image postprocessing, aggregation.
package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/backend"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
)

// Pipeline binds the immutable dispatcher to a sampler. One Pipeline serves
// many runs; each run gets its own session and context.
type Pipeline struct {
	dispatcher *backend.Dispatcher
	sampler    host.Sampler
}

// New builds a run driver around the process-wide dispatcher.
func New(d *backend.Dispatcher, s host.Sampler) *Pipeline {
	return &Pipeline{dispatcher: d, sampler: s}
}

// Run executes a single generation run to completion. Structural failures
// (unsupported configuration, invalid mode combination, schema violations)
// abort the run; per-image postprocessing failures are isolated inside the
// session and only logged here.
func (p *Pipeline) Run(ctx context.Context, rc *host.RunContext) (*host.Result, error) {
	sess := p.dispatcher.NewSession()

	if err := sess.BeforeProcess(rc); err != nil {
		return nil, err
	}
	if err := sess.Process(rc); err != nil {
		return nil, err
	}

	passes := 1
	if rc.HiresFix {
		passes = 2
	}

	produced := make([]*image.NRGBA, 0, passes)
	for pass := 0; pass < passes; pass++ {
		if err := sess.BeforeEverySampling(rc); err != nil {
			return nil, err
		}
		img, err := p.sampler.Sample(ctx, rc, pass)
		if err != nil {
			return nil, fmt.Errorf("sampling pass %d failed: %w", pass, err)
		}
		produced = append(produced, img)
	}

	// Detail restoration is pure per-image work over disjoint buffers.
	g := new(errgroup.Group)
	for i, img := range produced {
		i, img := i, img
		g.Go(func() error {
			if err := sess.PostprocessImage(rc, i, img); err != nil {
				// Isolated per image: the primary is still emitted.
				log.Warn().Err(err).Stringer("run", rc.ID).Msg("Postprocessing incomplete for one image")
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &host.Result{}
	result.Append(produced...)
	sess.Postprocess(rc, result)

	log.Info().
		Stringer("run", rc.ID).
		Int("primary_images", len(produced)).
		Int("total_images", len(result.Images)).
		Msg("Run complete")

	return result, nil
}
