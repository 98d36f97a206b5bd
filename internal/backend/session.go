package backend

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/detail"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
)

// Dispatcher holds the strategy chosen at process start and hands out
// per-run sessions. It carries no mutable state.
type Dispatcher struct {
	strategy Strategy
}

// NewDispatcher wraps an explicitly chosen strategy (tests inject one
// directly; production code passes Select's result).
func NewDispatcher(s Strategy) *Dispatcher {
	return &Dispatcher{strategy: s}
}

// Strategy returns the active strategy.
func (d *Dispatcher) Strategy() Strategy { return d.strategy }

// NewSession creates the per-run state for one generation run. Sessions are
// exclusively owned by their run and never reused.
func (d *Dispatcher) NewSession() *Session {
	return &Session{strategy: d.strategy}
}

// Session carries one run's relighting state through the lifecycle hooks:
// BeforeProcess, Process, BeforeEverySampling, PostprocessImage, Postprocess.
type Session struct {
	strategy Strategy
	req      *args.Request

	mu       sync.Mutex
	detailed []*image.NRGBA
}

// Request exposes the request built by BeforeProcess; nil before that.
func (s *Session) Request() *args.Request { return s.req }

// Enabled reports whether relighting is active for this run.
func (s *Session) Enabled() bool { return s.req != nil && s.req.Enabled }

// BeforeProcess builds the request from the run's raw UI values and, for
// enabled img2img runs, replaces the initial image with the computed
// lightmap. Runs exactly once per generation run, before any sampling.
//
// A missing foreground degrades to a disabled request (the run proceeds
// without relighting); a schema violation or an FBC request in an img2img
// context fails the run.
func (s *Session) BeforeProcess(rc *host.RunContext) error {
	req, err := args.Build(rc.RawArgs)
	switch {
	case err == nil:
	case errors.Is(err, args.ErrMissingForeground):
		s.req = req
		return nil
	default:
		return fmt.Errorf("failed to build relighting request: %w", err)
	}
	s.req = req

	if !req.Enabled {
		return nil
	}

	if rc.Mode == host.Img2Img && req.ModelType == args.FBC {
		return fmt.Errorf("%w: %s in %s", ErrInvalidModeCombination, req.ModelType, rc.Mode)
	}

	if rc.Mode == host.Img2Img {
		lightmap, err := req.Lightmap(rc.InitImage, rc.Width, rc.Height)
		if err != nil {
			return fmt.Errorf("failed to compute lightmap: %w", err)
		}
		rc.InitImage = lightmap
	}

	log.Debug().
		Stringer("run", rc.ID).
		Stringer("mode", rc.Mode).
		Stringer("model_type", req.ModelType).
		Msg("Relighting request built")

	return nil
}

// Process is the pre-sampling hook point, invoked once before the host's
// sampling loop.
func (s *Session) Process(rc *host.RunContext) error {
	if !s.Enabled() {
		return nil
	}
	return s.strategy.BeforeSampling(rc, s.req)
}

// BeforeEverySampling is the per-pass hook point, invoked immediately before
// each sampling pass the host performs.
func (s *Session) BeforeEverySampling(rc *host.RunContext) error {
	if !s.Enabled() {
		return nil
	}
	return s.strategy.BeforeEachPass(rc, s.req)
}

// PostprocessImage computes a detail-restored variant of the produced image
// at the given generation index. The input is never mutated; the variant is
// stashed for Postprocess, slot-indexed so pairing with primaries survives
// concurrent invocation. A compositing failure is isolated to this image:
// logged, reported, and the run continues without the variant.
func (s *Session) PostprocessImage(rc *host.RunContext, index int, produced *image.NRGBA) error {
	if !s.Enabled() || !s.req.DetailTransfer {
		return nil
	}

	reference := s.req.InputFg
	if !s.req.DetailTransferUseRawInput {
		var err error
		reference, err = s.req.FgRGB()
		if err != nil {
			log.Error().Err(err).Stringer("run", rc.ID).Int("image", index).Msg("Detail restoration skipped")
			return fmt.Errorf("detail restoration failed for image %d: %w", index, err)
		}
	}

	restored, err := detail.RestoreDetail(produced, reference, s.req.DetailTransferBlurRadius)
	if err != nil {
		log.Error().Err(err).Stringer("run", rc.ID).Int("image", index).Msg("Detail restoration skipped")
		return fmt.Errorf("detail restoration failed for image %d: %w", index, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.detailed) <= index {
		s.detailed = append(s.detailed, nil)
	}
	s.detailed[index] = restored
	return nil
}

// Postprocess finalizes the run's output collection: primary images first,
// then detail-restored variants in generation order, then any remaining
// auxiliary images. A disabled run appends nothing.
func (s *Session) Postprocess(rc *host.RunContext, result *host.Result) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	for _, img := range s.detailed {
		if img != nil {
			result.Append(img)
		}
	}
	s.mu.Unlock()

	result.Append(rc.ExtraResultImages...)
}
