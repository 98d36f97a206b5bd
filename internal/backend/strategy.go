// Package backend routes a relighting request through the host integration.
//
// Two strategies exist, chosen exactly once at process start from the host's
// declared capabilities: preSampling edits the generation request a single
// time before the sampling loop, perSamplingPass re-applies the edit before
// every pass so multi-pass pipelines (progressive upscaling) see fresh
// conditioning. The choice is immutable for the process lifetime.
package backend

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/relight"
)

// ErrConfigurationUnsupported signals a host feature the active strategy
// cannot satisfy. Fatal to the run.
var ErrConfigurationUnsupported = errors.New("active backend does not support the requested configuration")

// ErrInvalidModeCombination signals a model type requested in a context that
// does not support it. Fatal to the run; never silently remapped.
var ErrInvalidModeCombination = errors.New("model type not supported in this generation context")

// Strategy is one of the two backend integrations. Implementations are
// stateless; all per-run state lives in the Session.
type Strategy interface {
	Name() string

	// SupportsMultiPass reports whether multi-pass (hires) runs work under
	// this strategy.
	SupportsMultiPass() bool

	// BeforeSampling runs once, before the host's sampling loop begins.
	BeforeSampling(rc *host.RunContext, req *args.Request) error

	// BeforeEachPass runs immediately before every sampling pass.
	BeforeEachPass(rc *host.RunContext, req *args.Request) error
}

type preSampling struct{}

func (preSampling) Name() string            { return "pre-sampling" }
func (preSampling) SupportsMultiPass() bool { return false }

func (preSampling) BeforeSampling(rc *host.RunContext, req *args.Request) error {
	if rc.HiresFix {
		return fmt.Errorf("%w: multi-pass high-resolution runs need the per-sampling-pass integration", ErrConfigurationUnsupported)
	}
	return relight.Apply(rc, req)
}

func (preSampling) BeforeEachPass(*host.RunContext, *args.Request) error { return nil }

type perSamplingPass struct{}

func (perSamplingPass) Name() string            { return "per-sampling-pass" }
func (perSamplingPass) SupportsMultiPass() bool { return true }

func (perSamplingPass) BeforeSampling(*host.RunContext, *args.Request) error { return nil }

func (perSamplingPass) BeforeEachPass(rc *host.RunContext, req *args.Request) error {
	return relight.Apply(rc, req)
}

// Select probes for the richer integration first and falls back to the
// simpler one. Called once at process initialization.
func Select(caps host.Capabilities) Strategy {
	var s Strategy = preSampling{}
	if caps.PerSamplingPassHook {
		s = perSamplingPass{}
	}
	log.Info().Str("backend", s.Name()).Msg("Backend strategy selected")
	return s
}
