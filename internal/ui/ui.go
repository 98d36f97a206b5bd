// Package ui computes the relighting panel's state from typed events.
//
// The panel itself is rendered by the host's component library; this package
// only owns the state transitions. Events come in, a pure reducer returns the
// next state, and nothing here holds component references or other shared
// mutable context. Choice sets are restricted per generation context up
// front, so mode combinations the pipeline rejects are never offered.
package ui

import (
	"fmt"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
)

// State is the complete render state of the relighting panel.
type State struct {
	Context host.Mode

	ModelTypeChoices []args.ModelType
	ModelType        args.ModelType

	BgSourceFCChoices []args.BGSourceFC
	BgSourceFC        args.BGSourceFC
	BgSourceFBC       args.BGSourceFBC

	// Visibility flags for context-dependent controls.
	ShowUploadedBg  bool
	ShowBgSourceFBC bool
	ShowBgSourceFC  bool
	ShowReinforceFg bool

	Description string

	// InitImagePreview, when non-nil after a BackgroundSourceChanged event,
	// is the synthesized backdrop the host should load into its img2img
	// image slot.
	InitImagePreview *previewRequest
}

type previewRequest struct {
	Source args.BGSourceFC
	Width  int
	Height int
}

// Event is a typed UI event consumed by Reduce.
type Event interface{ isEvent() }

// ModelTypeChanged fires when the mode dropdown changes (txt2img only).
type ModelTypeChanged struct{ ModelType args.ModelType }

// BackgroundSourceChanged fires when the FC background source radio changes.
type BackgroundSourceChanged struct{ Source args.BGSourceFC }

// InitImageUploaded fires when the user drops their own image into the
// img2img slot; the source switches to Custom LightMap so the upload is used
// as-is.
type InitImageUploaded struct{}

func (ModelTypeChanged) isEvent()        {}
func (BackgroundSourceChanged) isEvent() {}
func (InitImageUploaded) isEvent()       {}

// Initial returns the panel state for a generation context. Img2img offers
// FC only (FBC weights cannot condition an img2img run) with the directional
// and custom sources; txt2img offers both model types with no FC source.
func Initial(ctx host.Mode) State {
	if ctx == host.Img2Img {
		choices := make([]args.BGSourceFC, 0, 6)
		for _, p := range args.FCPresets() {
			if p != args.BGSourceFCNone {
				choices = append(choices, p)
			}
		}
		return State{
			Context:           ctx,
			ModelTypeChoices:  []args.ModelType{args.FC},
			ModelType:         args.FC,
			BgSourceFCChoices: choices,
			BgSourceFC:        args.BGSourceFCCustom,
			BgSourceFBC:       args.BGSourceFBCUpload,
			ShowBgSourceFC:    true,
			ShowReinforceFg:   true,
			Description:       DescImg2ImgFC,
		}
	}
	return State{
		Context:           ctx,
		ModelTypeChoices:  []args.ModelType{args.FC, args.FBC},
		ModelType:         args.FC,
		BgSourceFCChoices: []args.BGSourceFC{args.BGSourceFCNone},
		BgSourceFC:        args.BGSourceFCNone,
		BgSourceFBC:       args.BGSourceFBCUpload,
		Description:       DescTxt2ImgFC,
	}
}

// Reduce returns the next panel state for an event. It is pure: the input
// state is never mutated. Events that would put the panel into a combination
// the pipeline rejects return an error instead of a new state.
func Reduce(s State, e Event) (State, error) {
	next := s
	next.InitImagePreview = nil

	switch ev := e.(type) {
	case ModelTypeChanged:
		if !contains(s.ModelTypeChoices, ev.ModelType) {
			return s, fmt.Errorf("model type %s not offered in %s", ev.ModelType, s.Context)
		}
		next.ModelType = ev.ModelType
		switch ev.ModelType {
		case args.FBC:
			next.ShowUploadedBg = true
			next.ShowBgSourceFBC = true
			next.Description = DescTxt2ImgFBC
		default:
			next.ShowUploadedBg = false
			next.ShowBgSourceFBC = false
			next.Description = DescTxt2ImgFC
		}
		return next, nil

	case BackgroundSourceChanged:
		if !contains(s.BgSourceFCChoices, ev.Source) {
			return s, fmt.Errorf("background source %q not offered in %s", ev.Source, s.Context)
		}
		next.BgSourceFC = ev.Source
		if s.Context == host.Img2Img && ev.Source.Synthesizable() {
			// Default preview size matches the host's stock canvas.
			next.InitImagePreview = &previewRequest{Source: ev.Source, Width: 512, Height: 512}
		}
		return next, nil

	case InitImageUploaded:
		if s.Context != host.Img2Img {
			return s, nil
		}
		next.BgSourceFC = args.BGSourceFCCustom
		return next, nil

	default:
		return s, fmt.Errorf("unknown event %T", e)
	}
}

func contains[T comparable](xs []T, v T) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
