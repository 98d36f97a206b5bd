// Package models discovers IC-Light checkpoint files on disk and maps each
// model type to a usable weight path. Loading the weights themselves is the
// host's job.
package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
)

// Registry maps model types to discovered checkpoint paths.
type Registry struct {
	paths map[args.ModelType]string
}

// Detect scans dir (non-recursively) for IC-Light checkpoints. A file
// classifies as FBC when its lowercased name contains "fbc", as FC when it
// contains "fc". When several candidates match, the alphabetically first
// wins, which keeps detection deterministic across runs.
func Detect(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read model directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".safetensors" && ext != ".ckpt" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	reg := &Registry{paths: make(map[args.ModelType]string)}
	for _, name := range names {
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "fbc"):
			if _, ok := reg.paths[args.FBC]; !ok {
				reg.paths[args.FBC] = filepath.Join(dir, name)
			}
		case strings.Contains(lower, "fc"):
			if _, ok := reg.paths[args.FC]; !ok {
				reg.paths[args.FC] = filepath.Join(dir, name)
			}
		}
	}

	log.Debug().
		Str("dir", dir).
		Int("checkpoints", len(names)).
		Int("classified", len(reg.paths)).
		Msg("Model detection complete")

	return reg, nil
}

// Path returns the checkpoint path for a model type.
func (r *Registry) Path(mt args.ModelType) (string, error) {
	p, ok := r.paths[mt]
	if !ok {
		return "", fmt.Errorf("no %s checkpoint detected", mt)
	}
	return p, nil
}

// Available lists the detected model types in a stable order.
func (r *Registry) Available() []args.ModelType {
	var out []args.ModelType
	for _, mt := range []args.ModelType{args.FC, args.FBC} {
		if _, ok := r.paths[mt]; ok {
			out = append(out, mt)
		}
	}
	return out
}
