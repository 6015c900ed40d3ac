package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ai "github.com/cs-au-dk/invariant/analysis/absint"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/analysis/registry"
	"github.com/cs-au-dk/invariant/analysis/results"
	"github.com/cs-au-dk/invariant/utils"

	"github.com/pkg/errors"
)

// pipeline is a wrapper around the analysis pipeline.
type pipeline struct {
	params *config.Params
	log    *config.LogGroup
	reg    *registry.Registry
	cfgs   []*cfg.Cfg
}

// load parses the procedures of file.
func load(file string) (*pipeline, error) {
	start := time.Now()
	cfgs, err := cfg.ParseFile(file)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Loaded %d procedures from %s in %s", len(cfgs), file, time.Since(start))
	return &pipeline{
		params: params,
		log:    logger,
		reg:    registry.Default(),
		cfgs:   cfgs,
	}, nil
}

// proc finds a procedure by name. The only procedure of a file may be
// used without naming it.
func (p *pipeline) proc(name string) (*cfg.Cfg, error) {
	if name == "" && len(p.cfgs) == 1 {
		return p.cfgs[0], nil
	}
	for _, g := range p.cfgs {
		if g.Name() == name {
			return g, nil
		}
	}
	names := make([]string, len(p.cfgs))
	for i, g := range p.cfgs {
		names[i] = g.Name()
	}
	return nil, fmt.Errorf("no procedure %q, expected one of %s", name, strings.Join(names, ", "))
}

// analyze runs the analysis selected by the parameters over every
// procedure.
func (p *pipeline) analyze(ctx context.Context) (*results.Store, error) {
	if p.params.Inter {
		return ai.InterGlobal(p.cfgs, p.params, p.reg, p.log)
	}
	return ai.IntraGlobal(ctx, p.cfgs, p.params, p.reg, p.log)
}

// report prints the results requested by the parameters.
func (p *pipeline) report(w io.Writer, store *results.Store) error {
	if p.params.PrintInvariants {
		if err := store.Write(w, p.params.KeepShadowVars); err != nil {
			return err
		}
	}
	if p.params.RunChecks() {
		return store.Checks().Write(w, p.params.CheckVerbose)
	}
	return nil
}

// encodingOf chooses the snapshot encoding from the extension of file:
// .yaml and .yml give yaml, anything else msgpack.
func encodingOf(file string) results.Encoding {
	switch filepath.Ext(file) {
	case ".yaml", ".yml":
		return results.YAML
	}
	return results.Msgpack
}

// export writes a snapshot of store.
func (p *pipeline) export(store *results.Store, file string) error {
	f, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "creating snapshot %s", file)
	}
	defer f.Close()

	if err := store.Snapshot(p.params.KeepShadowVars).Encode(f, encodingOf(file)); err != nil {
		return errors.Wrapf(err, "writing snapshot %s", file)
	}
	p.log.Infof("Snapshot written to %s", file)
	return nil
}

// run is a full analysis of file.
func run(ctx context.Context, w io.Writer, file, snapshot string) error {
	defer utils.TimeTrack(time.Now(), "Analysis of "+file, logger.Debugf)

	p, err := load(file)
	if err != nil {
		return err
	}
	store, err := p.analyze(ctx)
	if err != nil {
		return err
	}
	if err := p.report(w, store); err != nil {
		return err
	}
	if snapshot != "" {
		return p.export(store, snapshot)
	}
	return nil
}
