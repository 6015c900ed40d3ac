package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ai "github.com/cs-au-dk/invariant/analysis/absint"
	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/registry"
	"github.com/cs-au-dk/invariant/analysis/results"
	"github.com/cs-au-dk/invariant/utils"
	"github.com/cs-au-dk/invariant/utils/dot"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Infer invariants of every procedure in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), args[0], snapshot)
		},
	}
	cmd.Flags().StringVarP(&snapshot, "snapshot", "o", "", "Write a result snapshot (.msgpack or .yaml)")
	return cmd
}

func pathCmd() *cobra.Command {
	var (
		proc    string
		path    []string
		layered bool
	)
	cmd := &cobra.Command{
		Use:   "path FILE",
		Short: "Decide whether a path through a procedure is feasible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load(args[0])
			if err != nil {
				return err
			}
			g, err := p.proc(proc)
			if err != nil {
				return err
			}
			s, err := ai.NewIntra(g, p.params, p.reg, p.log, nil)
			if err != nil {
				return err
			}

			labels := make([]cfg.Label, len(path))
			for i, l := range path {
				labels[i] = cfg.Label(strings.TrimSpace(l))
			}
			feasible, err := s.PathAnalyze(labels, layered, true)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if feasible {
				fmt.Fprintln(w, utils.Colorizer(color.FgGreen)("feasible"))
			} else {
				fmt.Fprintln(w, utils.Colorizer(color.FgRed)("infeasible"))
				for _, st := range s.UnsatCore() {
					fmt.Fprintf(w, "  %s\n", st)
				}
			}
			if p.params.PrintInvariants {
				return s.Results().Write(w, p.params.KeepShadowVars)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&proc, "proc", "p", "", "Procedure")
	cmd.Flags().StringSliceVar(&path, "path", nil, "Comma separated blocks of the path")
	cmd.Flags().BoolVar(&layered, "layered", true, "Try a cheap approximation of the path first")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func dotCmd() *cobra.Command {
	var (
		proc     string
		out      string
		annotate bool
	)
	cmd := &cobra.Command{
		Use:   "dot FILE",
		Short: "Draw the control flow graph of a procedure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load(args[0])
			if err != nil {
				return err
			}
			g, err := p.proc(proc)
			if err != nil {
				return err
			}

			var ann func(*cfg.Block) string
			if annotate {
				s, err := ai.NewIntra(g, p.params, p.reg, p.log, nil)
				if err != nil {
					return err
				}
				if err := s.Analyze("", ai.Assumptions{}); err != nil {
					return err
				}
				ann = func(b *cfg.Block) string {
					if v, ok := s.Pre(b.Label()); ok {
						return v.String()
					}
					return ""
				}
			}

			var buf bytes.Buffer
			if err := cfg.ToDot(g, ann).WriteDot(&buf); err != nil {
				return err
			}
			if out == "" {
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			format := strings.TrimPrefix(filepath.Ext(out), ".")
			if format == "" {
				format = "svg"
			}
			return dot.Render(buf.Bytes(), format, out)
		},
	}
	cmd.Flags().StringVarP(&proc, "proc", "p", "", "Procedure")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Render to this file (format from the extension)")
	cmd.Flags().BoolVar(&annotate, "annotate", false, "Annotate blocks with their invariants")
	return cmd
}

func domainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List the available abstract domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, id := range registry.Default().IDs() {
				line := id.String()
				if id.IsRelational() {
					line += fmt.Sprintf(" (relational, falls back to %s)", id.Fallback())
				}
				if id == mustTag(params.Domain) {
					line = utils.Colorizer(color.Bold)(line)
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show SNAPSHOT",
		Short: "Print a result snapshot written by analyze",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "opening snapshot %s", args[0])
			}
			defer f.Close()

			snap, err := results.DecodeSnapshot(f, encodingOf(args[0]))
			if err != nil {
				return err
			}
			return snap.Encode(cmd.OutOrStdout(), results.YAML)
		},
	}
}

func mustTag(name string) absval.Tag {
	tag, _ := absval.ParseTag(name)
	return tag
}

func watchCmd() *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Analyze FILE again whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := filepath.Clean(args[0])
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()
			// Editors often replace files, so the directory is watched.
			if err := w.Add(filepath.Dir(file)); err != nil {
				return err
			}

			ctx, out := cmd.Context(), cmd.OutOrStdout()
			analyze := func() {
				if err := run(ctx, out, file, snapshot); err != nil {
					logger.Errorf("%v", err)
				}
			}
			analyze()

			for {
				select {
				case ev, ok := <-w.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(ev.Name) != file || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
						continue
					}
					logger.Infof("%s changed", file)
					analyze()
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					logger.Warnf("Watching %s: %v", file, err)
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVarP(&snapshot, "snapshot", "o", "", "Write a result snapshot after every analysis")
	return cmd
}
