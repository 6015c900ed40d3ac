package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/cs-au-dk/invariant/analysis/config"
	"github.com/cs-au-dk/invariant/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	params     = config.Default()
	configFile string
	logger     = config.Discard()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "invariant",
		Short:         "Numerical invariant inference for control flow graphs",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	fs := root.PersistentFlags()
	fs.StringVarP(&configFile, "config", "c", "", "Configuration file (.yaml or .toml)")
	fs.StringVarP(&params.Domain, "domain", "d", params.Domain, "Abstract domain")
	fs.BoolVar(&params.Inter, "inter", params.Inter, "Inter-procedural analysis")
	fs.BoolVar(&params.Backward, "backward", params.Backward, "Refine invariants with a backward pass")
	fs.BoolVar(&params.Liveness, "liveness", params.Liveness, "Forget dead variables at block exits")
	fs.IntVar(&params.RelationalThreshold, "relational-threshold", params.RelationalThreshold,
		"Use a non-relational domain above this many live variables per block")
	fs.IntVar(&params.WideningDelay, "widening-delay", params.WideningDelay, "Joins before widening")
	fs.IntVar(&params.NarrowingIters, "narrowing-iterations", params.NarrowingIters, "Narrowing iterations")
	fs.IntVar(&params.WideningJumpSet, "widening-jumpset", params.WideningJumpSet,
		"Number of program constants used as widening thresholds")
	fs.StringVar(&params.Check, "check", params.Check, "Checker to run (none, assert)")
	fs.BoolVar(&params.CheckVerbose, "check-verbose", params.CheckVerbose, "Print every check")
	fs.BoolVar(&params.PrintInvariants, "print-invariants", params.PrintInvariants, "Print invariants")
	fs.BoolVar(&params.KeepShadowVars, "keep-shadow-vars", params.KeepShadowVars, "Show bookkeeping variables")
	fs.IntVar(&params.MaxCallingContexts, "max-calling-contexts", params.MaxCallingContexts,
		"Maximum calling contexts per procedure (0 is unbounded)")
	fs.BoolVar(&params.ExactSummaryReuse, "exact-summary-reuse", params.ExactSummaryReuse,
		"Only reuse summaries of equal calling contexts")
	fs.BoolVar(&params.AnalyzeRecursiveFunctions, "analyze-recursive", params.AnalyzeRecursiveFunctions,
		"Compute summaries of recursive procedures")
	fs.BoolVar(&params.InterEntryMain, "inter-entry-main", params.InterEntryMain, "Start only from main")
	fs.IntVarP(&params.Jobs, "jobs", "j", params.Jobs, "Procedures analyzed in parallel")
	fs.IntVar(&params.LogLevel, "log-level", params.LogLevel, "Log level (1: errors ... 5: trace)")
	fs.BoolVar(&params.NoColor, "no-color", params.NoColor, "Disable colors")

	root.AddCommand(
		analyzeCmd(),
		pathCmd(),
		dotCmd(),
		domainsCmd(),
		showCmd(),
		statsCmd(),
		watchCmd(),
	)
	return root
}

// setup loads the configuration file, if any. Flags given on the command
// line take precedence over the file.
func setup(cmd *cobra.Command) error {
	if configFile != "" {
		changed := map[string]string{}
		cmd.Flags().Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})

		p, err := config.Load(configFile)
		if err != nil {
			return err
		}
		*params = *p
		for name, val := range changed {
			if err := cmd.Flags().Set(name, val); err != nil {
				return err
			}
		}
	}
	if err := params.Validate(); err != nil {
		return err
	}

	utils.SetColorize(config.ColorEnabled(params, os.Stdout))
	logger = config.NewLogGroup(params)
	if logger.LogsLevel(config.DebugLevel) {
		logger.SetAllFlags(log.Ltime | log.Lmicroseconds)
	}
	return nil
}
