package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	density "solution-density"
	"solution-density/internal/config"
	"solution-density/internal/logging"
	"solution-density/internal/metrics"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	configPath  string
	strategy    string
	logLevel    string
	output      string
	dumpMetrics bool

	cfg     config.Config
	logger  *logrus.Logger
	metrics *metrics.Recorder
	fitter  *density.Fitter
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "density",
		Short: "Density of aqueous NaCl and sucrose solutions",
		Long: `density fits reference density tables of sodium chloride and sucrose
solutions to quadratic models and evaluates them for a given composition.
Coefficients are refitted on every invocation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.dumpMetrics || a.metrics == nil {
				return nil
			}
			return a.metrics.WriteText(cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	flags.StringVar(&a.strategy, "strategy", "", "fit strategy: qr, normal or nelder-mead")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&a.output, "output", "o", "", "output format: text or json")
	flags.BoolVar(&a.dumpMetrics, "metrics", false, "print Prometheus metrics to stderr when done")

	cmd.AddCommand(
		newFitCmd(a),
		newEvalCmd(a),
		newGridCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// setup loads the configuration, applies flag overrides and builds the
// logger, metrics recorder and fitter.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.strategy != "" {
		cfg.Strategy = a.strategy
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.output != "" {
		cfg.Output = a.output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger.SetOutput(cmd.ErrOrStderr())

	strategy, err := cfg.FitStrategy()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.metrics = metrics.New()
	a.fitter = density.NewFitter(density.WithStrategy(strategy), density.WithLogger(logger))
	return nil
}

// fit runs the configured fitter for s and records it. A fit that stopped
// before converging is still returned; the fitter has already logged it.
func (a *app) fit(s density.Solute) (density.FitResult, error) {
	start := time.Now()
	res, err := a.fitter.Fit(s)

	outcome := metrics.OutcomeOK
	var nonConv *density.NonConvergenceError
	switch {
	case errors.As(err, &nonConv):
		outcome = metrics.OutcomeNonConvergence
		err = nil
	case err != nil:
		outcome = metrics.OutcomeError
	}
	a.metrics.ObserveFit(s.String(), a.fitter.Strategy().Name(), outcome, time.Since(start), res.MaxResidual, res.Evaluations)
	return res, err
}

func parseSoluteArg(args []string) (density.Solute, error) {
	if len(args) == 0 {
		return 0, errors.New("missing solute (nacl or sucrose)")
	}
	return density.ParseSolute(args[0])
}
