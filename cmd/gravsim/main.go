package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/automation"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/optim"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	preset     string

	dt          float64
	duration    float64
	theta       float64
	bodies      int
	seed        int64
	integrator  string
	field       string
	unitSystem  string
	sampleEvery int
	parallel    bool
	strict      bool
	skipEnergy  bool

	svgPath    string
	frameSteps int

	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	sweepDrift bool

	orbitIDs     []int
	perturbation float64
	renorm       float64

	benchSizes []int
	benchReps  int

	exportFormat string

	tuneThetas  []float64
	tuneDts     []float64
	tuneMetric  string
	batchNoSave bool
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(16)
	valStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gravsim",
		Short:         "barnes-hut gravity simulator",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), logLevel, logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a simulation and store its diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final particle positions as svg")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameSteps, "steps-per-frame", 1, "integrator ticks per frame")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "measure force error and cost against theta",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "smallest theta")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.5, "largest theta")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of theta values")
	sweepCmd.Flags().BoolVar(&sweepDrift, "drift", false, "also integrate each theta and report energy drift")

	orbitCmd := &cobra.Command{
		Use:   "orbit [scenario]",
		Short: "trace the xy trajectories of selected particles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOrbit,
	}
	addSimFlags(orbitCmd)
	orbitCmd.Flags().IntSliceVar(&orbitIDs, "ids", []int{0, 1}, "particle ids to trace")
	orbitCmd.Flags().StringVar(&svgPath, "svg", "", "write the trajectories as svg")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [scenario]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLyapunov,
	}
	addSimFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturb", 1e-8, "initial position offset of particle 0")
	lyapunovCmd.Flags().Float64Var(&renorm, "renorm", 1e-4, "separation that triggers renormalization")

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "time barnes-hut against direct summation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBench,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{64, 256, 1024}, "particle counts")
	benchCmd.Flags().IntVar(&benchReps, "reps", 5, "evaluations per size")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, csv)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Fprintf(out, "no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "list scenarios, force fields and integrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := experiment.NewRegistry()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scenarios:   %s\n", strings.Join(r.ListScenarios(), ", "))
			fmt.Fprintf(out, "fields:      %s\n", strings.Join(r.ListFields(), ", "))
			fmt.Fprintf(out, "integrators: %s\n", strings.Join(r.ListIntegrators(), ", "))
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, nil)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	addSimFlags(configCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search theta and dt for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&tuneThetas, "thetas", []float64{0.3, 0.7, 1.0, 1.5}, "opening angles to try")
	tuneCmd.Flags().Float64SliceVar(&tuneDts, "dts", nil, "timesteps to try (default: the configured dt)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy_drift", "metric to minimize")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run a yaml batch of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&batchNoSave, "no-save", false, "do not store results")

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, orbitCmd, lyapunovCmd, benchCmd, tuneCmd, batchCmd,
		listCmd, plotCmd, exportCmd, presetsCmd, catalogCmd, configCmd)
	return rootCmd
}

func addSimFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", def.Dt, "timestep")
	f.Float64Var(&duration, "time", def.Duration, "duration")
	f.Float64Var(&theta, "theta", def.Gravity.Theta, "opening angle")
	f.IntVar(&bodies, "bodies", def.Bodies, "number of particles")
	f.Int64Var(&seed, "seed", def.Seed, "random seed")
	f.StringVar(&integrator, "integrator", def.Integrator, "integrator")
	f.StringVar(&field, "field", def.Field, "force field")
	f.StringVar(&unitSystem, "units", def.Units, "unit system (natural, si)")
	f.IntVar(&sampleEvery, "sample-every", def.SampleEvery, "ticks between diagnostics samples")
	f.BoolVar(&parallel, "parallel", def.Gravity.Parallel, "evaluate forces concurrently")
	f.BoolVar(&strict, "strict", def.StrictBounds, "abort when a particle leaves the root cube")
	f.BoolVar(&skipEnergy, "skip-energy", def.SkipEnergy, "skip the O(n²) energy sums in samples and metrics")
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

// resolveConfig layers the preset, then the config file, then any flag
// set on the command line over the defaults.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("theta") {
		cfg.Gravity.Theta = theta
	}
	if flags.Changed("bodies") {
		cfg.Bodies = bodies
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("field") {
		cfg.Field = field
	}
	if flags.Changed("units") {
		cfg.Units = unitSystem
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if flags.Changed("parallel") {
		cfg.Gravity.Parallel = parallel
	}
	if flags.Changed("strict") {
		cfg.StrictBounds = strict
	}
	if flags.Changed("skip-energy") {
		cfg.SkipEnergy = skipEnergy
	}
	return cfg, nil
}

func setupExperiment(cmd *cobra.Command, args []string) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg)
	if err := exp.Setup(slog.Default()); err != nil {
		return nil, err
	}
	return exp, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func row(w io.Writer, key, value string) {
	fmt.Fprintln(w, keyStyle.Render(key)+valStyle.Render(value))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	cfg := exp.Config()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	slog.Info("running simulation", "scenario", cfg.Scenario, "particles", exp.Initial().Len(),
		"field", cfg.Field, "integrator", cfg.Integrator, "theta", cfg.Gravity.Theta)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(strings.ToUpper(cfg.Scenario)))
	row(out, "run id", runID)
	row(out, "elapsed", elapsed.Round(time.Millisecond).String())
	row(out, "particles", strconv.Itoa(result.Final.Len()))
	row(out, "ticks", strconv.Itoa(result.Ticks))
	row(out, "energy drift", fmt.Sprintf("%.3e", result.EnergyDrift))
	if result.OutOfBounds > 0 {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("particles left the root cube on %d ticks", result.OutOfBounds)))
	}
	fmt.Fprintln(out, "\nmetrics:")
	for _, name := range sortedNames(result.Metrics) {
		fmt.Fprintf(out, "  %s: %.6g\n", name, result.Metrics[name])
	}

	if svgPath != "" {
		svg := export.SnapshotToSVG(result.Final, cfg.HalfExtent(), 600)
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		slog.Info("wrote snapshot", "path", svgPath)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	cfg := exp.Config()
	// bubbletea owns the terminal.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	exp.Simulator().SetLogger(slog.Default())
	return tui.Run(exp.Simulator(), exp.Initial(), tui.Options{
		Title:         cfg.Scenario,
		Dt:            cfg.Dt,
		HalfExtent:    cfg.HalfExtent(),
		StepsPerFrame: frameSteps,
	})
}

func runSweep(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	thetas := analysis.ThetaRange(sweepMin, sweepMax, sweepSteps)
	points, err := analysis.ThetaSweep(exp.Initial(), exp.Params(), thetas)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "theta sweep: %s, %d particles\n\n", exp.Config().Scenario, exp.Initial().Len())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THETA\tMEAN ERR\tMAX ERR\tMOMENTUM\tINTERACTIONS\tNODES\tTIME")
	errs := make([]float64, len(points))
	for i, p := range points {
		errs[i] = p.MeanRelError
		fmt.Fprintf(w, "%.3f\t%.3e\t%.3e\t%.3e\t%d\t%d\t%v\n",
			p.Theta, p.MeanRelError, p.MaxRelError, p.MomentumResidual, p.Interactions, p.Nodes, p.Elapsed)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(errs) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(errs, asciigraph.Height(10), asciigraph.Width(60),
			asciigraph.Caption("mean relative force error vs theta")))
	}

	if !sweepDrift {
		return nil
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()
	drift, err := analysis.DriftSweep(ctx, exp.NewSimulator, exp.Initial(), exp.Params(), thetas, exp.SimConfig())
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THETA\tENERGY DRIFT\tMOMENTUM DRIFT\tOUT OF BOUNDS")
	for _, p := range drift {
		fmt.Fprintf(w, "%.3f\t%.3e\t%.3e\t%d\n", p.Theta, p.EnergyDrift, p.MomentumDrift, p.OutOfBounds)
	}
	return w.Flush()
}

func runOrbit(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	s, err := exp.NewSimulator(exp.Params())
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	orbit, err := analysis.TraceOrbits(ctx, s, exp.Initial().Clone(), orbitIDs, exp.SimConfig())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), analysis.OrbitToASCII(orbit, 70, 24))

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.OrbitToSVG(orbit, 600, 600)), 0644); err != nil {
			return err
		}
		slog.Info("wrote orbit", "path", svgPath)
	}
	return nil
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	exp, err := setupExperiment(cmd, args)
	if err != nil {
		return err
	}
	a, err := exp.NewSimulator(exp.Params())
	if err != nil {
		return err
	}
	b, err := exp.NewSimulator(exp.Params())
	if err != nil {
		return err
	}
	cfg := exp.Config()
	lambda, err := analysis.LyapunovExponent(a, b, exp.Initial(), cfg.Dt, cfg.Duration, perturbation, renorm)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	row(out, "scenario", cfg.Scenario)
	row(out, "lyapunov", fmt.Sprintf("%.6g", lambda))
	if lambda > 0 {
		row(out, "e-folding time", fmt.Sprintf("%.4g", 1/lambda))
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	opts, err := cfg.ScenarioOptions()
	if err != nil {
		return err
	}
	if benchReps < 1 {
		benchReps = 1
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "benchmarking %s, theta %.2f\n\n", cfg.Scenario, params.Theta)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tBARNES-HUT\tDIRECT\tSPEEDUP\tINTERACTIONS\tDEPTH")
	for _, n := range benchSizes {
		opts.N = n
		ps, err := scenario.Generate(cfg.Scenario, opts)
		if err != nil {
			return err
		}
		bh := gravity.NewBarnesHut(params)
		direct := gravity.NewDirect(params)

		start := time.Now()
		for i := 0; i < benchReps; i++ {
			if err := bh.Accelerations(ps); err != nil {
				slog.Warn("barnes-hut rejected particles", "n", n, "err", err)
			}
		}
		bhTime := time.Since(start) / time.Duration(benchReps)

		start = time.Now()
		for i := 0; i < benchReps; i++ {
			if err := direct.Accelerations(ps); err != nil {
				return err
			}
		}
		directTime := time.Since(start) / time.Duration(benchReps)

		st := bh.Stats()
		fmt.Fprintf(w, "%d\t%v\t%v\t%.1fx\t%d\t%d\n", ps.Len(), bhTime, directTime,
			float64(directTime)/float64(max(bhTime, 1)), st.Interactions, st.Tree.Depth)
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	dts := tuneDts
	if len(dts) == 0 {
		dts = []float64{cfg.Dt}
	}
	g, err := optim.NewGridSearch([]string{"theta", "dt"}, [][]float64{tuneThetas, dts})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	best, trials, err := g.Search(ctx, cfg, tuneMetric)

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "THETA\tDT\t%s\tTIME\n", strings.ToUpper(tuneMetric))
	for _, t := range trials {
		value := fmt.Sprintf("%.3e", t.Value)
		if t.Err != nil {
			value = "error: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%.3f\t%g\t%s\t%v\n", t.Params["theta"], t.Params["dt"], value, t.Elapsed.Round(time.Millisecond))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	row(out, "best theta", fmt.Sprintf("%g", best.Params["theta"]))
	row(out, "best dt", fmt.Sprintf("%g", best.Params["dt"]))
	row(out, tuneMetric, fmt.Sprintf("%.3e", best.Value))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	var st *storage.Store
	if !batchNoSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	results, err := automation.Run(ctx, b, st, slog.Default())

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCENARIO\tTICKS\tDRIFT\tOOB\tRUN ID")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3e\t%d\t%s\n", r.Name, r.Config.Scenario, r.Result.Ticks,
			r.Result.EnergyDrift, r.Result.OutOfBounds, r.RunID)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tPARTICLES\tTICKS\tFIELD\tINTEG\tDRIFT\tOOB")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%.2e\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Ticks,
			run.Config.Field,
			run.Config.Integrator,
			run.EnergyDrift,
			run.OutOfBounds,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadDiagnostics(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "scenario: %s\n", meta.Scenario)
	fmt.Fprintf(out, "samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(i int) float64
	}{
		{"total energy", func(i int) float64 { return samples[i].Energy }},
		{"momentum |p|", func(i int) float64 { return samples[i].Momentum.Len() }},
		{"interactions per tick", func(i int) float64 { return float64(samples[i].Stats.Interactions) }},
	}
	for _, s := range series {
		data := make([]float64, len(samples))
		for i := range samples {
			data[i] = s.value(i)
		}
		fmt.Fprintln(out, asciigraph.Plot(data, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(s.caption)))
		fmt.Fprintln(out)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	out := cmd.OutOrStdout()
	switch exportFormat {
	case "json":
		return st.ExportJSON(out, runID)
	case "csv":
		samples, err := st.LoadDiagnostics(runID)
		if err != nil {
			return err
		}
		w := csv.NewWriter(out)
		if err := w.Write([]string{"tick", "time", "energy", "momentum", "nodes", "interactions", "rejected"}); err != nil {
			return err
		}
		for _, s := range samples {
			rec := []string{
				strconv.Itoa(s.Tick),
				strconv.FormatFloat(s.Time, 'g', -1, 64),
				strconv.FormatFloat(s.Energy, 'g', -1, 64),
				strconv.FormatFloat(s.Momentum.Len(), 'g', -1, 64),
				strconv.Itoa(s.Stats.Tree.Nodes),
				strconv.Itoa(s.Stats.Interactions),
				strconv.Itoa(s.Stats.Tree.Rejected),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	default:
		return fmt.Errorf("unknown export format: %s", exportFormat)
	}
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
