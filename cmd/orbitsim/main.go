package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/automation"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/gui"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logFile    string
	// Overrides of the config file
	speed     float64
	fps       float64
	step      float64
	softening float64
	// Headless runs
	frames  int
	unpaced bool
	// Benchmarks
	benchBodies []int
	benchSteps  int
	// Stability studies
	mcTrials   int
	mcPerturb  float64
	mcDuration float64
	mcEscape   float64
	mcSeed     int64
	mcWorkers  int
	scenario   string
	// SVG export
	svgOut    string
	svgWidth  int
	svgHeight int

	logger = zap.NewNop()
)

// main registers the commands and flags and executes the root command. It
// exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "orbitsim",
		Short: "real-time gravitational n-body simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel, logFile)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")
	pf.Float64Var(&speed, "speed", config.DefaultSpeed, "simulation speed, within [0, 20]")
	pf.Float64Var(&fps, "fps", sim.DefaultTargetFPS, "target frames per second")
	pf.Float64Var(&step, "step", sim.DefaultStep, "integration step in seconds")
	pf.Float64Var(&softening, "softening", physics.DefaultSoftening, "minimum distance used for gravity, in meters")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}

	guiCmd := &cobra.Command{
		Use:   "gui [preset]",
		Short: "run simulation in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a headless simulation and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&frames, "frames", 500, "number of frames to record")
	runCmd.Flags().BoolVar(&unpaced, "unpaced", false, "skip frame pacing and run as fast as possible")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run states to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw run trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tBODIES")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%d\n", name, len(config.GetPreset(name)))
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the physics kernel",
		Args:  cobra.NoArgs,
		RunE:  benchKernel,
	}
	benchCmd.Flags().IntSliceVar(&benchBodies, "bodies", []int{2, 3, 10, 50, 100}, "body counts to benchmark")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 1000, "steps per body count")

	stabilityCmd := &cobra.Command{
		Use:   "stability [preset]",
		Short: "run perturbed copies of a preset and count survivors",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStability,
	}
	sf := stabilityCmd.Flags()
	sf.IntVar(&mcTrials, "trials", 20, "number of trials")
	sf.Float64Var(&mcPerturb, "perturb", 5, "largest position offset per axis, in meters")
	sf.Float64Var(&mcDuration, "duration", 10, "simulated seconds per trial")
	sf.Float64Var(&mcEscape, "escape", 0, "escape radius in meters (0 picks ten times the initial extent)")
	sf.Int64Var(&mcSeed, "seed", 0, "random seed (0 uses the clock)")
	sf.IntVar(&mcWorkers, "workers", runtime.NumCPU(), "parallel trials")
	sf.StringVar(&scenario, "scenario", "", "run every study in this yaml scenario instead")

	rootCmd.AddCommand(liveCmd, guiCmd, runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd, stabilityCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the scenario from the config file, the preset argument
// and any flags set explicitly, in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		if config.GetPreset(args[0]) == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		cfg.Preset = args[0]
		cfg.Bodies = nil
	}

	flags := cmd.Flags()
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("fps") {
		cfg.TargetFPS = fps
	}
	if flags.Changed("step") {
		cfg.Step = step
	}
	if flags.Changed("softening") {
		cfg.Softening = softening
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDriver(cfg *config.Config, log *zap.Logger, opts ...sim.Option) *sim.Driver {
	opts = append([]sim.Option{sim.WithKernel(cfg.Kernel()), sim.WithLogger(log)}, opts...)
	return sim.New(cfg.Driver(), opts...)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// the terminal belongs to the live view
	log := logger
	if logFile == "" {
		log = zap.NewNop()
	}

	driver := newDriver(cfg, log)
	session := sim.Start(cmd.Context(), driver)
	defer session.Close()

	p := tea.NewProgram(viz.NewModel(session, cfg), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil && !errors.Is(m.Err(), sim.ErrDisconnected) {
		return m.Err()
	}

	stats := driver.Stats()
	log.Info("live session ended",
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("steps", stats.Steps),
		zap.Uint64("overruns", stats.Overruns))
	return nil
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	driver := newDriver(cfg, logger)
	session := sim.Start(cmd.Context(), driver)
	defer session.Close()

	if err := gui.Run(cmd.Context(), session, cfg); err != nil && !errors.Is(err, sim.ErrDisconnected) {
		return err
	}

	stats := driver.Stats()
	logger.Info("gui session ended",
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("steps", stats.Steps),
		zap.Uint64("overruns", stats.Overruns))
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", frames)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var opts []sim.Option
	if unpaced {
		opts = append(opts, sim.WithClock(unpacedClock{}))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "running %s simulation...\n", cfg.Preset)
	start := time.Now()

	res, err := record(cmd.Context(), cfg, frames, st, logger, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "run id: %s\n", res.Meta.ID)
	fmt.Fprintf(out, "frames: %d\n", res.Meta.Frames)
	fmt.Fprintf(out, "simulated: %.3fs\n", res.Meta.Simulated)
	fmt.Fprintf(out, "steps: %d\n", res.Stats.Steps)
	fmt.Fprintln(out, "\nmetrics:")
	for _, name := range res.Metrics.Names() {
		fmt.Fprintf(out, "  %s: %.6g\n", name, res.Meta.Metrics[name])
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tBODIES\tFRAMES\tSIMULATED\tSPEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2fs\t%.1f\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Frames,
			run.Simulated,
			run.Speed,
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

	states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if len(states) < 2 {
		return fmt.Errorf("not enough data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "preset: %s\n", meta.Preset)
	fmt.Fprintf(out, "samples: %d\n\n", len(states))

	k := meta.Kernel()
	total := make([]float64, len(states))
	kinetic := make([]float64, len(states))
	for i, s := range states {
		e := k.Energies(s.Bodies)
		total[i] = e.Total()
		kinetic[i] = e.Kinetic
	}

	for _, p := range []struct {
		caption string
		data    []float64
	}{
		{"total energy (J) vs frame", total},
		{"kinetic energy (J) vs frame", kinetic},
	} {
		graph := asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}

	// frames are evenly spaced in simulated time while the speed is fixed
	dt := (states[len(states)-1].Elapsed - states[0].Elapsed).Seconds() / float64(len(states)-1)
	xs := make([]float64, 0, len(states))
	for _, s := range states {
		if s.Len() == 0 {
			break
		}
		xs = append(xs, s.Bodies[0].Position.X)
	}
	if period := analysis.DominantPeriod(xs, dt); period > 0 {
		fmt.Fprintf(out, "dominant period of body 0: %.3f s\n", period)
	}

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	states, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(cmd.OutOrStdout(), states)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(cmd.OutOrStdout(), *meta, states)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := export.TrajectoriesSVG(w, states, meta.Colors, svgWidth, svgHeight); err != nil {
		return err
	}
	if svgOut != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", svgOut)
	}
	return nil
}

func benchKernel(cmd *cobra.Command, args []string) error {
	k := physics.DefaultKernel()

	fmt.Fprintf(cmd.OutOrStdout(), "benchmarking kernel, %d steps of %gs\n\n", benchSteps, sim.DefaultStep)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tSTEPS\tTIME\tSTEPS/SEC\tMAX STEPS/TICK")

	for _, n := range benchBodies {
		if n <= 0 {
			continue
		}
		s := ring(n)

		start := time.Now()
		k.AdvanceN(s, sim.DefaultStep, benchSteps)
		elapsed := time.Since(start)

		stepsPerSec := float64(benchSteps) / elapsed.Seconds()
		// steps that still fit in one tick at the default frame rate
		perTick := stepsPerSec / sim.DefaultTargetFPS

		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.0f\n",
			n, benchSteps, elapsed, stepsPerSec, perTick)
	}

	return w.Flush()
}

// lyapunovPerturbation is the initial offset, in meters, of the shadow
// trajectory.
const lyapunovPerturbation = 1e-6

func runStability(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	runner := automation.NewRunner(cfg.Kernel(), cfg.Step, logger)

	sc := &automation.Scenario{
		Name: cfg.Preset,
		Steps: []automation.MonteCarloConfig{{
			Preset:       cfg.Preset,
			Perturbation: mcPerturb,
			Trials:       mcTrials,
			Duration:     mcDuration,
			Escape:       mcEscape,
			Seed:         mcSeed,
			Workers:      mcWorkers,
		}},
	}
	if scenario != "" {
		if sc, err = automation.LoadScenario(scenario); err != nil {
			return err
		}
	}

	results, err := runner.RunScenario(cmd.Context(), sc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTRIAL\tSTABLE\tENERGY DRIFT\tMIN SEPARATION")
	for i, study := range results {
		for _, r := range study {
			fmt.Fprintf(w, "%s\t%d\t%v\t%.3e\t%.2f\n",
				sc.Steps[i].Preset, r.TrialID, r.Stable,
				r.Metrics["energy_drift"], r.Metrics["min_separation"])
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for i, study := range results {
		stable, unstable := automation.MonteCarloStats(study)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %d stable, %d unstable\n", sc.Steps[i].Preset, stable, unstable)
	}

	if scenario == "" {
		lambda := analysis.LyapunovExponent(cfg.Kernel(), cfg.InitialState(), cfg.Step, mcDuration, lyapunovPerturbation)
		fmt.Fprintf(cmd.OutOrStdout(), "largest lyapunov exponent: %.4f 1/s\n", lambda)
	}
	return nil
}

// ring places n equal bodies evenly on a circle.
func ring(n int) physics.State {
	cfg := config.BodyConfig{Mass: 1e16}
	bodies := make([]physics.Body, n)
	for i := range bodies {
		a := 2 * math.Pi * float64(i) / float64(n)
		cfg.X, cfg.Y = 300*math.Cos(a), 300*math.Sin(a)
		bodies[i] = cfg.Body()
	}
	return physics.State{Bodies: bodies}
}
