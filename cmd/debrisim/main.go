package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/debrisim/internal/analysis"
	"github.com/san-kum/debrisim/internal/automation"
	"github.com/san-kum/debrisim/internal/config"
	"github.com/san-kum/debrisim/internal/experiment"
	"github.com/san-kum/debrisim/internal/export"
	"github.com/san-kum/debrisim/internal/logging"
	"github.com/san-kum/debrisim/internal/optim"
	"github.com/san-kum/debrisim/internal/storage"
	"github.com/san-kum/debrisim/internal/telemetry"
	"github.com/san-kum/debrisim/internal/viz"
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	dt          float64
	duration    float64
	bodyCount   int
	perturb     float64
	seed        int64
	integrator  string
	workers     int
	label       string
	metricsAddr string
	noHook      bool
	summaryRows int
	bodyName    string
	outputFile  string
	svgSize     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "debrisim",
		Short: "orbital debris simulation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: output_dir from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and record every body's track",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&label, "label", "run", "run label")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	runCmd.Flags().BoolVar(&noHook, "no-hook", false, "skip the post-run hook")
	runCmd.Flags().IntVar(&summaryRows, "rows", 20, "bodies shown in the summary (0 for all)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot <run-id|latest>",
		Short: "plot altitude over time for one body",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&bodyName, "body", "", "body to plot (default: first recorded)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <run-id|latest>",
		Short: "orbital period and deorbit statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&bodyName, "body", "", "body to analyze (default: first recorded)")
	analyzeCmd.Flags().StringVar(&configFile, "config", "", "config the run was made with")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json <run-id|latest>",
		Short: "export run metadata and tracks as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg <run-id|latest>",
		Short: "render the tracks of a run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <run>/tracks.svg)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")

	compareCmd := &cobra.Command{
		Use:   "compare [integrators...]",
		Short: "run one scenario with several integrators",
		RunE:  compareIntegrators,
	}
	addScenarioFlags(compareCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view of a simulation",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario <file>",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep <option> <min> <max> <steps>",
		Short: "sweep one numeric option and tabulate deorbits",
		Args:  cobra.ExactArgs(4),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)

	optimizeCmd := &cobra.Command{
		Use:   "optimize <metric> <option=v1,v2,...>...",
		Short: "grid search options for the lowest metric value",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runOptimize,
	}
	addScenarioFlags(optimizeCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportSVGCmd, compareCmd, presetsCmd, liveCmd, scenarioCmd, sweepCmd, optimizeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "yaml config file")
	cmd.Flags().StringVar(&preset, "preset", "", "scenario preset (see: debrisim presets)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultStepSize, "step size in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration in seconds")
	cmd.Flags().IntVar(&bodyCount, "bodies", 0, "number of sampled particles")
	cmd.Flags().Float64Var(&perturb, "perturbation", 0, "max initial velocity perturbation in m/s")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "verlet", "integrator (verlet, verlet-symmetric, euler)")
	cmd.Flags().IntVar(&workers, "workers", 1, "parallel workers per step")
}

// loadConfig resolves defaults, then the preset, then the config file, then
// any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if _, err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.StepSize = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("bodies") {
		cfg.BodyCount = bodyCount
	}
	if flags.Changed("perturbation") {
		cfg.MaxVelocityPerturbation = perturb
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if dataDir == "" {
		dataDir = cfg.OutputDir
	}
	return cfg, cfg.Validate()
}

func openStore() *storage.Store {
	if dataDir == "" {
		dataDir = config.DefaultConfig().OutputDir
	}
	return storage.New(dataDir)
}

func resolveRun(st *storage.Store, runID string) (string, error) {
	if runID == "latest" {
		return st.Latest()
	}
	return runID, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(os.Stderr, logLevel)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	if noHook {
		exp.DisableHook()
	}
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if metricsAddr != "" {
		collector := telemetry.New(len(exp.Simulator().Bodies()), cfg.SurfaceRadius)
		exp.Simulator().AddObserver(collector)

		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := collector.Serve(srvCtx, metricsAddr, logger); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	fmt.Printf("running %d bodies for %.0fs (dt=%gs, %s)...\n", len(exp.Simulator().Bodies()), cfg.Duration, cfg.StepSize, cfg.Integrator)

	report, err := exp.Run(ctx, storage.New(dataDir), label)
	if report != nil && report.Result != nil {
		fmt.Println(viz.Summary(report.Result, cfg.SurfaceRadius, summaryRows))
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", report.Elapsed)
	fmt.Printf("run id: %s\n", report.RunID)
	if report.HookErr != nil {
		fmt.Fprintf(os.Stderr, "warning: post-run hook failed: %v\n", report.HookErr)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := openStore()
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tBODIES\tDEORBITS\tDURATION\tDT\tINTEG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.0fs\t%gs\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Bodies),
			run.Deorbits,
			run.Duration,
			run.Dt,
			run.Integrator,
		)
	}

	return w.Flush()
}

func loadBodyTrack(st *storage.Store, runID string, meta *storage.RunMetadata) (*storage.Track, error) {
	name := bodyName
	if name == "" {
		if len(meta.Bodies) == 0 {
			return nil, fmt.Errorf("run %s has no bodies", runID)
		}
		name = meta.Bodies[0].Name
	}
	return st.LoadTrack(runID, name)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args[0])
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	tr, err := loadBodyTrack(st, runID, meta)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("body: %s\n", tr.Name)
	fmt.Printf("samples: %d\n\n", tr.Len())

	alt := analysis.Altitudes(tr, meta.SurfaceRadiusOr(config.DefaultSurfaceRadius))
	fmt.Println(viz.Plot(alt, "altitude (km) vs step", 80, 10))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	st := openStore()
	runID, err := resolveRun(st, args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%d bodies, %d steps)\n\n", meta.ID, len(meta.Bodies), meta.Steps)

	tr, err := loadBodyTrack(st, runID, meta)
	if err != nil {
		return err
	}

	fmt.Printf("body: %s\n", tr.Name)
	if tr.Len() > 0 {
		kepler := analysis.KeplerPeriod(cfg.GravitationalConstant, cfg.Reference.Mass, tr, 0)
		fmt.Printf("  kepler period:    %.1fs\n", kepler)
	}
	if period, err := analysis.EstimatePeriod(tr); err != nil {
		fmt.Printf("  measured period:  n/a (%v)\n", err)
	} else {
		fmt.Printf("  measured period:  %.1fs\n", period)
	}

	stats := analysis.Deorbits(meta.Bodies)
	fmt.Println("\ndeorbits:")
	fmt.Printf("  count:    %d / %d (%.1f%%)\n", stats.Deorbits, stats.Bodies, stats.Fraction*100)
	if stats.Deorbits > 0 {
		fmt.Printf("  first:    %.0fs\n", stats.First)
		fmt.Printf("  median:   %.0fs\n", stats.Median)
		fmt.Printf("  mean:     %.0fs (σ %.0fs)\n", stats.Mean, stats.StdDev)
		fmt.Printf("  last:     %.0fs\n", stats.Last)
	}

	if len(meta.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for _, name := range sortedMetricNames(meta.Metrics) {
			fmt.Printf("  %s: %.6g\n", name, meta.Metrics[name])
		}
	}
	return nil
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args[0])
	if err != nil {
		return err
	}

	if outputFile == "" {
		return st.ExportJSON(os.Stdout, runID)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(f, runID); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outputFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := openStore()
	runID, err := resolveRun(st, args[0])
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tracks, err := st.LoadTracks(runID)
	if err != nil {
		return err
	}

	out := outputFile
	if out == "" {
		out = filepath.Join(st.Dir(runID), "tracks.svg")
	}

	svg := export.TracksToSVG(tracks, meta.SurfaceRadiusOr(config.DefaultSurfaceRadius), svgSize)
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", out)
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	integrators := args
	if len(integrators) == 0 {
		integrators = experiment.NewRegistry().ListIntegrators()
	}

	fmt.Printf("comparing integrators (dt=%g, duration=%.0fs, bodies=%d)\n\n", base.StepSize, base.Duration, base.BodyCount+len(base.Bodies)+len(base.TLEs))
	fmt.Printf("%-18s  %-12s  %-10s  %-14s  %-10s\n", "integrator", "energy_drift", "deorbits", "min_alt_km", "time_ms")
	fmt.Println(strings.Repeat("-", 72))

	for _, name := range integrators {
		cfg := base.Clone()
		cfg.Integrator = name

		exp := experiment.New(cfg, nil)
		if err := exp.Setup(); err != nil {
			fmt.Printf("%-18s  error: %v\n", name, err)
			continue
		}

		report, err := exp.Run(context.Background(), nil, name)
		if err != nil {
			fmt.Printf("%-18s  error: %v\n", name, err)
			continue
		}

		res := report.Result
		fmt.Printf("%-18s  %12.3e  %10d  %14.3f  %10.2f\n",
			name,
			metricOrNaN(res.Metrics, "energy_drift"),
			res.Deorbits,
			metricOrNaN(res.Metrics, "min_altitude_km"),
			float64(report.Elapsed.Microseconds())/1000,
		)
	}

	return nil
}

func metricOrNaN(m map[string]float64, name string) float64 {
	if v, ok := m[name]; ok {
		return v
	}
	return math.NaN()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, nil)
	if err := exp.Setup(); err != nil {
		return err
	}

	title := fmt.Sprintf("%d bodies, %s", len(exp.Simulator().Bodies()), cfg.Integrator)
	m, err := viz.NewModel(exp.Simulator(), exp.SimConfig(), cfg.SurfaceRadius, title)
	if err != nil {
		return err
	}

	start := time.Now()
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}

	fmt.Println(viz.Summary(exp.Simulator().Result(), cfg.SurfaceRadius, 10))
	fmt.Printf("wall time: %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(os.Stderr, logLevel)
	if err != nil {
		return err
	}

	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	reports, err := automation.RunScenario(ctx, sc, openStore(), logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tBODIES\tDEORBITS\tSTEPS\tELAPSED")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\n", r.RunID, len(r.Result.Bodies), r.Result.Deorbits, r.Result.Steps, r.Elapsed.Round(time.Millisecond))
		if r.HookErr != nil {
			fmt.Fprintf(os.Stderr, "warning: %s post-run hook failed: %v\n", r.RunID, r.HookErr)
		}
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	lo, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("max: %w", err)
	}
	n, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("steps: %w", err)
	}

	sw := &automation.ParameterSweep{Base: base, ParamName: args[0], ParamMin: lo, ParamMax: hi, NumSteps: n}
	results, err := automation.RunSweep(context.Background(), sw, nil)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tBODIES\tDEORBITS\tFIRST\tENERGY_DRIFT\tMIN_ALT_KM\n", strings.ToUpper(args[0]))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%d\t%.0fs\t%.3e\t%.1f\n", r.ParamValue, r.Bodies, r.Deorbits, r.FirstDeorbit, r.EnergyDrift, r.MinAltitude)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runOptimize(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	metric := args[0]
	names := make([]string, 0, len(args)-1)
	ranges := make([][]float64, 0, len(args)-1)
	for _, arg := range args[1:] {
		name, list, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expected option=v1,v2,... got %q", arg)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	start := time.Now()
	params, best, n, err := g.Search(context.Background(), base, metric)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d points in %v\n", n, time.Since(start).Round(time.Millisecond))
	fmt.Printf("best %s: %.6g\n", metric, best)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, params[name])
	}
	return nil
}
