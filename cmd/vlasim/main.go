package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/vlasim/internal/analysis"
	"github.com/san-kum/vlasim/internal/config"
	"github.com/san-kum/vlasim/internal/diagnostics"
	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/experiment"
	"github.com/san-kum/vlasim/internal/optim"
	"github.com/san-kum/vlasim/internal/sim"
	"github.com/san-kum/vlasim/internal/storage"
	"github.com/san-kum/vlasim/internal/tui"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	integrator string
	dt         float64
	duration   float64
	nx         int
	nn         int
	nu         float64
	adaptive   bool
	tolerance  float64
	saveEvery  int
	noSave     bool

	frameRate int
	output    string
	maxDev    float64
	derives   int
	sweeps    []string
	metric    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vlasim",
		Short: "hermite-fourier vlasov-maxwell solver",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".vlasim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run simulation with live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	liveCmd.Flags().IntVar(&frameRate, "fps", 15, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy history of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and energy history as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "field energy frequency, damping rate and hermite spectrum",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "benchmark the right-hand side across hermite resolutions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	addRunFlags(benchCmd)
	benchCmd.Flags().IntVar(&derives, "derives", 20, "derivative evaluations per resolution")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "compare a run against the analytic free-streaming solution",
		Args:  cobra.NoArgs,
		RunE:  validateRun,
	}
	addRunFlags(validateCmd)
	validateCmd.Flags().Float64Var(&maxDev, "max-dev", 1e-2, "largest accepted relative deviation")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "grid search over run parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParams,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweeps, "param", nil, "swept values, e.g. nn=4,8,16 (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "energy_drift", "metric to minimize")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd, benchCmd, validateCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or json)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, rk45)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&nx, "nx", 16, "fourier modes along x")
	cmd.Flags().IntVar(&nn, "nn", 12, "hermite modes along vx")
	cmd.Flags().Float64Var(&nu, "nu", 0, "hypercollision rate")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size")
	cmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "adaptive error tolerance")
	cmd.Flags().IntVar(&saveEvery, "save-every", config.DefaultSaveEvery, "steps between saved snapshots")
}

// buildConfig layers defaults, preset, config file and changed flags, in
// that order.
func buildConfig(cmd *cobra.Command, args []string, fallback string) (*config.Config, error) {
	scenario := fallback
	if len(args) > 0 {
		scenario = args[0]
	}

	cfg := config.DefaultConfig()
	cfg.Scenario = scenario

	if preset != "" {
		p := config.GetPreset(scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Scenario = scenario
		}
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("nx") {
		cfg.Nx = nx
	}
	if flags.Changed("nn") {
		cfg.Nn = nn
	}
	if flags.Changed("nu") {
		cfg.Nu = nu
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("save-every") {
		cfg.SaveEvery = saveEvery
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args, "density_perturbation")
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logrus.StandardLogger())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s simulation...\n", cfg.Scenario)
	start := time.Now()

	outcome, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	return report(cfg, outcome)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args, "density_perturbation")
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)

	exp, err := experiment.New(cfg, experiment.NewRegistry(), quiet)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	outcome, err := tui.RunLive(ctx, exp, frameRate)
	if errors.Is(err, dynamo.ErrContextCanceled) {
		fmt.Println("stopped")
		return nil
	}
	if err != nil {
		return err
	}
	return report(cfg, outcome)
}

func report(cfg *config.Config, outcome *experiment.Outcome) error {
	result := outcome.Result
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}
	if sim.Failed(result) {
		fmt.Println("run stopped early; saved states end at the last stable step")
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result, outcome.Series)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("snapshots: %d\n", len(result.States))
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
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
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if len(run.Errors) > 0 {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4g\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
			status,
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

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series))

	plots := []struct {
		caption string
		field   func(diagnostics.Sample) float64
	}{
		{"total energy", func(s diagnostics.Sample) float64 { return s.Total }},
		{"plasma energy", func(s diagnostics.Sample) float64 { return s.Plasma }},
		{"electromagnetic energy", func(s diagnostics.Sample) float64 { return s.EM }},
		{"|div B|²", func(s diagnostics.Sample) float64 { return s.DivB }},
	}
	for _, p := range plots {
		graph := asciigraph.Plot(diagnostics.Column(series, p.field),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	for _, group := range []struct {
		caption  string
		channels []int
	}{
		{"electric field rms", []int{0, 1, 2}},
		{"magnetic field rms", []int{3, 4, 5}},
	} {
		legends := make([]string, len(group.channels))
		for i, c := range group.channels {
			legends[i] = diagnostics.FieldNames[c]
		}
		fmt.Println(asciigraph.PlotMany(rmsColumns(series, group.channels...),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
			asciigraph.SeriesLegends(legends...),
			asciigraph.Caption(group.caption),
		))
		fmt.Println()
	}

	return nil
}

func rmsColumns(series []diagnostics.Sample, channels ...int) [][]float64 {
	out := make([][]float64, len(channels))
	for i, c := range channels {
		out[i] = diagnostics.Column(series, func(s diagnostics.Sample) float64 { return s.FieldRMS[c] })
	}
	return out
}

// logSpectrum is log10 of a Hermite spectrum, floored so empty orders stay
// on the chart.
func logSpectrum(spec []float64) []float64 {
	out := make([]float64, len(spec))
	for i, v := range spec {
		out[i] = math.Log10(math.Max(v, 1e-30))
	}
	return out
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}

	if output == "" {
		return storage.ExportJSON(os.Stdout, data)
	}

	file, err := os.Create(output)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := storage.ExportJSON(file, data); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], output)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to analyze")
	}

	times := diagnostics.Column(series, func(s diagnostics.Sample) float64 { return s.Time })
	em := diagnostics.Column(series, func(s diagnostics.Sample) float64 { return s.EM })

	fmt.Printf("field energy analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	if dtSample, err := analysis.SampleSpacing(times); err == nil && len(em) >= 4 {
		ps := analysis.PowerSpectrum(em)
		fmt.Println(asciigraph.Plot(ps,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("field energy spectrum (bin = %.3g)", 1/(float64(len(em))*dtSample))),
		))
		fmt.Println()
	}

	if first, last := series[0].Hermite, series[len(series)-1].Hermite; len(first) > 0 && len(last) == len(first) {
		fmt.Println(asciigraph.PlotMany([][]float64{logSpectrum(first), logSpectrum(last)},
			asciigraph.Height(10),
			asciigraph.Width(max(len(first), 40)),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
			asciigraph.SeriesLegends(fmt.Sprintf("t=%.3g", series[0].Time), fmt.Sprintf("t=%.3g", series[len(series)-1].Time)),
			asciigraph.Caption("electron hermite spectrum, log10 <|C_n|²> over n"),
		))
		fmt.Println()
		fmt.Printf("upper-half hermite fraction: %.3g -> %.3g\n", tailFraction(first), tailFraction(last))
	}

	freq, _, err := analysis.DominantFrequency(times, em)
	if err != nil {
		fmt.Printf("frequency: unavailable (%v)\n", err)
	} else {
		// Field energy oscillates at twice the wave frequency.
		fmt.Printf("dominant energy frequency: %.4g\n", freq)
		fmt.Printf("wave angular frequency: %.4g\n", math.Pi*freq)
	}

	rate, _, err := analysis.GrowthRate(times, em)
	if err != nil {
		fmt.Printf("growth rate: unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("field amplitude growth rate: %.4g\n", rate/2)
	return nil
}

// tailFraction is the share of a Hermite spectrum held by its upper half
// of orders. Growth over a run signals filamentation.
func tailFraction(spec []float64) float64 {
	var total, tail float64
	for n, v := range spec {
		total += v
		if n >= len(spec)/2 {
			tail += v
		}
	}
	if total == 0 {
		return 0
	}
	return tail / total
}

func listPresets(cmd *cobra.Command, args []string) error {
	scenarios := experiment.NewRegistry().ListScenarios()
	if len(args) > 0 {
		scenarios = args[:1]
	}

	for _, s := range scenarios {
		presets := config.ListPresets(s)
		if len(presets) == 0 {
			fmt.Printf("no presets for scenario: %s\n", s)
			continue
		}
		fmt.Printf("presets for %s:\n", s)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func benchScenario(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args, "density_perturbation")
	if err != nil {
		return err
	}

	quiet := logrus.New()
	quiet.SetLevel(logrus.WarnLevel)
	registry := experiment.NewRegistry()
	ctx := context.Background()

	fmt.Printf("benchmarking %s (%dx%dx%d grid, %s)\n\n", base.Scenario, base.Nx, base.Ny, base.Nz, base.Integrator)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NN\tSTATE DIM\tPROJECT\tDERIVE\tDERIVES/SEC\tSTEPS/SEC")

	for _, n := range []int{4, 8, 16, 32} {
		cfg := base.Clone()
		cfg.Nn = n

		exp, err := experiment.New(cfg, registry, quiet)
		if err != nil {
			return err
		}

		start := time.Now()
		if err := exp.Setup(ctx); err != nil {
			return err
		}
		project := time.Since(start)

		sys := exp.System()
		y := exp.InitialState()
		start = time.Now()
		for i := 0; i < derives; i++ {
			sys.Derive(y, 0)
		}
		per := time.Since(start) / time.Duration(max(derives, 1))

		steps := 0
		stepCfg := dynamo.Config{Dt: cfg.Dt, Duration: float64(max(derives, 1)) * cfg.Dt}
		start = time.Now()
		err = sim.New(sys, exp.Integrator()).RunWithCallback(ctx, y, stepCfg, func(dynamo.State, float64) bool {
			steps++
			return true
		})
		if err != nil {
			return err
		}
		stepRate := float64(steps) / time.Since(start).Seconds()

		fmt.Fprintf(w, "%d\t%d\t%v\t%v\t%.1f\t%.1f\n",
			n, sys.StateDim(), project.Round(time.Microsecond), per.Round(time.Microsecond), 1/per.Seconds(), stepRate)
	}

	return w.Flush()
}

func validateRun(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("preset") && configFile == "" {
		preset = "free_streaming"
	}
	cfg, err := buildConfig(cmd, args, "density_perturbation")
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logrus.StandardLogger())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	outcome, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	devs, err := exp.CompareExact(outcome)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMAX REL DEV")
	worst := 0.0
	for _, d := range devs {
		worst = math.Max(worst, d.MaxRel)
		fmt.Fprintf(w, "%.4f\t%.3e\n", d.Time, d.MaxRel)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if worst > maxDev {
		return fmt.Errorf("deviation %.3e exceeds %.3e", worst, maxDev)
	}
	fmt.Printf("\n%s: ok (max deviation %.3e)\n", strings.ReplaceAll(cfg.Scenario, "_", " "), worst)
	return nil
}

func parseSweeps(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", spec)
		}
		var vals []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, strings.ToLower(strings.TrimSpace(name)))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func sweepParams(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args, "density_perturbation")
	if err != nil {
		return err
	}
	if len(sweeps) == 0 {
		return fmt.Errorf("no --param given (available: %v)", optim.ParamNames())
	}
	names, ranges, err := parseSweeps(sweeps)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	quiet := logrus.New()
	quiet.SetLevel(logrus.WarnLevel)
	registry := experiment.NewRegistry()
	run := func(ctx context.Context, cfg *config.Config) (map[string]float64, error) {
		exp, err := experiment.New(cfg, registry, quiet)
		if err != nil {
			return nil, err
		}
		outcome, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}
		if len(outcome.Result.Errors) > 0 {
			return nil, outcome.Result.Errors[0]
		}
		logrus.WithFields(logrus.Fields{"metric": metric, "value": outcome.Result.Metrics[metric]}).Info("trial finished")
		return outcome.Result.Metrics, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, trials, err := gs.Search(ctx, base, run, metric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := append([]string(nil), names...)
	sort.Strings(header)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(header, "\t"))+"\t"+strings.ToUpper(metric))
	for _, tr := range trials {
		row := make([]string, 0, len(header)+1)
		for _, name := range header {
			row = append(row, strconv.FormatFloat(tr.Values[name], 'g', -1, 64))
		}
		if tr.Err != nil {
			row = append(row, "error: "+tr.Err.Error())
		} else {
			row = append(row, fmt.Sprintf("%.4e", tr.Metrics[metric]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.4e at %v\n", metric, best.Metrics[metric], best.Values)
	return nil
}
