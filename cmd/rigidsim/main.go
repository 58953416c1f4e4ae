package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/store"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/san-kum/rigidsim/internal/world"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	steps      int
	bodies     int
	seed       int64
	minIsland  int
	gravityY   float64
	verbose    bool
	save       bool
	// Live view pacing.
	frameRate    int
	stepsPerTick int
	// Bench repetitions.
	benchRuns int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidsim",
		Short: "rigid body island and sleep management sandbox",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene headless and print a summary",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene with the live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  liveScene,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frames per second")
	liveCmd.Flags().IntVar(&stepsPerTick, "steps-per-frame", 1, "simulation steps per frame")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark a scene over repeated runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", 5, "number of repetitions")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().IntVar(&bodies, "bodies", config.DefaultBodies, "number of dynamic bodies")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().IntVar(&minIsland, "min-island", config.DefaultMinIslandSize, "minimum island size")
	cmd.Flags().Float64Var(&gravityY, "gravity", config.DefaultGravityY, "vertical gravity")
}

// resolveConfig merges the configuration sources: file or preset
// first, then the explicitly set flags on top.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	scene := ""
	if len(args) > 0 {
		scene = args[0]
	}

	cfg := config.DefaultConfig()
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "" && scene != "":
		if p := config.GetPreset(scene, preset); p != nil {
			cfg = p
		} else {
			return nil, fmt.Errorf("unknown preset %q for scene %q", preset, scene)
		}
	}
	if scene != "" {
		cfg.Scene = scene
	}

	if cmd.Flags().Changed("dt") {
		cfg.World.Dt = dt
	}
	if cmd.Flags().Changed("gravity") {
		cfg.World.GravityY = gravityY
	}
	if cmd.Flags().Changed("steps") {
		cfg.Run.Steps = steps
	}
	if cmd.Flags().Changed("bodies") {
		cfg.Run.Bodies = bodies
	}
	if cmd.Flags().Changed("seed") || cfg.Run.Seed == 0 {
		cfg.Run.Seed = seed
	}
	if cmd.Flags().Changed("min-island") {
		cfg.Islands.MinSize = minIsland
	}
	return cfg, nil
}

func buildWorld(cfg *config.Config, log *zap.Logger) (*world.World, error) {
	w, err := world.BuildScene(cfg.Scene, cfg.WorldConfig(), cfg.Run.Bodies, cfg.Run.Seed)
	if err != nil {
		return nil, err
	}
	w.SetLogger(log)
	return w, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	w, err := buildWorld(cfg, log)
	if err != nil {
		return err
	}
	w.AddMetric(metrics.NewIslandCount())
	w.AddMetric(metrics.NewActiveBodies())
	w.AddMetric(metrics.NewSleepEvents())

	start := time.Now()
	result, err := w.Run(context.Background(), cfg.Run.Steps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	log.Info("run complete",
		zap.String("scene", cfg.Scene),
		zap.Int("steps", result.StepsTaken),
		zap.Duration("elapsed", elapsed),
	)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "scene\t%s\n", cfg.Scene)
	fmt.Fprintf(tw, "steps\t%d\n", result.StepsTaken)
	fmt.Fprintf(tw, "wall time\t%s\n", elapsed)
	final := result.Stats[len(result.Stats)-1]
	fmt.Fprintf(tw, "final active\t%d\n", final.ActiveBodies)
	fmt.Fprintf(tw, "final sleeping\t%d\n", final.SleepingBodies)
	fmt.Fprintf(tw, "final islands\t%d\n", final.Islands)
	for name, value := range result.Metrics {
		fmt.Fprintf(tw, "%s\t%.3f\n", name, value)
	}
	tw.Flush()

	if save {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Scene, cfg.WorldConfig(), cfg.Run.Seed, cfg.Run.Bodies, result)
		if err != nil {
			return err
		}
		fmt.Printf("saved as %s\n", runID)
	}
	return nil
}

func liveScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	w, err := buildWorld(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	return viz.Run(w, cfg.Scene, frameRate, stepsPerTick)
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	stepTimes := make([]float64, 0, benchRuns*cfg.Run.Steps)
	islandCounts := make([]float64, 0, benchRuns*cfg.Run.Steps)
	wallTimes := make([]float64, 0, benchRuns)

	for i := 0; i < benchRuns; i++ {
		w, err := buildWorld(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		start := time.Now()
		result, err := w.Run(context.Background(), cfg.Run.Steps)
		if err != nil {
			return err
		}
		wallTimes = append(wallTimes, time.Since(start).Seconds())
		for _, st := range result.Stats {
			stepTimes = append(stepTimes, float64(st.Duration.Microseconds()))
			islandCounts = append(islandCounts, float64(st.Islands))
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "scene\t%s\n", cfg.Scene)
	fmt.Fprintf(tw, "runs\t%d × %d steps\n", benchRuns, cfg.Run.Steps)
	fmt.Fprintf(tw, "step time\t%.1fµs ± %.1fµs\n", stat.Mean(stepTimes, nil), stat.StdDev(stepTimes, nil))
	fmt.Fprintf(tw, "islands\t%.2f ± %.2f\n", stat.Mean(islandCounts, nil), stat.StdDev(islandCounts, nil))
	fmt.Fprintf(tw, "wall time\t%.3fs mean\n", stat.Mean(wallTimes, nil))
	return tw.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCENE\tSTEPS\tBODIES\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Scene, r.Steps, r.Bodies, r.Timestamp.Format(time.RFC3339))
	}
	return tw.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.LoadMetadata(args[0])
	if err != nil {
		return err
	}
	stepRecords, err := st.LoadSteps(args[0])
	if err != nil {
		return err
	}

	out := struct {
		Metadata store.RunMetadata   `json:"metadata"`
		Steps    []*store.StepRecord `json:"steps"`
	}{Metadata: meta, Steps: stepRecords}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
