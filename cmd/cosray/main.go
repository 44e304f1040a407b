package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/mlindner/cosray/internal/config"
	"github.com/mlindner/cosray/internal/core"
	"github.com/mlindner/cosray/internal/fields"
	"github.com/mlindner/cosray/internal/interaction"
	"github.com/mlindner/cosray/internal/metrics"
	"github.com/mlindner/cosray/internal/pipeline"
	"github.com/mlindner/cosray/internal/propagation"
	"github.com/mlindner/cosray/internal/rng"
	"github.com/mlindner/cosray/internal/storage"
	"github.com/mlindner/cosray/internal/viz"
)

var (
	dataDir    string
	logFile    string
	verbose    bool
	configFile string

	// source flags
	massNumber   int
	chargeNumber int
	energyEeV    float64
	redshift     float64

	// field flags
	bFieldNano  float64
	turbulent   bool
	windSpeed   float64
	shockRadius float64
	photonField string

	// propagation flags
	tolerance  float64
	minStepKpc float64
	maxStepMpc float64

	// interaction flags
	tablesDir     string
	haveElectrons bool
	havePhotons   bool
	limit         float64

	// run flags
	candidates  int
	workers     int
	seed        int64
	minEnergy   float64
	maxDistance float64

	exportPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cosray",
		Short: "Monte Carlo propagation of high-energy particles through magnetic and photon fields",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cosray", "run data directory")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "JSON log file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate candidates and store the run",
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&candidates, "candidates", 100, "number of primary candidates")
	runCmd.Flags().IntVar(&workers, "workers", 4, "worker goroutines")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot final primary energies of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportPath, "out", "", "output path (default <run_id>.json)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "propagate a single candidate with live visualization",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVarP(&massNumber, "mass-number", "A", 1, "source mass number")
	cmd.Flags().IntVarP(&chargeNumber, "charge-number", "Z", 1, "source charge number")
	cmd.Flags().Float64Var(&energyEeV, "energy", 10, "source energy [EeV]")
	cmd.Flags().Float64Var(&redshift, "redshift", 0, "source redshift")
	cmd.Flags().Float64Var(&bFieldNano, "bfield", 1, "magnetic field strength [nG]")
	cmd.Flags().BoolVar(&turbulent, "turbulent", false, "turbulent cell field instead of uniform")
	cmd.Flags().Float64Var(&windSpeed, "wind", 0, "radial advection wind speed [m/s]")
	cmd.Flags().Float64Var(&shockRadius, "shock-radius", 0, "shock radius for field attenuation [Mpc]")
	cmd.Flags().StringVar(&photonField, "photon-field", "CMB", "photon background name")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "integrator error tolerance")
	cmd.Flags().Float64Var(&minStepKpc, "min-step", 0.1, "minimum step [kpc]")
	cmd.Flags().Float64Var(&maxStepMpc, "max-step", 1, "maximum step [Mpc]")
	cmd.Flags().StringVar(&tablesDir, "tables", "data", "interaction table directory")
	cmd.Flags().BoolVar(&haveElectrons, "electrons", false, "produce secondary electron pairs")
	cmd.Flags().BoolVar(&havePhotons, "photons", false, "produce disintegration photons")
	cmd.Flags().Float64Var(&limit, "limit", config.DefaultLimit, "step limit as a fraction of the mean free path")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Float64Var(&minEnergy, "min-energy", 0.1, "deactivation energy [EeV]")
	cmd.Flags().Float64Var(&maxDistance, "max-distance", 1000, "maximum trajectory length [Mpc]")
}

// loadConfig builds the effective configuration from defaults, an optional
// config file and the command line (flags override the file).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	override := func(name string, apply func()) {
		if configFile == "" || cmd.Flags().Changed(name) {
			apply()
		}
	}
	override("mass-number", func() { cfg.Source.MassNumber = massNumber })
	override("charge-number", func() { cfg.Source.ChargeNumber = chargeNumber })
	override("energy", func() { cfg.Source.Energy = energyEeV * core.EeV / core.ElectronVolt })
	override("redshift", func() { cfg.Source.Redshift = redshift })
	override("bfield", func() { cfg.Fields.Strength = bFieldNano })
	override("turbulent", func() { cfg.Fields.Turbulent = turbulent })
	override("wind", func() { cfg.Fields.WindSpeed = windSpeed })
	override("shock-radius", func() { cfg.Fields.ShockRadius = shockRadius })
	override("photon-field", func() { cfg.Fields.PhotonField = photonField })
	override("tolerance", func() { cfg.Propagation.Tolerance = tolerance })
	override("min-step", func() { cfg.Propagation.MinStep = minStepKpc })
	override("max-step", func() { cfg.Propagation.MaxStep = maxStepMpc })
	override("tables", func() { cfg.Interactions.DataDir = tablesDir })
	override("electrons", func() { cfg.Interactions.HaveElectrons = haveElectrons })
	override("photons", func() { cfg.Interactions.HavePhotons = havePhotons })
	override("limit", func() { cfg.Interactions.Limit = limit })
	override("seed", func() { cfg.Run.Seed = seed })
	override("min-energy", func() { cfg.Run.MinEnergy = minEnergy * core.EeV / core.ElectronVolt })
	override("max-distance", func() { cfg.Run.MaxTrajectory = maxDistance })
	if cmd.Flags().Changed("candidates") {
		cfg.Run.Candidates = candidates
	}
	if cmd.Flags().Changed("workers") {
		cfg.Run.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func photonFieldFor(cfg *config.Config) fields.PhotonField {
	if cfg.Fields.PhotonField == "CMB" {
		return fields.CMB{}
	}
	// generic background: tables keyed by name, no spatial extent
	return fields.NewScaledPhotonField(cfg.Fields.PhotonField, 0, 0, 0)
}

// buildModules assembles the per-step module list for one worker stream.
func buildModules(cfg *config.Config, random *rng.Random, logger *slog.Logger) ([]core.Module, error) {
	var magField fields.MagneticField
	strength := cfg.Fields.Strength * core.NanoGauss
	if cfg.Fields.Turbulent {
		magField = fields.NewTurbulentCellField(strength, cfg.Fields.CellSize*core.Megaparsec, cfg.Run.Seed)
	} else {
		magField = fields.NewUniformMagneticField(core.Vector3{Z: strength})
	}

	var wind fields.AdvectionField
	if cfg.Fields.WindSpeed > 0 {
		wind = fields.NewRadialWind(cfg.Fields.WindSpeed)
	}

	prop, err := propagation.New(magField, wind,
		cfg.Propagation.Tolerance,
		cfg.Propagation.MinStep*core.Kiloparsec,
		cfg.Propagation.MaxStep*core.Megaparsec,
		cfg.Fields.ShockRadius*core.Megaparsec)
	if err != nil {
		return nil, err
	}
	modules := []core.Module{prop}

	background := photonFieldFor(cfg)
	if cfg.Interactions.PairProduction {
		epp, err := interaction.NewElectronPairProduction(background,
			cfg.Interactions.DataDir, cfg.Interactions.HaveElectrons,
			cfg.Interactions.Limit, random, logger)
		if err != nil {
			return nil, err
		}
		modules = append(modules, epp)
	}
	if cfg.Interactions.Photodisintegration {
		pd, err := interaction.NewPhotoDisintegration(background,
			cfg.Interactions.DataDir, cfg.Interactions.HavePhotons,
			cfg.Interactions.Limit, random, logger)
		if err != nil {
			return nil, err
		}
		modules = append(modules, pd)
	}

	modules = append(modules,
		pipeline.NewMinimumEnergy(cfg.Run.MinEnergy*core.ElectronVolt),
		pipeline.NewMaximumTrajectoryLength(cfg.Run.MaxTrajectory*core.Megaparsec))
	return modules, nil
}

func sourceCandidate(cfg *config.Config) (*core.Candidate, error) {
	id, err := cfg.SourceID()
	if err != nil {
		return nil, err
	}
	pos := core.Vector3{
		X: cfg.Source.Position[0] * core.Megaparsec,
		Y: cfg.Source.Position[1] * core.Megaparsec,
		Z: cfg.Source.Position[2] * core.Megaparsec,
	}
	dir := core.Vector3{
		X: cfg.Source.Direction[0],
		Y: cfg.Source.Direction[1],
		Z: cfg.Source.Direction[2],
	}
	c := core.NewCandidate(id, cfg.Source.Energy*core.ElectronVolt, pos, dir)
	c.Redshift = cfg.Source.Redshift
	return c, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger, cleanup := config.SetupLogger(logFile, level)
	defer cleanup()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	factory := func(random *rng.Random) (*pipeline.Pipeline, error) {
		modules, err := buildModules(cfg, random, logger)
		if err != nil {
			return nil, err
		}
		p := pipeline.New(modules...)
		p.SetMaxSteps(cfg.Run.MaxSteps)
		return p, nil
	}
	source := func(i int, random *rng.Random) *core.Candidate {
		c, _ := sourceCandidate(cfg)
		return c
	}

	// fail early on bad source configuration
	if _, err := sourceCandidate(cfg); err != nil {
		return err
	}

	logger.Info("starting run",
		"candidates", cfg.Run.Candidates,
		"workers", cfg.Run.Workers,
		"seed", cfg.Run.Seed,
		"photon_field", cfg.Fields.PhotonField)

	start := time.Now()
	ensemble := pipeline.NewEnsemble(factory, source, cfg.Run.Workers, cfg.Run.Seed)
	results, err := ensemble.Run(context.Background(), cfg.Run.Candidates)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	counts := metrics.CountByTag(results)
	meanEnergy := 0.0
	for _, c := range results {
		meanEnergy += c.Current.Energy
	}
	meanEnergy /= float64(len(results))

	meta := storage.RunMetadata{
		Seed:        cfg.Run.Seed,
		Candidates:  cfg.Run.Candidates,
		Source:      fmt.Sprintf("A=%d Z=%d E=%.3g EeV", cfg.Source.MassNumber, cfg.Source.ChargeNumber, cfg.Source.Energy*core.ElectronVolt/core.EeV),
		PhotonField: cfg.Fields.PhotonField,
		Metrics: map[string]float64{
			"mean_final_energy_EeV": meanEnergy / core.EeV,
		},
	}
	for tag, n := range counts {
		meta.Metrics["secondaries_"+tag] = float64(n)
	}

	runID, err := st.Save(meta, results)
	if err != nil {
		return err
	}

	logger.Info("run finished", "run_id", runID, "elapsed", elapsed)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", runID)
	fmt.Fprintf(w, "candidates\t%d\n", cfg.Run.Candidates)
	fmt.Fprintf(w, "mean final energy\t%.4g EeV\n", meanEnergy/core.EeV)
	for tag, n := range counts {
		fmt.Fprintf(w, "secondaries %s\t%d\n", tag, n)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSOURCE\tFIELD\tCANDIDATES")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			r.ID, r.Timestamp.Format(time.RFC3339), r.Source, r.PhotonField, r.Candidates)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadCandidates(args[0])
	if err != nil {
		return err
	}

	series := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Tag != "primary" {
			continue
		}
		series = append(series, r.Energy*core.ElectronVolt/core.EeV)
	}
	if len(series) == 0 {
		return fmt.Errorf("run %s has no primary candidates", args[0])
	}

	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("final primary energy [EeV]")))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	out := exportPath
	if out == "" {
		out = args[0] + ".json"
	}
	if err := st.ExportJSON(args[0], out); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], out)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, cleanup := config.SetupLogger(logFile, slog.LevelWarn)
	defer cleanup()

	random := rng.New(cfg.Run.Seed)
	modules, err := buildModules(cfg, random, logger)
	if err != nil {
		return err
	}
	c, err := sourceCandidate(cfg)
	if err != nil {
		return err
	}
	return viz.Run(c, modules)
}
