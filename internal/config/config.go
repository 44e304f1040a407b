package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mlindner/cosray/internal/core"
)

const (
	DefaultTolerance     = 1e-4
	DefaultMinStep       = 1e-4 * core.Kiloparsec
	DefaultMaxStep       = 1 * core.Megaparsec
	DefaultLimit         = 0.1
	DefaultFieldStrength = 1 * core.NanoGauss
	DefaultSourceEnergy  = 10 * core.EeV
)

type Config struct {
	Source       SourceConfig      `yaml:"source"`
	Fields       FieldConfig       `yaml:"fields"`
	Propagation  PropagationConfig `yaml:"propagation"`
	Interactions InteractionConfig `yaml:"interactions"`
	Run          RunConfig         `yaml:"run"`
}

type SourceConfig struct {
	MassNumber   int     `yaml:"mass_number"`
	ChargeNumber int     `yaml:"charge_number"`
	Energy       float64 `yaml:"energy"` // eV
	Redshift     float64 `yaml:"redshift"`
	Position     [3]float64 `yaml:"position"`  // Mpc
	Direction    [3]float64 `yaml:"direction"`
}

type FieldConfig struct {
	Strength    float64 `yaml:"strength"`     // nG
	Turbulent   bool    `yaml:"turbulent"`
	CellSize    float64 `yaml:"cell_size"`    // Mpc
	WindSpeed   float64 `yaml:"wind_speed"`   // m/s
	ShockRadius float64 `yaml:"shock_radius"` // Mpc
	PhotonField string  `yaml:"photon_field"`
}

type PropagationConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	MinStep   float64 `yaml:"min_step"` // kpc
	MaxStep   float64 `yaml:"max_step"` // Mpc
}

type InteractionConfig struct {
	DataDir            string  `yaml:"data_dir"`
	PairProduction     bool    `yaml:"pair_production"`
	Photodisintegration bool   `yaml:"photodisintegration"`
	HaveElectrons      bool    `yaml:"have_electrons"`
	HavePhotons        bool    `yaml:"have_photons"`
	Limit              float64 `yaml:"limit"`
}

type RunConfig struct {
	Candidates    int     `yaml:"candidates"`
	Workers       int     `yaml:"workers"`
	Seed          int64   `yaml:"seed"`
	MinEnergy     float64 `yaml:"min_energy"`      // eV
	MaxTrajectory float64 `yaml:"max_trajectory"`  // Mpc
	MaxSteps      int     `yaml:"max_steps"`
}

func Default() *Config {
	return &Config{
		Source: SourceConfig{
			MassNumber:   1,
			ChargeNumber: 1,
			Energy:       DefaultSourceEnergy / core.ElectronVolt,
			Direction:    [3]float64{1, 0, 0},
		},
		Fields: FieldConfig{
			Strength:    DefaultFieldStrength / core.NanoGauss,
			CellSize:    1,
			PhotonField: "CMB",
		},
		Propagation: PropagationConfig{
			Tolerance: DefaultTolerance,
			MinStep:   DefaultMinStep / core.Kiloparsec,
			MaxStep:   DefaultMaxStep / core.Megaparsec,
		},
		Interactions: InteractionConfig{
			DataDir:             "data",
			PairProduction:      true,
			Photodisintegration: true,
			Limit:               DefaultLimit,
		},
		Run: RunConfig{
			Candidates:    100,
			Workers:       4,
			Seed:          1,
			MinEnergy:     1e17,
			MaxTrajectory: 1000,
			MaxSteps:      100000,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Source.MassNumber < 1 {
		return fmt.Errorf("config: source mass number %d < 1", c.Source.MassNumber)
	}
	if c.Source.ChargeNumber < 0 || c.Source.ChargeNumber > c.Source.MassNumber {
		return fmt.Errorf("config: source charge number %d invalid for A=%d", c.Source.ChargeNumber, c.Source.MassNumber)
	}
	if c.Propagation.Tolerance <= 0 || c.Propagation.Tolerance > 1 {
		return fmt.Errorf("config: tolerance %g not in (0, 1]", c.Propagation.Tolerance)
	}
	if c.Propagation.MinStep < 0 {
		return fmt.Errorf("config: min step %g < 0", c.Propagation.MinStep)
	}
	if c.Propagation.MinStep*core.Kiloparsec > c.Propagation.MaxStep*core.Megaparsec {
		return fmt.Errorf("config: min step exceeds max step")
	}
	if c.Run.Candidates < 1 {
		return fmt.Errorf("config: candidate count %d < 1", c.Run.Candidates)
	}
	return nil
}

// SourceID returns the particle id of the configured source species.
func (c *Config) SourceID() (int, error) {
	return core.NucleusID(c.Source.MassNumber, c.Source.ChargeNumber)
}
