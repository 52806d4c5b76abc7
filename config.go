package tbibm

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/n8thangreen/TB-IBM/centinel"
	"github.com/n8thangreen/TB-IBM/rng"
)

// Config is the top-level TOML configuration for a tbsim run, mirroring
// the teacher's EvoEpiConfig layout: one nested table per concern, each
// with its own Validate.
type Config struct {
	SimParams   *simConfig   `toml:"simulation"`
	PopParams   *popConfig   `toml:"population"`
	ModelParams *modelConfig `toml:"model"`
	LogParams   *logConfig   `toml:"logging"`

	validated bool
}

type simConfig struct {
	StartTime      float64 `toml:"start_time"`
	HorizonTime    float64 `toml:"horizon_time"`
	Buckets        int     `toml:"buckets"`
	ReportInterval float64 `toml:"report_interval"`
	Seed           uint32  `toml:"seed"`
	SeedPath       string  `toml:"seed_path"` // if set, overrides seed with the saved value

	BirthRatePath       string `toml:"birth_rate_path"`
	ImmigrationRatePath string `toml:"immigration_rate_path"`
	RateTableBaseYear   int    `toml:"rate_table_base_year"`
	RateTableYears      int    `toml:"rate_table_years"`
}

func (c *simConfig) Validate() error {
	if c.HorizonTime <= c.StartTime {
		return ErrHorizonBeforeStart
	}
	if c.Buckets <= 0 {
		return errors.Errorf(InvalidIntParameterError, "buckets", c.Buckets, "must be positive")
	}
	if c.ReportInterval <= 0 {
		return errors.Errorf(InvalidFloatParameterError, "report_interval", c.ReportInterval, "must be positive")
	}
	return nil
}

type popConfig struct {
	CapacityBornInside  int `toml:"capacity_born_inside"`
	CapacityBornOutside int `toml:"capacity_born_outside"`
}

func (c *popConfig) Validate() error {
	if c.CapacityBornInside < 0 {
		return errors.Errorf(InvalidIntParameterError, "capacity_born_inside", c.CapacityBornInside, "must not be negative")
	}
	if c.CapacityBornOutside < 0 {
		return errors.Errorf(InvalidIntParameterError, "capacity_born_outside", c.CapacityBornOutside, "must not be negative")
	}
	return nil
}

type modelConfig struct {
	LifespanModel      string  `toml:"lifespan_model"` // exponential, gompertz, empirical
	LifespanRateMale   float64 `toml:"lifespan_rate_male"`
	LifespanRateFemale float64 `toml:"lifespan_rate_female"`
	GompertzA          float64 `toml:"gompertz_a"`
	GompertzB          float64 `toml:"gompertz_b"`

	EmigrationModel         string  `toml:"emigration_model"` // exponential, empirical
	EmigrationRateInside    float64 `toml:"emigration_rate_inside"`
	EmigrationRateOutside   float64 `toml:"emigration_rate_outside"`

	FastProgressionRate  float64 `toml:"fast_progression_rate"`
	SlowProgressionRate  float64 `toml:"slow_progression_rate"`
	ReactivationRate     float64 `toml:"reactivation_rate"`
	ReinfectionRate      float64 `toml:"reinfection_rate"`
	RecoveryRate         float64 `toml:"recovery_rate"`
	TransmissionRateBase float64 `toml:"transmission_rate_base"`
	RouteMutationRate    float64 `toml:"route_mutation_rate"`
	VaccineEfficacy      float64 `toml:"vaccine_efficacy"`
	VaccinationRate      float64 `toml:"vaccination_rate"`

	// Pcc is the probability a transmission target is drawn from the
	// source's own cohort rather than the whole population.
	Pcc float64 `toml:"pcc"`
}

func (c *modelConfig) Validate() error {
	switch strings.ToLower(c.LifespanModel) {
	case "exponential", "gompertz":
	case "empirical":
		// accepted, but no inverse-CDF tables are loaded for it:
		// Config.LifespanModel builds an ExponentialLifespan in this case.
	default:
		return errors.Errorf(InvalidStringParameterError, "lifespan_model", c.LifespanModel, "must be exponential, gompertz, or empirical")
	}
	switch strings.ToLower(c.EmigrationModel) {
	case "exponential":
	case "empirical":
		return errors.Wrap(ErrUnimplementedDistribution, "model.emigration_model")
	default:
		return errors.Errorf(InvalidStringParameterError, "emigration_model", c.EmigrationModel, "must be exponential")
	}
	if c.Pcc < 0 || c.Pcc > 1 {
		return errors.Errorf(InvalidFloatParameterError, "pcc", c.Pcc, "must be in [0, 1]")
	}
	return nil
}

type logConfig struct {
	Sink     string `toml:"sink"` // stdout, csv, sqlite
	BasePath string `toml:"base_path"`
}

func (c *logConfig) Validate() error {
	switch strings.ToLower(c.Sink) {
	case "stdout", "csv", "sqlite":
	default:
		return errors.Errorf(InvalidStringParameterError, "sink", c.Sink, "must be stdout, csv, or sqlite")
	}
	return nil
}

// LoadConfig parses a TOML file into a Config, the way the teacher's
// LoadSingleHostConfig wraps toml.DecodeFile.
func LoadConfig(path string) (*Config, error) {
	cfg := new(Config)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "loading config %q", path)
	}
	return cfg, nil
}

// Validate checks every nested table and marks the config usable by
// NewSimulation.
func (c *Config) Validate() error {
	if err := c.SimParams.Validate(); err != nil {
		return err
	}
	if err := c.PopParams.Validate(); err != nil {
		return err
	}
	if err := c.ModelParams.Validate(); err != nil {
		return err
	}
	if err := c.LogParams.Validate(); err != nil {
		return err
	}
	c.validated = true
	return nil
}

// Reporter builds the configured reporter sink.
func (c *Config) Reporter() Reporter {
	switch strings.ToLower(c.LogParams.Sink) {
	case "csv":
		return NewCSVReporter(c.LogParams.BasePath)
	case "sqlite":
		return NewSQLiteReporter(c.LogParams.BasePath)
	default:
		return &StdoutReporter{}
	}
}

// LifespanModel builds the configured lifespan sampler: a GompertzLifespan
// for "gompertz", and an ExponentialLifespan for any other model name,
// "empirical" included.
func (c *Config) LifespanModel() LifespanModel {
	if strings.ToLower(c.ModelParams.LifespanModel) == "gompertz" {
		return &GompertzLifespan{A: c.ModelParams.GompertzA, B: c.ModelParams.GompertzB}
	}
	return &ExponentialLifespan{
		RateMale:   c.ModelParams.LifespanRateMale,
		RateFemale: c.ModelParams.LifespanRateFemale,
	}
}

// EmigrationModel builds the configured emigration sampler. Validate
// already rejects the empirical branch, so only exponential reaches here.
func (c *Config) EmigrationModel() EmigrationModel {
	return &ExponentialEmigration{
		RateBornInside:  c.ModelParams.EmigrationRateInside,
		RateBornOutside: c.ModelParams.EmigrationRateOutside,
	}
}

// ToParams collects the transition rates into the Params struct transitions.go consumes.
func (c *Config) ToParams() *Params {
	m := c.ModelParams
	return &Params{
		Lifespan:             c.LifespanModel(),
		Emigration:           c.EmigrationModel(),
		VaccineEfficacy:      m.VaccineEfficacy,
		VaccinationRate:      m.VaccinationRate,
		FastProgressionRate:  m.FastProgressionRate,
		SlowProgressionRate:  m.SlowProgressionRate,
		ReactivationRate:     m.ReactivationRate,
		ReinfectionRate:      m.ReinfectionRate,
		RecoveryRate:         m.RecoveryRate,
		TransmissionRateBase: m.TransmissionRateBase,
		RouteMutationRate:    m.RouteMutationRate,
		ReportInterval:       c.SimParams.ReportInterval,
		Pcc:                  m.Pcc,
	}
}

// loadRates reads an annual-rate centinel table, one value per calendar
// year starting at RateTableBaseYear. An empty path yields a nil table,
// which Generator.rateForYear treats as a uniform rate of zero.
func (c *Config) loadRates(path string) ([]AnnualRate, error) {
	if path == "" {
		return nil, nil
	}
	shape := []centinel.Dim{{Label: 'y', Size: c.SimParams.RateTableYears}}
	arr, err := centinel.Read(path, shape, centinel.IdentityRescale)
	if err != nil {
		return nil, errors.Wrapf(err, "loading rate table %q", path)
	}
	rates := make([]AnnualRate, len(arr.Data))
	for i, v := range arr.Data {
		rates[i] = AnnualRate{Year: c.SimParams.RateTableBaseYear + i, Rate: v}
	}
	return rates, nil
}

// NewSimulation builds a ready-to-run Simulation from a validated config,
// mirroring the teacher's Config.NewSimulation factory method.
func (c *Config) NewSimulation() (*Simulation, error) {
	if !c.validated {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	pop := NewPopulation(c.PopParams.CapacityBornOutside, c.PopParams.CapacityBornInside, c.SimParams.Buckets)
	pop.StartTime(c.SimParams.StartTime, c.SimParams.HorizonTime-c.SimParams.StartTime)
	pop.SetHorizon(c.SimParams.HorizonTime)

	src := new(rng.Source)
	seed := c.SimParams.Seed
	if c.SimParams.SeedPath != "" {
		if loaded, found, err := LoadNextSeed(c.SimParams.SeedPath); err == nil && found {
			seed = loaded
		}
	}
	src.StartWithSeed(seed)

	sim := &Simulation{
		Pop:      pop,
		Counters: new(Counters),
		RunID:    NewRunID(),
		Config:   c,
		Reporter: c.Reporter(),
	}
	birthRates, err := c.loadRates(c.SimParams.BirthRatePath)
	if err != nil {
		return nil, err
	}
	immigrationRates, err := c.loadRates(c.SimParams.ImmigrationRatePath)
	if err != nil {
		return nil, err
	}

	sim.Engine = &Engine{
		Pop:            pop,
		Counts:         sim.Counters,
		Src:            src,
		Params:         c.ToParams(),
		BirthGen:       NewBirthGenerator(pop, src, birthRates),
		ImmigrationGen: NewImmigrationGenerator(pop, src, immigrationRates),
	}
	pop.ScheduleCandidate(pop.BirthGeneratorID(), EvBirth, c.SimParams.StartTime)
	pop.ScheduleCandidate(pop.ImmigrationGeneratorID(), EvBirth, c.SimParams.StartTime)
	return sim, nil
}
