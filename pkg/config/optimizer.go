package config

// OptimizerConfig controls the simulated-annealing schedule optimizer
// (spec §4.6). Invalid operator-supplied values are coerced to defaults by
// Validate rather than rejected, matching the spec's "initialization still
// succeeds" contract.
type OptimizerConfig struct {
	InitialTemperature  float64 `yaml:"initial_temperature"`
	FinalTemperature    float64 `yaml:"final_temperature"`
	CoolingRate         float64 `yaml:"cooling_rate"`
	MaxIterations       int     `yaml:"max_iterations"`
	ReheatThreshold     int     `yaml:"reheat_threshold"`
	ReheatFactor        float64 `yaml:"reheat_factor"`
	ConvergenceWindow   int     `yaml:"convergence_window"`
	ConvergenceThresh   float64 `yaml:"convergence_threshold"`
	SlotMinutes         int     `yaml:"slot_minutes"`
	Seed                *int64  `yaml:"seed,omitempty"`

	WeightPriority   float64 `yaml:"w_priority"`
	WeightConflict   float64 `yaml:"w_conflict"`
	WeightTimeGap    float64 `yaml:"w_time_gap"`
	WeightEfficiency float64 `yaml:"w_efficiency"`
}

// DefaultOptimizerConfig returns the built-in defaults from spec §4.6.
func DefaultOptimizerConfig() *OptimizerConfig {
	return &OptimizerConfig{
		InitialTemperature: 100,
		FinalTemperature:   1,
		CoolingRate:        0.95,
		MaxIterations:      5000,
		ReheatThreshold:     200,
		ReheatFactor:        1.5,
		ConvergenceWindow:   100,
		ConvergenceThresh:   0.001,
		SlotMinutes:         15,
		WeightPriority:      0.4,
		WeightConflict:      0.3,
		WeightTimeGap:       0.2,
		WeightEfficiency:    0.1,
	}
}

// Validate coerces invalid fields to built-in defaults in place.
func (o *OptimizerConfig) Validate() {
	d := DefaultOptimizerConfig()
	if o.InitialTemperature <= 0 {
		o.InitialTemperature = d.InitialTemperature
	}
	if o.FinalTemperature <= 0 || o.FinalTemperature >= o.InitialTemperature {
		o.FinalTemperature = d.FinalTemperature
		if o.FinalTemperature >= o.InitialTemperature {
			o.FinalTemperature = o.InitialTemperature / 10
		}
	}
	if o.CoolingRate <= 0 || o.CoolingRate >= 1 {
		o.CoolingRate = d.CoolingRate
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.ReheatThreshold <= 0 {
		o.ReheatThreshold = d.ReheatThreshold
	}
	if o.ReheatFactor <= 1 {
		o.ReheatFactor = d.ReheatFactor
	}
	if o.ConvergenceWindow <= 0 {
		o.ConvergenceWindow = d.ConvergenceWindow
	}
	if o.ConvergenceThresh <= 0 {
		o.ConvergenceThresh = d.ConvergenceThresh
	}
	if o.SlotMinutes <= 0 {
		o.SlotMinutes = d.SlotMinutes
	}
	wSum := o.WeightPriority + o.WeightConflict + o.WeightTimeGap + o.WeightEfficiency
	if wSum <= 0 {
		o.WeightPriority, o.WeightConflict = d.WeightPriority, d.WeightConflict
		o.WeightTimeGap, o.WeightEfficiency = d.WeightTimeGap, d.WeightEfficiency
	}
}
