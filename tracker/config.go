package tracker

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/mocaptools/rigidbodytracker/spatialmath"
)

// A MarkerConfiguration is the nominal marker layout of one physical object,
// expressed in the object's local frame. Bodies sharing a physical layout
// share a configuration by index. Immutable after load.
type MarkerConfiguration []r3.Vector

// A DynamicsConfiguration bounds the plausible per-frame motion and fit
// quality for a class of bodies. Velocities are m/s, rates rad/s, angles rad.
// Immutable after load; selected per body by index.
type DynamicsConfiguration struct {
	MaxXVelocity    float64 `json:"max_x_velocity"`
	MaxYVelocity    float64 `json:"max_y_velocity"`
	MaxZVelocity    float64 `json:"max_z_velocity"`
	MaxRollRate     float64 `json:"max_roll_rate"`
	MaxPitchRate    float64 `json:"max_pitch_rate"`
	MaxYawRate      float64 `json:"max_yaw_rate"`
	MaxRoll         float64 `json:"max_roll"`
	MaxPitch        float64 `json:"max_pitch"`
	MaxFitnessScore float64 `json:"max_fitness_score"`
}

// Validate ensures all parts of the config are valid.
func (config *DynamicsConfiguration) Validate(path string) error {
	for field, v := range map[string]float64{
		"max_x_velocity":    config.MaxXVelocity,
		"max_y_velocity":    config.MaxYVelocity,
		"max_z_velocity":    config.MaxZVelocity,
		"max_roll_rate":     config.MaxRollRate,
		"max_pitch_rate":    config.MaxPitchRate,
		"max_yaw_rate":      config.MaxYawRate,
		"max_roll":          config.MaxRoll,
		"max_pitch":         config.MaxPitch,
		"max_fitness_score": config.MaxFitnessScore,
	} {
		if v <= 0 {
			return goutils.NewConfigValidationError(path, errors.Errorf("%s must be positive", field))
		}
	}
	return nil
}

// MarkerConfigurationConfig describes one marker layout in a config file, as a
// list of [x, y, z] coordinate triples in meters.
type MarkerConfigurationConfig struct {
	Points [][]float64 `json:"points"`
}

// Validate ensures all parts of the config are valid.
func (config *MarkerConfigurationConfig) Validate(path string) error {
	if len(config.Points) == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "points")
	}
	for i, p := range config.Points {
		if len(p) != 3 {
			return goutils.NewConfigValidationError(path,
				errors.Errorf("points.%d must have exactly 3 coordinates, got %d", i, len(p)))
		}
	}
	return nil
}

// Parse returns the marker layout as local-frame points.
func (config *MarkerConfigurationConfig) Parse() MarkerConfiguration {
	points := make(MarkerConfiguration, len(config.Points))
	for i, p := range config.Points {
		points[i] = r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	}
	return points
}

// RigidBodyConfig describes one tracked body in a config file.
type RigidBodyConfig struct {
	Name                  string    `json:"name"`
	MarkerConfiguration   int       `json:"marker_configuration"`
	DynamicsConfiguration int       `json:"dynamics_configuration"`
	InitialPosition       []float64 `json:"initial_position"`
	InitialYaw            float64   `json:"initial_yaw"`
}

// Validate ensures all parts of the config are valid.
func (config *RigidBodyConfig) Validate(path string, numMarkers, numDynamics int) error {
	if config.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.MarkerConfiguration < 0 || config.MarkerConfiguration >= numMarkers {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("marker_configuration %d out of range [0, %d)", config.MarkerConfiguration, numMarkers))
	}
	if config.DynamicsConfiguration < 0 || config.DynamicsConfiguration >= numDynamics {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("dynamics_configuration %d out of range [0, %d)", config.DynamicsConfiguration, numDynamics))
	}
	if len(config.InitialPosition) != 3 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("initial_position must have exactly 3 coordinates, got %d", len(config.InitialPosition)))
	}
	return nil
}

// Parse returns the body at its nominal pose.
func (config *RigidBodyConfig) Parse() *RigidBody {
	initial := spatialmath.NewPose(
		r3.Vector{X: config.InitialPosition[0], Y: config.InitialPosition[1], Z: config.InitialPosition[2]},
		&spatialmath.EulerAngles{Yaw: config.InitialYaw},
	)
	return NewRigidBody(config.MarkerConfiguration, config.DynamicsConfiguration, initial, config.Name)
}

// Config is a full tracker configuration: marker layouts, dynamics bounds, and
// the set of bodies to track. It is loaded once before tracking begins and
// never mutated by the tracking core.
type Config struct {
	MarkerConfigurations   []MarkerConfigurationConfig `json:"marker_configurations"`
	DynamicsConfigurations []DynamicsConfiguration     `json:"dynamics_configurations"`
	RigidBodies            []RigidBodyConfig           `json:"rigid_bodies"`
}

// Validate ensures all parts of the config are valid, reporting every problem
// found rather than stopping at the first.
func (config *Config) Validate() error {
	if len(config.RigidBodies) == 0 {
		return goutils.NewConfigValidationFieldRequiredError("", "rigid_bodies")
	}
	var errs error
	for i := range config.MarkerConfigurations {
		errs = multierr.Append(errs, config.MarkerConfigurations[i].Validate(fmt.Sprintf("marker_configurations.%d", i)))
	}
	for i := range config.DynamicsConfigurations {
		errs = multierr.Append(errs, config.DynamicsConfigurations[i].Validate(fmt.Sprintf("dynamics_configurations.%d", i)))
	}
	seen := map[string]bool{}
	for i := range config.RigidBodies {
		path := fmt.Sprintf("rigid_bodies.%d", i)
		rb := &config.RigidBodies[i]
		errs = multierr.Append(errs, rb.Validate(path, len(config.MarkerConfigurations), len(config.DynamicsConfigurations)))
		if seen[rb.Name] {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf("duplicate rigid body name %q", rb.Name)))
		}
		seen[rb.Name] = true
	}
	return errs
}

// ReadConfig parses and validates a JSON tracker configuration.
func ReadConfig(r io.Reader) (*Config, error) {
	var config Config
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return nil, errors.Wrap(err, "cannot parse tracker config")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ReadConfigFromFile parses and validates the JSON tracker configuration at
// the given path.
func ReadConfigFromFile(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open tracker config %q", path)
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return ReadConfig(f)
}
