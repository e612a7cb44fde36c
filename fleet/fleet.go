package fleet

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentgrid"
	"github.com/hupe1980/agentgrid/resource"
)

// Structural validation errors raised while parsing a fleet configuration.
var (
	ErrNoResources = errors.New("fleet: configuration declares no resources")
	ErrDuplicateID = errors.New("fleet: duplicate resource id")
)

// ResourceConfig declares a single resource of the fleet.
type ResourceConfig struct {
	ID              string  `yaml:"id"`
	CapacityUnits   float64 `yaml:"capacity_units"`
	StateOfCharge   float64 `yaml:"state_of_charge"`
	MaxRate         float64 `yaml:"max_rate"`
	ReserveFraction float64 `yaml:"reserve_fraction,omitempty"`
}

// Config is the root of a fleet configuration file.
type Config struct {
	// Coordinator is the signing identity of the auction coordinator.
	// Defaults to the package-level default when empty.
	Coordinator string `yaml:"coordinator,omitempty"`

	// PriceThreshold and BiddingFactor apply to every bidder of the fleet.
	// Zero values fall back to the agent defaults.
	PriceThreshold float64 `yaml:"price_threshold,omitempty"`
	BiddingFactor  float64 `yaml:"bidding_factor,omitempty"`

	Resources []ResourceConfig `yaml:"resources"`
}

// Parse decodes and validates a fleet configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("fleet: parse configuration: %w", err)
	}

	if len(cfg.Resources) == 0 {
		return nil, ErrNoResources
	}

	seen := make(map[string]struct{}, len(cfg.Resources))
	for _, rc := range cfg.Resources {
		if _, dup := seen[rc.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, rc.ID)
		}
		seen[rc.ID] = struct{}{}
	}

	return &cfg, nil
}

// Load reads and parses a fleet configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fleet: read configuration: %w", err)
	}
	return Parse(data)
}

// Build constructs a Grid from the configuration and adds every declared
// resource. Additional options are applied after the configuration so callers
// can attach loggers or metrics.
func (c *Config) Build(optFns ...func(o *agentgrid.Options)) (*agentgrid.Grid, error) {
	grid, err := agentgrid.New(func(o *agentgrid.Options) {
		if c.Coordinator != "" {
			o.CoordinatorIdentity = c.Coordinator
		}
		o.PriceThreshold = c.PriceThreshold
		o.BiddingFactor = c.BiddingFactor

		for _, fn := range optFns {
			fn(o)
		}
	})
	if err != nil {
		return nil, err
	}

	for _, rc := range c.Resources {
		res, err := resource.New(rc.ID, rc.CapacityUnits, rc.StateOfCharge, rc.MaxRate, func(o *resource.Options) {
			if rc.ReserveFraction > 0 {
				o.ReserveFraction = rc.ReserveFraction
			}
		})
		if err != nil {
			return nil, fmt.Errorf("fleet: resource %s: %w", rc.ID, err)
		}
		if _, err := grid.AddResource(res); err != nil {
			return nil, err
		}
	}

	return grid, nil
}
