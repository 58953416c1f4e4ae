package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidsim/internal/geometry"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	DefaultDt            = 1.0 / 60.0
	DefaultGravityY      = -9.81
	DefaultDamping       = 0.995
	DefaultMinIslandSize = 8
	DefaultBodies        = 20
	DefaultSteps         = 600
)

type Config struct {
	Scene   string        `yaml:"scene"`
	World   WorldConfig   `yaml:"world"`
	Islands IslandsConfig `yaml:"islands"`
	Run     RunConfig     `yaml:"run"`
}

type WorldConfig struct {
	Dt       float64 `yaml:"dt"`
	GravityX float64 `yaml:"gravity_x"`
	GravityY float64 `yaml:"gravity_y"`
	Damping  float64 `yaml:"damping"`
}

type IslandsConfig struct {
	MinSize int `yaml:"min_size"`
}

type RunConfig struct {
	Steps  int   `yaml:"steps"`
	Bodies int   `yaml:"bodies"`
	Seed   int64 `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene: "stack",
		World: WorldConfig{
			Dt:       DefaultDt,
			GravityY: DefaultGravityY,
			Damping:  DefaultDamping,
		},
		Islands: IslandsConfig{
			MinSize: DefaultMinIslandSize,
		},
		Run: RunConfig{
			Steps:  DefaultSteps,
			Bodies: DefaultBodies,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
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

// WorldConfig converts the file representation into the pipeline's
// config struct.
func (c *Config) WorldConfig() world.Config {
	return world.Config{
		Dt:            c.World.Dt,
		Gravity:       geometry.Vec2{X: c.World.GravityX, Y: c.World.GravityY},
		MinIslandSize: c.Islands.MinSize,
		LinearDamping: c.World.Damping,
	}
}
