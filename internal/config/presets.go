package config

var Presets = map[string]map[string]*Config{
	"stack": {
		"small": {
			Scene:   "stack",
			World:   WorldConfig{Dt: DefaultDt, GravityY: DefaultGravityY, Damping: DefaultDamping},
			Islands: IslandsConfig{MinSize: 4},
			Run:     RunConfig{Steps: 600, Bodies: 10},
		},
		"tower": {
			Scene:   "stack",
			World:   WorldConfig{Dt: DefaultDt, GravityY: DefaultGravityY, Damping: DefaultDamping},
			Islands: IslandsConfig{MinSize: 16},
			Run:     RunConfig{Steps: 1200, Bodies: 50},
		},
	},
	"rain": {
		"drizzle": {
			Scene:   "rain",
			World:   WorldConfig{Dt: DefaultDt, GravityY: DefaultGravityY, Damping: DefaultDamping},
			Islands: IslandsConfig{MinSize: 8},
			Run:     RunConfig{Steps: 900, Bodies: 30, Seed: 7},
		},
		"storm": {
			Scene:   "rain",
			World:   WorldConfig{Dt: DefaultDt, GravityY: DefaultGravityY, Damping: DefaultDamping},
			Islands: IslandsConfig{MinSize: 32},
			Run:     RunConfig{Steps: 1800, Bodies: 200, Seed: 7},
		},
	},
	"chain": {
		"short": {
			Scene:   "chain",
			World:   WorldConfig{Dt: DefaultDt, GravityY: DefaultGravityY, Damping: DefaultDamping},
			Islands: IslandsConfig{MinSize: 1},
			Run:     RunConfig{Steps: 600, Bodies: 8},
		},
		"long": {
			Scene:   "chain",
			World:   WorldConfig{Dt: DefaultDt, GravityY: DefaultGravityY, Damping: DefaultDamping},
			Islands: IslandsConfig{MinSize: 8},
			Run:     RunConfig{Steps: 1200, Bodies: 40},
		},
	},
}

func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	return names
}
