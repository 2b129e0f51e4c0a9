package config

// Config represents the complete pyscope configuration.
// It can be loaded from .pyscope/config.yml with environment variable overrides.
type Config struct {
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Watch  WatchConfig  `yaml:"watch" mapstructure:"watch"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
}

// OutputConfig defines where and how graph artifacts are written.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // "png", "svg", "pdf" or "dot"
	Dir    string `yaml:"dir" mapstructure:"dir"`       // artifact directory; empty means working directory
}

// EngineConfig configures the external Graphviz layout engine.
type EngineConfig struct {
	Path           string `yaml:"path" mapstructure:"path"`                       // engine binary name or absolute path
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // per-export time limit
}

// WatchConfig defines which files the watcher re-analyzes and how changes
// are batched.
type WatchConfig struct {
	Patterns   []string `yaml:"patterns" mapstructure:"patterns"`       // glob patterns for files to analyze
	Ignore     []string `yaml:"ignore" mapstructure:"ignore"`           // glob patterns to skip
	DebounceMs int      `yaml:"debounce_ms" mapstructure:"debounce_ms"` // quiet period before a batch is delivered
}

// CacheConfig bounds the MCP server's analysis result cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"` // cached analyses; one entry per file path
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "png",
			Dir:    "",
		},
		Engine: EngineConfig{
			Path:           "dot",
			TimeoutSeconds: 30,
		},
		Watch: WatchConfig{
			Patterns: []string{
				"**/*.py",
			},
			Ignore: []string{
				"__pycache__/**",
				".git/**",
				".venv/**",
				"venv/**",
				"*.pyc",
			},
			DebounceMs: 500,
		},
		Cache: CacheConfig{
			MaxEntries: 256,
		},
	}
}
