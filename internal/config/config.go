package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Search   SearchConfig   `mapstructure:"search"`
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	// UserID is attached to created and updated posts.
	UserID int `mapstructure:"user_id"`
}

type FeedConfig struct {
	PageSize    int           `mapstructure:"page_size"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

type SearchConfig struct {
	// Mode is "title" (substring over titles) or "fulltext" (bleve over title and body).
	Mode     string        `mapstructure:"mode"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type UIConfig struct {
	StatusTimeout time.Duration `mapstructure:"status_timeout"`
	WordsPerMin   int           `mapstructure:"words_per_minute"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Search      string `mapstructure:"search"`
	ClearSearch string `mapstructure:"clear_search"`
	NewPost     string `mapstructure:"new_post"`
	EditPost    string `mapstructure:"edit_post"`
	DeletePost  string `mapstructure:"delete_post"`
	Refresh     string `mapstructure:"refresh"`
	ToggleTheme string `mapstructure:"toggle_theme"`
	Back        string `mapstructure:"back"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

const (
	SearchModeTitle    = "title"
	SearchModeFullText = "fulltext"
)

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:3031/",
			Timeout:   15 * time.Second,
			UserAgent: "blogr/1.0 (https://github.com/pders01/blogr)",
			UserID:    1,
		},
		Feed: FeedConfig{
			PageSize:    8,
			SettleDelay: 300 * time.Millisecond,
		},
		Search: SearchConfig{
			Mode:     SearchModeTitle,
			Debounce: 400 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Path:    filepath.Join(homeDir, ".blogr.db"),
			Timeout: 1 * time.Second,
		},
		UI: UIConfig{
			StatusTimeout: 3 * time.Second,
			WordsPerMin:   200,
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "s",
				ClearSearch: "l",
				NewPost:     "n",
				EditPost:    "e",
				DeletePost:  "x",
				Refresh:     "r",
				ToggleTheme: "t",
				Back:        "esc",
			},
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(homeDir, ".blogr", "blogr.log"),
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "blogr")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BLOGR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	normalize(&config)

	return &config, nil
}

// setDefaults registers every leaf key so a partial config file keeps the
// defaults of the keys it omits.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.user_id", cfg.API.UserID)
	v.SetDefault("feed.page_size", cfg.Feed.PageSize)
	v.SetDefault("feed.settle_delay", cfg.Feed.SettleDelay)
	v.SetDefault("search.mode", cfg.Search.Mode)
	v.SetDefault("search.debounce", cfg.Search.Debounce)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("ui.status_timeout", cfg.UI.StatusTimeout)
	v.SetDefault("ui.words_per_minute", cfg.UI.WordsPerMin)
	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	v.SetDefault("keys.bindings.quit", cfg.Keys.Bindings.Quit)
	v.SetDefault("keys.bindings.search", cfg.Keys.Bindings.Search)
	v.SetDefault("keys.bindings.clear_search", cfg.Keys.Bindings.ClearSearch)
	v.SetDefault("keys.bindings.new_post", cfg.Keys.Bindings.NewPost)
	v.SetDefault("keys.bindings.edit_post", cfg.Keys.Bindings.EditPost)
	v.SetDefault("keys.bindings.delete_post", cfg.Keys.Bindings.DeletePost)
	v.SetDefault("keys.bindings.refresh", cfg.Keys.Bindings.Refresh)
	v.SetDefault("keys.bindings.toggle_theme", cfg.Keys.Bindings.ToggleTheme)
	v.SetDefault("keys.bindings.back", cfg.Keys.Bindings.Back)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

// normalize replaces out-of-range values with defaults.
func normalize(cfg *Config) {
	def := defaultConfig()
	if cfg.Feed.PageSize <= 0 {
		cfg.Feed.PageSize = def.Feed.PageSize
	}
	if cfg.Feed.SettleDelay < 0 {
		cfg.Feed.SettleDelay = def.Feed.SettleDelay
	}
	if cfg.Search.Debounce < 0 {
		cfg.Search.Debounce = def.Search.Debounce
	}
	if cfg.Search.Mode != SearchModeTitle && cfg.Search.Mode != SearchModeFullText {
		cfg.Search.Mode = SearchModeTitle
	}
	if cfg.UI.WordsPerMin <= 0 {
		cfg.UI.WordsPerMin = def.UI.WordsPerMin
	}
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings so the TOML stays readable.
	apiCfg := map[string]interface{}{
		"base_url":   config.API.BaseURL,
		"timeout":    config.API.Timeout.String(),
		"user_agent": config.API.UserAgent,
		"user_id":    config.API.UserID,
	}
	feedCfg := map[string]interface{}{
		"page_size":    config.Feed.PageSize,
		"settle_delay": config.Feed.SettleDelay.String(),
	}
	searchCfg := map[string]interface{}{
		"mode":     config.Search.Mode,
		"debounce": config.Search.Debounce.String(),
	}
	dbCfg := map[string]interface{}{
		"path":    config.Database.Path,
		"timeout": config.Database.Timeout.String(),
	}
	uiCfg := map[string]interface{}{
		"status_timeout":   config.UI.StatusTimeout.String(),
		"words_per_minute": config.UI.WordsPerMin,
	}

	keysCfg := map[string]interface{}{
		"modifier": config.Keys.Modifier,
		"bindings": map[string]interface{}{
			"quit":         config.Keys.Bindings.Quit,
			"search":       config.Keys.Bindings.Search,
			"clear_search": config.Keys.Bindings.ClearSearch,
			"new_post":     config.Keys.Bindings.NewPost,
			"edit_post":    config.Keys.Bindings.EditPost,
			"delete_post":  config.Keys.Bindings.DeletePost,
			"refresh":      config.Keys.Bindings.Refresh,
			"toggle_theme": config.Keys.Bindings.ToggleTheme,
			"back":         config.Keys.Bindings.Back,
		},
	}
	logCfg := map[string]interface{}{
		"level": config.Log.Level,
		"path":  config.Log.Path,
	}

	v.Set("api", apiCfg)
	v.Set("feed", feedCfg)
	v.Set("search", searchCfg)
	v.Set("database", dbCfg)
	v.Set("ui", uiCfg)
	v.Set("keys", keysCfg)
	v.Set("log", logCfg)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
