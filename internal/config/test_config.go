package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:3031/",
			Timeout:   2 * time.Second,
			UserAgent: "blogr-test/1.0",
			UserID:    1,
		},
		Feed: FeedConfig{
			PageSize:    8,
			SettleDelay: 10 * time.Millisecond,
		},
		Search: SearchConfig{
			Mode:     SearchModeTitle,
			Debounce: 10 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		UI:   def.UI,
		Keys: def.Keys,
		Log:  LogConfig{Level: "off"},
	}
}
