package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/blogr/internal/api"
	"github.com/pders01/blogr/internal/config"
	"github.com/pders01/blogr/internal/debuglog"
	"github.com/pders01/blogr/internal/posts"
	"github.com/pders01/blogr/internal/storage"
	"github.com/pders01/blogr/internal/theme"
	"github.com/pders01/blogr/internal/tui"
	"github.com/pders01/blogr/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	apiURL     string
	dbPath     string
	openID     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:          "blogr",
	Short:        "Terminal blog client",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("blogr %s\n", Version)
		fmt.Println("Terminal blog client")
		fmt.Println("github.com/pders01/blogr")
	},
}

var configGenCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write the default configuration to ~/.config/blogr/config.toml",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "blogr", "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			log.Fatalf("Failed to generate config: %v", err)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&apiURL, "api", "", "Base URL of the posts API (overrides config)")
	flags.StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&openID, "open", "", "Open the post with this id once the feed has loaded")
	flags.BoolVar(&quiet, "quiet", false, "Skip startup banner")

	rootCmd.AddCommand(versionCmd, configGenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer debuglog.Close()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := api.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	debuglog.Infof("blogr %s starting against %s", Version, client.BaseURL())

	store := posts.NewStore(client, db)
	store.SetTimeout(cfg.API.Timeout)
	app := tui.NewApp(cfg, store, theme.Load(db))
	defer app.Close()
	if openID != "" {
		app.OpenOnLoad(storage.PostID(openID))
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*storage.Store, error) {
	validator := validation.NewDBPathValidator()
	path, err := validator.ValidateFile(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if err := validator.EnsureParent(path); err != nil {
		return nil, err
	}

	db, err := storage.NewStore(path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
