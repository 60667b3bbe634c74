// Package cli provides the command-line interface for the operator console.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boomslang777/ram2/internal/cache"
	"github.com/boomslang777/ram2/internal/client"
	"github.com/boomslang777/ram2/internal/config"
	"github.com/boomslang777/ram2/internal/coordinator"
	"github.com/boomslang777/ram2/internal/feed"
	"github.com/boomslang777/ram2/internal/journal"
	"github.com/boomslang777/ram2/internal/logging"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-01-15"
)

// App holds the application dependencies.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Cache       *cache.Cache
	Client      *client.Client
	Feed        *feed.Connector
	Coordinator *coordinator.Coordinator
	Settings    *coordinator.SettingsEditor
	Journal     *journal.Journal
}

// NewRootCmd creates the root command for the CLI and wires the application
// components together: one cache, one client, one feed connector.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Cache = cache.New(logger)
	app.Client = client.New(client.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.Server.Timeout,
	}, logger)
	app.Feed = feed.New(feed.Config{
		URL:            cfg.Server.WSURL,
		ReconnectDelay: cfg.Feed.ReconnectDelay,
	}, app.Cache, logger)

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to open journal, commands will not be recorded")
		} else {
			app.Journal = j
		}
	}

	app.Coordinator = coordinator.New(app.Client, app.Cache, app.Journal, logger)
	app.Coordinator.RegisterRefreshers()
	app.Settings = coordinator.NewSettingsEditor(app.Coordinator)

	rootCmd := &cobra.Command{
		Use:   "ram2",
		Short: "Operator console for a semi-automated trading account",
		Long: `ram2 is an operator console for a semi-automated SPY options and MES
futures account.

It keeps a live view of positions, working orders and P&L over a push
connection to the backend trading engine, and submits buy, sell, cover and
close commands that respect instrument-specific trading rules.

Use 'ram2 console' for the live view, or the one-shot commands below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/ram2)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addViewCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addSettingsCommands(rootCmd, app)
	addConsoleCommand(rootCmd, app)
	addJournalCommand(rootCmd, app)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("ram2 v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}
