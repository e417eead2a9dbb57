package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cinetix-cli/appstate"
	"cinetix-cli/config"
	"cinetix-cli/logger"
	"cinetix-cli/store"
	"cinetix-cli/tui"
)

const version = "v0.3"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Cinetix CLI",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Cinetix CLI %s\n", version)
	},
}

var rootCmd = &cobra.Command{
	Use:           "cinetix",
	Short:         "Cinetix movie tickets from the terminal",
	Long:          `Browse films and cinemas, pick seats and pay for your bookings, all from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, closeFn, err := openState()
		if err != nil {
			return err
		}
		defer closeFn()

		if _, err := tea.NewProgram(tui.New(state), tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

func Execute() {
	rootCmd.AddCommand(
		loginCmd,
		logoutCmd,
		ticketsCmd,
		payCmd,
		sessionsCmd,
		scheduleCmd,
		devServerCmd,
		versionCmd,
	)
	if err := rootCmd.Execute(); err != nil {
		config.Exitf("cinetix: %v", err)
	}
}

// openState loads config and builds the application state with a file
// logger, since the terminal belongs to the UI.
func openState() (*appstate.State, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	path := cfg.LogFile
	if path == "" {
		path, err = store.CachePath("cinetix.log")
		if err != nil {
			return nil, nil, fmt.Errorf("resolve log path: %w", err)
		}
	}
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Path: path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		log = logger.Discard()
	}
	return appstate.New(cfg, log.Logger), func() { _ = log.Close() }, nil
}
