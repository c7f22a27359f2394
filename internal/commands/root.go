package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhaksylykov/wistep/internal/auth"
	"github.com/zhaksylykov/wistep/internal/config"
	"github.com/zhaksylykov/wistep/internal/db"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "wistep",
	Short: "Work-instruction execution with per-step timers",
	Long: `wistep guides operators through work-instruction checklists, one
manufacturing order at a time: per-step timers, skip and troubleshoot
corrections, session notes, and admin review of completed runs.`,
}

// initDB initializes the database and panics on error
func initDB() {
	if err := db.Initialize(); err != nil {
		panic(err)
	}
}

// withDB wraps a command function to initialize the database first
func withDB(fn func(*cobra.Command, []string)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		initDB()
		fn(cmd, args)
	}
}

// openAuth loads the user config and wraps it in an identity provider.
func openAuth() (*auth.ConfigProvider, config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return nil, config.Default(), err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, cfg, err
	}
	return auth.NewConfigProvider(path, cfg), cfg, nil
}

// requireOperator returns the signed-in identity or prints the login hint.
func requireOperator() (*auth.Identity, config.Config, bool) {
	provider, cfg, err := openAuth()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil, cfg, false
	}
	id := provider.Current()
	if id == nil {
		fmt.Println("Not signed in. Run: wistep login <id> <name>")
		return nil, cfg, false
	}
	return id, cfg, true
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(instructionsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(versionCmd)
}
