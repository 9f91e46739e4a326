package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "laser-tag",
	Short: "Laser tag game session coordinator",
	Long: `Runs lobbies for laser tag matches: players join over a websocket, scan tags,
shoot each other and spend points, and every lobby member sees the result live.

Running without a subcommand is the same as "serve".`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "dotenv file(s) to load before reading the environment (default .env)")
}
