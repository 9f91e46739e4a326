package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/peovukea-bbd/laser-tag/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the weapon and power-up catalog as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Weapons  []catalog.Weapon  `json:"weapons"`
			PowerUps []catalog.PowerUp `json:"powerUps"`
		}{cat.Weapons(), cat.PowerUps()})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
