package cmd

import (
	"encoding/json"
	"fmt"

	"lightplan/internal/version"

	"github.com/spf13/cobra"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !versionJSON {
			fmt.Fprintln(out, version.String())
			return nil
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"version":   version.Version,
			"commit":    version.GitCommit,
			"buildTime": version.BuildTime,
		})
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(versionCmd)
}
