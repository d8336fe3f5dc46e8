package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"lightplan/internal/project"

	"github.com/spf13/cobra"
)

var (
	detectSave bool
	detectJSON bool
)

var detectCmd = &cobra.Command{
	Use:   "detect <project|photo>",
	Short: "Detect roofline and gutter mounting lines",
	Long: `Run the detector chain (configured services, then the local heuristic) and
append the detected mounting lines to the layout. Lines already in the
layout are kept. With --save the project file is updated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		input := args[0]
		isProject := strings.EqualFold(filepath.Ext(input), project.Extension)
		if detectSave && !isProject {
			return fmt.Errorf("--save needs a %s project input", project.Extension)
		}

		state, err := openInput(input)
		if err != nil {
			return err
		}
		log.Debug().Strs("stages", state.Detector.Stages()).Msg("detector chain")

		d, err := state.DetectLines(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if detectJSON {
			data, err := state.Store.Export()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		} else {
			fmt.Fprintf(out, "Source: %s (found %d, added %d)\n", d.Source, d.Found, d.Added)
			for i, l := range state.Store.Lines() {
				fmt.Fprintf(out, "  L%d %s  (%.1f, %.1f) -> (%.1f, %.1f)  length %.1f\n",
					i+1, l.ID, l.StartX, l.StartY, l.EndX, l.EndY, l.Length())
			}
		}

		if detectSave {
			return state.SaveProject(input)
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().BoolVar(&detectSave, "save", false, "write the lines back into the project file")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print the resulting layout document as JSON")
	rootCmd.AddCommand(detectCmd)
}
