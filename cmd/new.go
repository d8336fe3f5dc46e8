package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lightplan/internal/project"

	"github.com/spf13/cobra"
)

var (
	newPhoto  string
	newSprite string
)

var newCmd = &cobra.Command{
	Use:   "new <project>",
	Short: "Create a project file for a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !strings.EqualFold(filepath.Ext(path), project.Extension) {
			path += project.Extension
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		state, err := openInput(newPhoto)
		if err != nil {
			return err
		}
		if newSprite != "" {
			if err := state.LoadSprite(newSprite); err != nil {
				return err
			}
		}
		state.Project.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := state.SaveProject(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

func init() {
	newCmd.Flags().StringVar(&newPhoto, "photo", "", "house photo (required)")
	newCmd.Flags().StringVar(&newSprite, "sprite", "", "fixture sprite pasted by the compositor")
	_ = newCmd.MarkFlagRequired("photo")
	rootCmd.AddCommand(newCmd)
}
