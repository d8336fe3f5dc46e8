package cmd

import (
	"fmt"

	"lightplan/internal/guide"
	limage "lightplan/internal/image"

	"github.com/spf13/cobra"
)

var (
	guideOut    string
	guideStyle  string
	guideFormat string
)

var guideCmd = &cobra.Command{
	Use:   "guide <project|photo>",
	Short: "Render the annotated guide image",
	Long: `Render the guide image: numbered markers, beam arrows and mounting lines
over a darkened photo. The clean style is meant for image generation, the
verbose style for people.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := openInput(args[0])
		if err != nil {
			return err
		}

		opts := state.GuideOptions
		switch guideStyle {
		case "":
		case "clean":
			opts = guide.CleanOptions()
		case "verbose":
			opts = guide.VerboseOptions()
		default:
			return fmt.Errorf("unknown guide style %q", guideStyle)
		}
		if guideFormat != "" {
			f, err := limage.ParseFormat(guideFormat)
			if err != nil {
				return err
			}
			opts.Format = f
		}

		snap := state.Store.Snapshot()
		res, err := guide.Render(state.Photo.Image, snap.Fixtures, snap.Lines, opts)
		if err != nil {
			return err
		}
		log.Debug().Dur("elapsed", res.Elapsed).Msg("guide rendered")
		return writeOutput(outputPath(guideOut, args[0], "guide", res.Format.String()), res.Bytes)
	},
}

func init() {
	guideCmd.Flags().StringVarP(&guideOut, "out", "o", "", "output path (default <input>_guide.<ext>)")
	guideCmd.Flags().StringVar(&guideStyle, "style", "", "clean or verbose (default from config)")
	guideCmd.Flags().StringVar(&guideFormat, "format", "", "jpeg or png (default from style)")
	rootCmd.AddCommand(guideCmd)
}
